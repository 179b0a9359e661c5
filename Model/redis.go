package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisUTXOSet keeps the pool in Redis. Spends and creations of one
// transaction go through a single MULTI/EXEC pipeline.
type RedisUTXOSet struct {
	ctx context.Context
	rdb *redis.Client
}

func NewRedisUTXOSet(addr string) *RedisUTXOSet {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisUTXOSet{
		ctx: context.Background(),
		rdb: rdb,
	}
}

// Ping checks that the server is reachable.
func (r *RedisUTXOSet) Ping() error {
	return r.rdb.Ping(r.ctx).Err()
}

func (r *RedisUTXOSet) Close() error {
	return r.rdb.Close()
}

func redisAddrKey(addr string) string {
	return fmt.Sprintf("addr:%s", addr)
}

func (r *RedisUTXOSet) Get(u UTXO) (Output, bool) {
	raw, err := r.rdb.Get(r.ctx, string(utxoKey(u))).Bytes()
	if err != nil {
		// not found or other redis error
		return Output{}, false
	}

	out, err := deserializeOutput(raw)
	if err != nil {
		return Output{}, false
	}
	return out, true
}

func (r *RedisUTXOSet) Contains(u UTXO) bool {
	n, err := r.rdb.Exists(r.ctx, string(utxoKey(u))).Result()
	return err == nil && n == 1
}

func (r *RedisUTXOSet) Put(u UTXO, out Output) error {
	pipe := r.rdb.TxPipeline()
	if err := r.queueDelete(pipe, u); err != nil && !errors.Is(err, ErrUTXONotFound) {
		return err
	}
	r.queuePut(pipe, u, out)

	_, err := pipe.Exec(r.ctx)
	return err
}

func (r *RedisUTXOSet) Delete(u UTXO) error {
	pipe := r.rdb.TxPipeline()
	if err := r.queueDelete(pipe, u); err != nil {
		return err
	}

	_, err := pipe.Exec(r.ctx)
	return err
}

func (r *RedisUTXOSet) ApplyTransaction(tx *Transaction) error {
	pipe := r.rdb.TxPipeline()

	// delete inputs
	for _, in := range tx.Inputs {
		if err := r.queueDelete(pipe, in.UTXO()); err != nil {
			return err
		}
	}

	// add outputs, dropping the address index of anything overwritten
	for i, out := range tx.Outputs {
		u := UTXO{Txid: tx.Txid, Index: uint32(i)}
		if err := r.queueDelete(pipe, u); err != nil && !errors.Is(err, ErrUTXONotFound) {
			return err
		}
		r.queuePut(pipe, u, out)
	}

	_, err := pipe.Exec(r.ctx)
	return err
}

func (r *RedisUTXOSet) queuePut(pipe redis.Pipeliner, u UTXO, out Output) {
	key := string(utxoKey(u))
	pipe.Set(r.ctx, key, serializeOutput(out), 0)
	if len(out.Address) > 0 {
		pipe.SAdd(r.ctx, redisAddrKey(AddressFromPub(out.Address)), key)
	}
}

// queueDelete reads the current value outside the pipeline to find the
// address set the key belongs to.
func (r *RedisUTXOSet) queueDelete(pipe redis.Pipeliner, u UTXO) error {
	key := string(utxoKey(u))

	raw, err := r.rdb.Get(r.ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %s", ErrUTXONotFound, u)
	}
	if err != nil {
		return err
	}

	if out, err := deserializeOutput(raw); err == nil && len(out.Address) > 0 {
		pipe.SRem(r.ctx, redisAddrKey(AddressFromPub(out.Address)), key)
	}
	pipe.Del(r.ctx, key)
	return nil
}

func (r *RedisUTXOSet) AllUTXO() ([]UTXO, error) {
	var res []UTXO

	iter := r.rdb.Scan(r.ctx, 0, "utxo:*", 512).Iterator()
	for iter.Next(r.ctx) {
		u, err := parseUTXOKey([]byte(iter.Val()))
		if err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sortUTXOs(res)
	return res, nil
}

func (r *RedisUTXOSet) Len() int {
	all, err := r.AllUTXO()
	if err != nil {
		return 0
	}
	return len(all)
}

func (r *RedisUTXOSet) FindUTXOsByAddress(addr string) []UTXO {
	keys, err := r.rdb.SMembers(r.ctx, redisAddrKey(addr)).Result()
	if err != nil {
		return nil
	}

	var res []UTXO
	for _, k := range keys {
		u, err := parseUTXOKey([]byte(k))
		if err != nil {
			continue
		}
		res = append(res, u)
	}
	sortUTXOs(res)
	return res
}

// Flush removes every pool key. Used by tests and `serve` on startup.
func (r *RedisUTXOSet) Flush() error {
	all, err := r.AllUTXO()
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	for _, u := range all {
		if err := r.queueDelete(pipe, u); err != nil && !errors.Is(err, ErrUTXONotFound) {
			return err
		}
	}
	_, err = pipe.Exec(r.ctx)
	return err
}
