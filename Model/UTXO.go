package model

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/R3kki/scroogecoin/helper"
	badger "github.com/dgraph-io/badger/v4"
)

// UTXO identifies one output: the producing transaction and the output index.
type UTXO struct {
	Txid  Hash   `json:"txid"`
	Index uint32 `json:"index"`
}

func (u UTXO) String() string {
	return fmt.Sprintf("%s:%d", u.Txid, u.Index)
}

func utxoKey(u UTXO) []byte {
	return []byte(fmt.Sprintf("utxo:%s:%d", u.Txid, u.Index))
}

func parseUTXOKey(key []byte) (UTXO, error) {
	txid, idx, err := helper.ParseUTXOKey(key)
	if err != nil {
		return UTXO{}, err
	}
	h, err := HashFromHex(txid)
	if err != nil {
		return UTXO{}, err
	}
	return UTXO{Txid: h, Index: idx}, nil
}

func addrKey(address string, u UTXO) []byte {
	return []byte(fmt.Sprintf("addr:%s:%s:%d", address, u.Txid, u.Index))
}

func serializeOutput(out Output) []byte {
	buf := new(bytes.Buffer)

	// 1) Value int64
	binary.Write(buf, binary.LittleEndian, out.Value)

	// 2) Address length + bytes
	helper.WriteVarInt(buf, uint64(len(out.Address)))
	buf.Write(out.Address)

	return buf.Bytes()
}

func deserializeOutput(data []byte) (Output, error) {
	var out Output
	buf := bytes.NewReader(data)

	if err := binary.Read(buf, binary.LittleEndian, &out.Value); err != nil {
		return out, fmt.Errorf("read value: %w", err)
	}

	n, err := helper.ReadVarInt(buf)
	if err != nil {
		return out, fmt.Errorf("read address length: %w", err)
	}
	if n > uint64(buf.Len()) {
		return out, fmt.Errorf("address length %d exceeds remaining %d bytes", n, buf.Len())
	}

	out.Address = make([]byte, n)
	if _, err := buf.Read(out.Address); err != nil && n > 0 {
		return out, fmt.Errorf("read address: %w", err)
	}

	return out, nil
}

// BadgerUTXOSet keeps the pool in badger. Every ApplyTransaction runs in one
// badger transaction so a failed write leaves the pool untouched.
type BadgerUTXOSet struct {
	db *badger.DB
}

func NewBadgerUTXOSet(db *badger.DB) *BadgerUTXOSet {
	return &BadgerUTXOSet{db: db}
}

func (b *BadgerUTXOSet) Get(u UTXO) (Output, bool) {
	var out Output

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(utxoKey(u))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			v, err := deserializeOutput(val)
			if err != nil {
				return err
			}
			out = v
			return nil
		})
	})
	if err != nil {
		return Output{}, false
	}

	return out, true
}

func (b *BadgerUTXOSet) Contains(u UTXO) bool {
	_, ok := b.Get(u)
	return ok
}

func (b *BadgerUTXOSet) Put(u UTXO, out Output) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return putTxn(txn, u, out)
	})
}

func (b *BadgerUTXOSet) Delete(u UTXO) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return deleteTxn(txn, u)
	})
}

func (b *BadgerUTXOSet) ApplyTransaction(tx *Transaction) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, in := range tx.Inputs {
			if err := deleteTxn(txn, in.UTXO()); err != nil {
				return err
			}
		}

		for i, out := range tx.Outputs {
			if err := putTxn(txn, UTXO{Txid: tx.Txid, Index: uint32(i)}, out); err != nil {
				return err
			}
		}

		return nil
	})
}

func putTxn(txn *badger.Txn, u UTXO, out Output) error {
	// overwriting: drop the previous owner's index entry
	if err := deleteTxn(txn, u); err != nil && !errors.Is(err, ErrUTXONotFound) {
		return err
	}

	if err := txn.Set(utxoKey(u), serializeOutput(out)); err != nil {
		return err
	}

	// index by address
	if len(out.Address) > 0 {
		if err := txn.Set(addrKey(AddressFromPub(out.Address), u), []byte{}); err != nil {
			return err
		}
	}
	return nil
}

func deleteTxn(txn *badger.Txn, u UTXO) error {
	key := utxoKey(u)

	// read current value first to know address (if any)
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", ErrUTXONotFound, u)
	}
	if err != nil {
		return err
	}

	var out Output
	if err := item.Value(func(val []byte) error {
		v, e := deserializeOutput(val)
		out = v
		return e
	}); err != nil {
		return err
	}

	if err := txn.Delete(key); err != nil {
		return err
	}
	if len(out.Address) > 0 {
		return txn.Delete(addrKey(AddressFromPub(out.Address), u))
	}
	return nil
}

func (b *BadgerUTXOSet) AllUTXO() ([]UTXO, error) {
	var res []UTXO

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("utxo:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			u, err := parseUTXOKey(it.Item().Key())
			if err != nil {
				return err
			}
			res = append(res, u)
		}
		return nil
	})

	return res, err
}

func (b *BadgerUTXOSet) Len() int {
	all, err := b.AllUTXO()
	if err != nil {
		return 0
	}
	return len(all)
}

// FindUTXOsByAddress scans the address index.
func (b *BadgerUTXOSet) FindUTXOsByAddress(addr string) []UTXO {
	prefix := []byte("addr:" + addr + ":")

	var res []UTXO

	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			// key format: addr:<addr>:<txid>:<index>
			key := it.Item().Key()
			u, err := parseUTXOKey(append([]byte("utxo"), key[len(prefix)-1:]...))
			if err != nil {
				continue
			}
			res = append(res, u)
		}
		return nil
	})

	return res
}

// Flush drops every key in the DB.
func (b *BadgerUTXOSet) Flush() error {
	return b.db.DropAll()
}

func (b *BadgerUTXOSet) Close() error {
	return b.db.Close()
}
