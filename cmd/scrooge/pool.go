package main

import (
	"fmt"
	"os"

	model "github.com/R3kki/scroogecoin/Model"
	"github.com/R3kki/scroogecoin/config"
	"github.com/R3kki/scroogecoin/events"
	"github.com/R3kki/scroogecoin/storage"
)

// openWorkingPool returns an empty pool on the configured backend.
func openWorkingPool(cfg config.PoolConfig) (model.UTXOProvider, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return model.NewUTXOSet(), nil

	case config.BackendBadger:
		db, err := storage.OpenBadger(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}
		pool := model.NewBadgerUTXOSet(db)
		if err := pool.Flush(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("flush badger pool: %w", err)
		}
		return pool, nil

	case config.BackendRedis:
		pool := model.NewRedisUTXOSet(cfg.RedisAddr)
		if err := pool.Ping(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("connect redis at %s: %w", cfg.RedisAddr, err)
		}
		if err := pool.Flush(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("flush redis pool: %w", err)
		}
		return pool, nil

	default:
		return nil, fmt.Errorf("unknown pool backend %q", cfg.Backend)
	}
}

func readJSONFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := events.Decode(f, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func loadSnapshot(path string) (*model.Snapshot, error) {
	snap := &model.Snapshot{}
	if path == "" {
		return snap, nil
	}
	if err := readJSONFile(path, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func writeJSONFile(path string, v interface{}) error {
	raw, err := events.MarshalIndent(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}
