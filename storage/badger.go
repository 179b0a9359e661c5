package storage

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// OpenBadger opens a badger DB at path. An empty path keeps everything in
// memory.
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil) // quiet
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}
