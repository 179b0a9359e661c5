package model

import (
	"errors"
	"fmt"
)

// ErrUTXONotFound is returned when deleting or spending an absent output.
var ErrUTXONotFound = errors.New("utxo not found")

// UTXOReader is the read-only view the validator needs.
type UTXOReader interface {
	Contains(u UTXO) bool
	Get(u UTXO) (Output, bool)
}

// UTXOProvider is a mutable pool of unspent outputs.
type UTXOProvider interface {
	UTXOReader

	Put(u UTXO, out Output) error
	Delete(u UTXO) error

	// ApplyTransaction removes every output tx spends and adds every output
	// tx creates, keyed (tx.Txid, i). Either all of it happens or none.
	ApplyTransaction(tx *Transaction) error

	AllUTXO() ([]UTXO, error)
	Len() int
	Close() error
}

// CopyUTXOs puts a deep copy of every entry of src into dst.
func CopyUTXOs(dst UTXOProvider, src UTXOProvider) error {
	all, err := src.AllUTXO()
	if err != nil {
		return fmt.Errorf("enumerate source pool: %w", err)
	}

	for _, u := range all {
		out, ok := src.Get(u)
		if !ok {
			return fmt.Errorf("utxo %s vanished while copying", u)
		}
		if err := dst.Put(u, out.Clone()); err != nil {
			return fmt.Errorf("copy utxo %s: %w", u, err)
		}
	}

	return nil
}
