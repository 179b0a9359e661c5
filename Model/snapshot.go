package model

import "fmt"

type SnapshotEntry struct {
	UTXO
	Output
}

// Snapshot is a plain listing of a pool, used to seed the initial pool and to
// dump the pool after an epoch.
type Snapshot struct {
	UTXOs []SnapshotEntry `json:"utxos"`
}

func TakeSnapshot(p UTXOProvider) (*Snapshot, error) {
	all, err := p.AllUTXO()
	if err != nil {
		return nil, err
	}

	s := &Snapshot{UTXOs: make([]SnapshotEntry, 0, len(all))}
	for _, u := range all {
		out, ok := p.Get(u)
		if !ok {
			return nil, fmt.Errorf("utxo %s vanished while taking snapshot", u)
		}
		s.UTXOs = append(s.UTXOs, SnapshotEntry{UTXO: u, Output: out.Clone()})
	}
	return s, nil
}

func (s *Snapshot) Restore(dst UTXOProvider) error {
	for _, e := range s.UTXOs {
		if err := dst.Put(e.UTXO, e.Output.Clone()); err != nil {
			return fmt.Errorf("restore utxo %s: %w", e.UTXO, err)
		}
	}
	return nil
}

// ToUTXOSet loads the snapshot into a fresh in-memory pool.
func (s *Snapshot) ToUTXOSet() *UTXOSet {
	set := NewUTXOSet()
	_ = s.Restore(set)
	return set
}
