package model

import (
	"fmt"
	"sort"
	"sync"
)

type UTXOSet struct {
	mu sync.RWMutex

	// primary storage
	utxos map[UTXO]Output

	// secondary index: address -> set(UTXO)
	addrIndex map[string]map[UTXO]struct{}
}

func NewUTXOSet() *UTXOSet {
	return &UTXOSet{
		utxos:     make(map[UTXO]Output),
		addrIndex: make(map[string]map[UTXO]struct{}),
	}
}

// Clone returns an independent deep copy.
func (s *UTXOSet) Clone() *UTXOSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := &UTXOSet{
		utxos:     make(map[UTXO]Output, len(s.utxos)),
		addrIndex: make(map[string]map[UTXO]struct{}, len(s.addrIndex)),
	}
	for u, out := range s.utxos {
		c.utxos[u] = out.Clone()
	}
	for addr, set := range s.addrIndex {
		cs := make(map[UTXO]struct{}, len(set))
		for u := range set {
			cs[u] = struct{}{}
		}
		c.addrIndex[addr] = cs
	}
	return c
}

func (s *UTXOSet) Contains(u UTXO) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.utxos[u]
	return ok
}

func (s *UTXOSet) Get(u UTXO) (Output, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out, ok := s.utxos[u]
	if !ok {
		return Output{}, false
	}
	return out.Clone(), true
}

// Put inserts or replaces the output stored under u.
func (s *UTXOSet) Put(u UTXO, out Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(u, out)
	return nil
}

// Delete removes u. Deleting an absent UTXO is an error.
func (s *UTXOSet) Delete(u UTXO) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.utxos[u]; !exists {
		return fmt.Errorf("%w: %s", ErrUTXONotFound, u)
	}
	s.remove(u)
	return nil
}

func (s *UTXOSet) ApplyTransaction(tx *Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// check first so a missing input changes nothing
	for _, in := range tx.Inputs {
		if _, ok := s.utxos[in.UTXO()]; !ok {
			return fmt.Errorf("%w: %s", ErrUTXONotFound, in.UTXO())
		}
	}

	for _, in := range tx.Inputs {
		s.remove(in.UTXO())
	}
	for i, out := range tx.Outputs {
		s.put(UTXO{Txid: tx.Txid, Index: uint32(i)}, out)
	}
	return nil
}

func (s *UTXOSet) put(u UTXO, out Output) {
	if old, ok := s.utxos[u]; ok {
		s.unindex(u, old)
	}
	s.utxos[u] = out.Clone()

	if len(out.Address) == 0 {
		return
	}
	addr := AddressFromPub(out.Address)
	if _, ok := s.addrIndex[addr]; !ok {
		s.addrIndex[addr] = make(map[UTXO]struct{})
	}
	s.addrIndex[addr][u] = struct{}{}
}

func (s *UTXOSet) remove(u UTXO) {
	out, ok := s.utxos[u]
	if !ok {
		return
	}
	delete(s.utxos, u)
	s.unindex(u, out)
}

func (s *UTXOSet) unindex(u UTXO, out Output) {
	if len(out.Address) == 0 {
		return
	}
	addr := AddressFromPub(out.Address)
	if set, ok := s.addrIndex[addr]; ok {
		delete(set, u)
		if len(set) == 0 {
			delete(s.addrIndex, addr)
		}
	}
}

// AllUTXO returns every identifier, sorted by txid then index.
func (s *UTXOSet) AllUTXO() ([]UTXO, error) {
	s.mu.RLock()
	res := make([]UTXO, 0, len(s.utxos))
	for u := range s.utxos {
		res = append(res, u)
	}
	s.mu.RUnlock()

	sortUTXOs(res)
	return res, nil
}

func (s *UTXOSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.utxos)
}

func (s *UTXOSet) FindUTXOsByAddress(addr string) []UTXO {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys, ok := s.addrIndex[addr]
	if !ok {
		return nil
	}

	res := make([]UTXO, 0, len(keys))
	for u := range keys {
		res = append(res, u)
	}
	sortUTXOs(res)
	return res
}

// Balance sums the values held by addr.
func (s *UTXOSet) Balance(addr string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for u := range s.addrIndex[addr] {
		total += s.utxos[u].Value
	}
	return total
}

func (s *UTXOSet) Close() error {
	return nil
}

func sortUTXOs(us []UTXO) {
	sort.Slice(us, func(i, j int) bool {
		if us[i].Txid != us[j].Txid {
			return string(us[i].Txid[:]) < string(us[j].Txid[:])
		}
		return us[i].Index < us[j].Index
	})
}
