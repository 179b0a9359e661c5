package model

import (
	"fmt"
	"sync"
)

// Mempool holds candidate transactions for the next epoch in arrival order.
// Conflicting candidates are allowed; settlement decides between them.
type Mempool struct {
	mu sync.RWMutex

	// txid -> Transaction
	txs map[Hash]*Transaction

	// ordered txids (arrival order)
	order []Hash

	// txid -> tx size (cache)
	txSize map[Hash]int

	// total mempool size (bytes)
	totalSize int
}

func NewMempool() *Mempool {
	return &Mempool{
		txs:    make(map[Hash]*Transaction),
		order:  []Hash{},
		txSize: make(map[Hash]int),
	}
}

func (m *Mempool) GetTransaction(txid Hash) *Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.txs[txid]
}

func (m *Mempool) AddTransaction(tx *Transaction) error {
	if tx == nil {
		return fmt.Errorf("nil transaction")
	}
	// the mempool is keyed by txid, so a claimed one must match the content
	if computed := tx.ComputeTxID(); tx.Txid != computed {
		return fmt.Errorf("tx %s does not match content (computed %s)", tx.Txid, computed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.txs[tx.Txid]; ok {
		return fmt.Errorf("tx %s already exists", tx.Txid)
	}

	size := tx.Size()

	m.txs[tx.Txid] = tx
	m.txSize[tx.Txid] = size
	m.order = append(m.order, tx.Txid)
	m.totalSize += size

	return nil
}

// RemoveTransactions drops txs and compacts the arrival order.
func (m *Mempool) RemoveTransactions(txs []*Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, tx := range txs {
		if _, ok := m.txs[tx.Txid]; !ok {
			continue
		}
		delete(m.txs, tx.Txid)
		m.totalSize -= m.txSize[tx.Txid]
		delete(m.txSize, tx.Txid)
	}

	order := m.order[:0]
	for _, txid := range m.order {
		if _, ok := m.txs[txid]; ok {
			order = append(order, txid)
		}
	}
	m.order = order
}

type MempoolSnapshot struct {
	Transactions []*Transaction
	Size         int // total size of the snapshot
}

// SnapshotUntilSize returns candidates in arrival order until adding the next
// one would exceed maxBytes. The first candidate is always included so an
// oversized transaction cannot block the queue.
func (m *Mempool) SnapshotUntilSize(maxBytes int) MempoolSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var res []*Transaction
	size := 0

	for _, txid := range m.order {
		tx, ok := m.txs[txid]
		if !ok {
			continue
		}

		ts := m.txSize[txid]
		if len(res) > 0 && size+ts > maxBytes {
			break
		}

		res = append(res, tx)
		size += ts
	}

	return MempoolSnapshot{
		Transactions: res,
		Size:         size,
	}
}

func (m *Mempool) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txs)
}

func (m *Mempool) Bytes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalSize
}
