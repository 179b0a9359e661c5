package model

import (
	"bytes"
	"encoding/binary"
	"sync"
	"time"
)

// Epoch records the outcome of one settlement round.
type Epoch struct {
	Height     uint64
	Timestamp  int64
	PrevHash   Hash
	MerkleRoot Hash
	Hash       Hash

	Accepted []*Transaction
	Rejected int
}

func NewEpoch(height uint64, prevHash Hash, accepted []*Transaction, rejected int) *Epoch {
	e := &Epoch{
		Height:    height,
		Timestamp: time.Now().Unix(),
		PrevHash:  prevHash,
		Accepted:  accepted,
		Rejected:  rejected,
	}
	e.MerkleRoot = ComputeMerkleRoot(accepted)
	e.Hash = e.ComputeHash()
	return e
}

func (e *Epoch) SerializeHeader() []byte {
	buf := new(bytes.Buffer)

	binary.Write(buf, binary.LittleEndian, e.Height)
	buf.Write(e.PrevHash[:])
	buf.Write(e.MerkleRoot[:])
	binary.Write(buf, binary.LittleEndian, e.Timestamp)
	binary.Write(buf, binary.LittleEndian, uint32(len(e.Accepted)))
	binary.Write(buf, binary.LittleEndian, uint32(e.Rejected))

	return buf.Bytes()
}

func (e *Epoch) ComputeHash() Hash {
	return doubleSHA256(e.SerializeHeader())
}

// Ledger is the chain of settled epochs, starting with an empty genesis epoch.
type Ledger struct {
	mu     sync.RWMutex
	Epochs []*Epoch
}

func NewLedger() *Ledger {
	genesis := NewEpoch(0, Hash{}, nil, 0)
	return &Ledger{Epochs: []*Epoch{genesis}}
}

func (l *Ledger) Tip() *Epoch {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.Epochs[len(l.Epochs)-1]
}

func (l *Ledger) Height() uint64 {
	return l.Tip().Height
}

// Append links a new epoch on top of the tip.
func (l *Ledger) Append(accepted []*Transaction, rejected int) *Epoch {
	l.mu.Lock()
	defer l.mu.Unlock()

	tip := l.Epochs[len(l.Epochs)-1]
	e := NewEpoch(tip.Height+1, tip.Hash, accepted, rejected)
	l.Epochs = append(l.Epochs, e)
	return e
}

// Verify checks hash links and merkle roots of the whole chain.
func (l *Ledger) Verify() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var prev Hash
	for i, e := range l.Epochs {
		if e.Height != uint64(i) || e.PrevHash != prev {
			return false
		}
		if e.MerkleRoot != ComputeMerkleRoot(e.Accepted) || e.Hash != e.ComputeHash() {
			return false
		}
		prev = e.Hash
	}
	return true
}
