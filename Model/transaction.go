package model

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/R3kki/scroogecoin/helper"
	"github.com/minio/sha256-simd"
)

// Hash is a double SHA-256 digest.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := HashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HashFromHex parses a hex txid, left padding short values to 32 bytes.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	raw, err := helper.HexToBytesFixed32(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	copy(h[:], raw)
	return h, nil
}

func doubleSHA256(b []byte) Hash {
	h1 := sha256.Sum256(b)
	return Hash(sha256.Sum256(h1[:]))
}

type Transaction struct {
	Version uint32   `json:"version"`
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`

	Txid Hash `json:"txid"`
}

type Input struct {
	PrevTxid    Hash   `json:"prevTxid"`    // transaction that produced the output
	OutputIndex uint32 `json:"outputIndex"` // index of that output
	Signature   []byte `json:"signature"`   // ed25519 signature over RawDataToSign(position)
}

type Output struct {
	Value   int64  `json:"value"`   // minor units
	Address []byte `json:"address"` // recipient ed25519 public key
}

// UTXO returns the identifier of the output this input spends.
func (in Input) UTXO() UTXO {
	return UTXO{Txid: in.PrevTxid, Index: in.OutputIndex}
}

// Clone returns an output that shares no memory with o.
func (o Output) Clone() Output {
	addr := make([]byte, len(o.Address))
	copy(addr, o.Address)
	return Output{Value: o.Value, Address: addr}
}

func (o Output) Equal(other Output) bool {
	return o.Value == other.Value && bytes.Equal(o.Address, other.Address)
}

func NewTransaction() *Transaction {
	return &Transaction{Version: 1}
}

func (t *Transaction) AddInput(prevTxid Hash, outputIndex uint32) {
	t.Inputs = append(t.Inputs, Input{PrevTxid: prevTxid, OutputIndex: outputIndex})
}

func (t *Transaction) AddOutput(value int64, address []byte) {
	t.Outputs = append(t.Outputs, Output{Value: value, Address: address})
}

// Finalize recomputes Txid. Call it after the last field change.
func (t *Transaction) Finalize() {
	t.Txid = t.ComputeTxID()
}

func (t *Transaction) ComputeTxID() Hash {
	return doubleSHA256(t.Serialize())
}

func (t *Transaction) Size() int {
	return len(t.Serialize())
}

// Serialize encodes every field including signatures. The Txid is derived
// from this encoding.
func (t *Transaction) Serialize() []byte {
	buf := new(bytes.Buffer)

	binary.Write(buf, binary.LittleEndian, t.Version)

	helper.WriteVarInt(buf, uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf.Write(in.PrevTxid[:])
		binary.Write(buf, binary.LittleEndian, in.OutputIndex)

		helper.WriteVarInt(buf, uint64(len(in.Signature)))
		buf.Write(in.Signature)
	}

	writeOutputs(buf, t.Outputs)

	return buf.Bytes()
}

// RawDataToSign returns the bytes the owner of the output spent by input
// inIdx signs. Signatures are excluded; the input position is committed so a
// signature cannot be replayed at another position of the same transaction.
func (t *Transaction) RawDataToSign(inIdx int) ([]byte, error) {
	if inIdx < 0 || inIdx >= len(t.Inputs) {
		return nil, fmt.Errorf("input index %d out of range [0,%d)", inIdx, len(t.Inputs))
	}

	buf := new(bytes.Buffer)

	binary.Write(buf, binary.LittleEndian, t.Version)

	helper.WriteVarInt(buf, uint64(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf.Write(in.PrevTxid[:])
		binary.Write(buf, binary.LittleEndian, in.OutputIndex)
	}

	binary.Write(buf, binary.LittleEndian, uint32(inIdx))

	writeOutputs(buf, t.Outputs)

	return buf.Bytes(), nil
}

func writeOutputs(buf *bytes.Buffer, outs []Output) {
	helper.WriteVarInt(buf, uint64(len(outs)))
	for _, out := range outs {
		binary.Write(buf, binary.LittleEndian, uint64(out.Value))

		helper.WriteVarInt(buf, uint64(len(out.Address)))
		buf.Write(out.Address)
	}
}
