package model

import (
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBadgerSet(t *testing.T) *BadgerUTXOSet {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)

	s := NewBadgerUTXOSet(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOutputBinarySerialization(t *testing.T) {
	original := Output{Value: -42, Address: []byte("some public key")}

	decoded, err := deserializeOutput(serializeOutput(original))
	require.NoError(t, err)
	assert.True(t, original.Equal(decoded))

	empty, err := deserializeOutput(serializeOutput(Output{Value: 9}))
	require.NoError(t, err)
	assert.Equal(t, int64(9), empty.Value)
	assert.Empty(t, empty.Address)

	_, err = deserializeOutput([]byte{1, 2})
	require.Error(t, err)
}

func TestUTXOKeyRoundTrip(t *testing.T) {
	u := UTXO{Txid: doubleSHA256([]byte("k")), Index: 17}

	got, err := parseUTXOKey(utxoKey(u))
	require.NoError(t, err)
	assert.Equal(t, u, got)
}

func TestBadgerUTXOSet_PutGetDelete(t *testing.T) {
	s := newBadgerSet(t)
	u := UTXO{Txid: doubleSHA256([]byte("a")), Index: 0}

	require.NoError(t, s.Put(u, Output{Value: 5, Address: []byte("owner")}))
	out, ok := s.Get(u)
	require.True(t, ok)
	assert.Equal(t, int64(5), out.Value)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Delete(u))
	assert.False(t, s.Contains(u))
	require.ErrorIs(t, s.Delete(u), ErrUTXONotFound)
}

func TestBadgerUTXOSet_ApplyTransaction(t *testing.T) {
	alice, bob := newTestKey(t), newTestKey(t)
	s := newBadgerSet(t)
	u := fund(t, s, "a", 100, alice)

	tx := spend(t, alice, []UTXO{u}, Output{Value: 30, Address: bob.pub}, Output{Value: 70, Address: alice.pub})
	require.NoError(t, s.ApplyTransaction(tx))

	assert.False(t, s.Contains(u))
	all, err := s.AllUTXO()
	require.NoError(t, err)
	assert.ElementsMatch(t, []UTXO{{tx.Txid, 0}, {tx.Txid, 1}}, all)

	assert.Equal(t, []UTXO{{tx.Txid, 0}}, s.FindUTXOsByAddress(AddressFromPub(bob.pub)))
	assert.Equal(t, []UTXO{{tx.Txid, 1}}, s.FindUTXOsByAddress(AddressFromPub(alice.pub)))
}

func TestBadgerUTXOSet_ApplyTransactionIsAtomic(t *testing.T) {
	alice := newTestKey(t)
	s := newBadgerSet(t)
	u := fund(t, s, "a", 100, alice)
	ghost := UTXO{Txid: doubleSHA256([]byte("ghost")), Index: 0}

	tx := spend(t, alice, []UTXO{u, ghost}, Output{Value: 1, Address: alice.pub})
	require.ErrorIs(t, s.ApplyTransaction(tx), ErrUTXONotFound)

	assert.True(t, s.Contains(u))
	assert.Equal(t, 1, s.Len())
}

func TestBadgerUTXOSet_OverwriteKeepsIndexClean(t *testing.T) {
	alice, bob := newTestKey(t), newTestKey(t)
	s := newBadgerSet(t)
	u := fund(t, s, "a", 1, alice)

	require.NoError(t, s.Put(u, Output{Value: 2, Address: bob.pub}))

	assert.Empty(t, s.FindUTXOsByAddress(AddressFromPub(alice.pub)))
	assert.Equal(t, []UTXO{u}, s.FindUTXOsByAddress(AddressFromPub(bob.pub)))
}

func TestBadgerUTXOSet_Flush(t *testing.T) {
	alice := newTestKey(t)
	s := newBadgerSet(t)
	fund(t, s, "a", 1, alice)

	require.NoError(t, s.Flush())
	assert.Equal(t, 0, s.Len())
}
