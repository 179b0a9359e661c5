package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUTXOSet_PutGetDelete(t *testing.T) {
	s := NewUTXOSet()
	u := UTXO{Txid: doubleSHA256([]byte("a")), Index: 1}

	assert.False(t, s.Contains(u))
	require.NoError(t, s.Put(u, Output{Value: 7, Address: []byte("k")}))

	out, ok := s.Get(u)
	require.True(t, ok)
	assert.Equal(t, int64(7), out.Value)

	require.NoError(t, s.Delete(u))
	assert.False(t, s.Contains(u))
	require.ErrorIs(t, s.Delete(u), ErrUTXONotFound)
}

func TestUTXOSet_CloneIsIndependent(t *testing.T) {
	alice := newTestKey(t)
	s := NewUTXOSet()
	u := fund(t, s, "a", 10, alice)

	c := s.Clone()
	require.NoError(t, c.Delete(u))
	c2 := UTXO{Txid: doubleSHA256([]byte("c")), Index: 0}
	require.NoError(t, c.Put(c2, Output{Value: 1, Address: alice.pub}))

	assert.True(t, s.Contains(u))
	assert.False(t, s.Contains(c2))
	assert.Equal(t, int64(10), s.Balance(AddressFromPub(alice.pub)))
	assert.Equal(t, int64(1), c.Balance(AddressFromPub(alice.pub)))
}

func TestCopyUTXOs_DeepCopiesAddresses(t *testing.T) {
	src := NewUTXOSet()
	u := UTXO{Txid: doubleSHA256([]byte("a")), Index: 0}
	addr := []byte("owner")
	require.NoError(t, src.Put(u, Output{Value: 3, Address: addr}))

	dst := NewUTXOSet()
	require.NoError(t, CopyUTXOs(dst, src))

	addr[0] = 'X'
	out, ok := dst.Get(u)
	require.True(t, ok)
	assert.Equal(t, []byte("owner"), out.Address)
}

func TestUTXOSet_ApplyTransaction(t *testing.T) {
	alice, bob := newTestKey(t), newTestKey(t)
	s := NewUTXOSet()
	u := fund(t, s, "a", 100, alice)

	tx := spend(t, alice, []UTXO{u}, Output{Value: 60, Address: bob.pub}, Output{Value: 40, Address: alice.pub})
	require.NoError(t, s.ApplyTransaction(tx))

	assert.False(t, s.Contains(u))
	assert.Equal(t, 2, s.Len())
	for i, want := range tx.Outputs {
		got, ok := s.Get(UTXO{Txid: tx.Txid, Index: uint32(i)})
		require.True(t, ok)
		assert.True(t, want.Equal(got))
	}

	assert.Equal(t, int64(60), s.Balance(AddressFromPub(bob.pub)))
	assert.Equal(t, []UTXO{{Txid: tx.Txid, Index: 1}}, s.FindUTXOsByAddress(AddressFromPub(alice.pub)))
}

func TestUTXOSet_ApplyTransactionIsAtomic(t *testing.T) {
	alice := newTestKey(t)
	s := NewUTXOSet()
	u := fund(t, s, "a", 100, alice)
	ghost := UTXO{Txid: doubleSHA256([]byte("ghost")), Index: 0}

	tx := spend(t, alice, []UTXO{u, ghost}, Output{Value: 1, Address: alice.pub})
	require.ErrorIs(t, s.ApplyTransaction(tx), ErrUTXONotFound)

	assert.True(t, s.Contains(u))
	assert.Equal(t, 1, s.Len())
}

func TestUTXOSet_AllUTXOSorted(t *testing.T) {
	s := NewUTXOSet()
	h := doubleSHA256([]byte("a"))
	for _, idx := range []uint32{3, 0, 2} {
		require.NoError(t, s.Put(UTXO{Txid: h, Index: idx}, Output{Value: 1}))
	}

	all, err := s.AllUTXO()
	require.NoError(t, err)
	assert.Equal(t, []UTXO{{h, 0}, {h, 2}, {h, 3}}, all)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	alice := newTestKey(t)
	s := NewUTXOSet()
	fund(t, s, "a", 5, alice)
	fund(t, s, "b", 6, alice)

	snap, err := TakeSnapshot(s)
	require.NoError(t, err)
	require.Len(t, snap.UTXOs, 2)

	restored := snap.ToUTXOSet()
	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, int64(11), restored.Balance(AddressFromPub(alice.pub)))
}

func TestUTXOSet_DoesNotAliasOutputs(t *testing.T) {
	s := NewUTXOSet()

	tx := NewTransaction()
	tx.AddOutput(5, []byte("owner"))
	tx.Finalize()
	require.NoError(t, s.ApplyTransaction(tx))
	u := UTXO{Txid: tx.Txid, Index: 0}

	tx.Outputs[0].Address[0] = 'X'
	out, ok := s.Get(u)
	require.True(t, ok)
	assert.Equal(t, []byte("owner"), out.Address)

	out.Address[0] = 'Y'
	again, _ := s.Get(u)
	assert.Equal(t, []byte("owner"), again.Address)
}

func TestUTXOSet_ApplyOverwriteKeepsIndexClean(t *testing.T) {
	alice, bob := newTestKey(t), newTestKey(t)
	s := NewUTXOSet()

	tx := NewTransaction()
	tx.AddOutput(0, alice.pub)
	tx.Finalize()
	u := UTXO{Txid: tx.Txid, Index: 0}
	require.NoError(t, s.Put(u, Output{Value: 0, Address: bob.pub}))

	require.NoError(t, s.ApplyTransaction(tx))
	assert.Empty(t, s.FindUTXOsByAddress(AddressFromPub(bob.pub)))
	assert.Equal(t, []UTXO{u}, s.FindUTXOsByAddress(AddressFromPub(alice.pub)))
}
