package model

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

type testKey struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

func newTestKey(t *testing.T) testKey {
	t.Helper()
	priv, pub := NewKeyPair()
	require.Len(t, pub, ed25519.PublicKeySize)
	return testKey{priv: priv, pub: pub}
}

// fund puts one output of value owned by k under a made-up txid.
func fund(t *testing.T, pool UTXOProvider, seed string, value int64, k testKey) UTXO {
	t.Helper()
	u := UTXO{Txid: doubleSHA256([]byte(seed)), Index: 0}
	require.NoError(t, pool.Put(u, Output{Value: value, Address: k.pub}))
	return u
}

// spend builds a transaction spending ins, every input signed by k.
func spend(t *testing.T, k testKey, ins []UTXO, outs ...Output) *Transaction {
	t.Helper()
	tx := NewTransaction()
	for _, u := range ins {
		tx.AddInput(u.Txid, u.Index)
	}
	for _, o := range outs {
		tx.AddOutput(o.Value, o.Address)
	}
	for i := range tx.Inputs {
		require.NoError(t, tx.SignInput(k.priv, i))
	}
	tx.Finalize()
	return tx
}
