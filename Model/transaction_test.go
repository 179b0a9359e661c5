package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawDataToSign_ExcludesSignatures(t *testing.T) {
	alice := newTestKey(t)
	u1 := UTXO{Txid: doubleSHA256([]byte("a")), Index: 0}
	u2 := UTXO{Txid: doubleSHA256([]byte("b")), Index: 1}

	tx := NewTransaction()
	tx.AddInput(u1.Txid, u1.Index)
	tx.AddInput(u2.Txid, u2.Index)
	tx.AddOutput(10, alice.pub)

	before, err := tx.RawDataToSign(1)
	require.NoError(t, err)

	require.NoError(t, tx.SignInput(alice.priv, 0))
	require.NoError(t, tx.SignInput(alice.priv, 1))

	after, err := tx.RawDataToSign(1)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	other, err := tx.RawDataToSign(0)
	require.NoError(t, err)
	assert.NotEqual(t, after, other, "input position is committed")
}

func TestRawDataToSign_OutOfRange(t *testing.T) {
	tx := NewTransaction()
	tx.AddInput(Hash{}, 0)

	_, err := tx.RawDataToSign(1)
	require.Error(t, err)
	_, err = tx.RawDataToSign(-1)
	require.Error(t, err)
}

func TestComputeTxID_Deterministic(t *testing.T) {
	build := func() *Transaction {
		tx := NewTransaction()
		tx.AddInput(doubleSHA256([]byte("p")), 2)
		tx.AddOutput(5, []byte("x"))
		tx.Finalize()
		return tx
	}

	a, b := build(), build()
	assert.Equal(t, a.Txid, b.Txid)
	assert.False(t, a.Txid.IsZero())

	b.Outputs[0].Value = 6
	assert.NotEqual(t, a.Txid, b.ComputeTxID())
}

func TestComputeTxID_CoversSignatures(t *testing.T) {
	alice := newTestKey(t)
	tx := NewTransaction()
	tx.AddInput(doubleSHA256([]byte("p")), 0)
	tx.AddOutput(5, alice.pub)
	tx.Finalize()
	unsigned := tx.Txid

	require.NoError(t, tx.SignInput(alice.priv, 0))
	assert.NotEqual(t, unsigned, tx.Txid)
	assert.Equal(t, tx.ComputeTxID(), tx.Txid)
}

func TestSignInput_BadKey(t *testing.T) {
	tx := NewTransaction()
	tx.AddInput(Hash{}, 0)
	require.Error(t, tx.SignInput([]byte{1, 2, 3}, 0))
	assert.Nil(t, tx.Inputs[0].Signature)
}

func TestVerifySignature_Malformed(t *testing.T) {
	alice := newTestKey(t)
	msg := []byte("hello")

	assert.False(t, VerifySignature(nil, msg, nil))
	assert.False(t, VerifySignature(alice.pub, msg, []byte{1}))
	assert.False(t, VerifySignature([]byte{1}, msg, make([]byte, 64)))
	assert.False(t, VerifySignature(alice.pub, msg, make([]byte, 64)))
}

func TestHash_Text(t *testing.T) {
	h := doubleSHA256([]byte("x"))

	text, err := h.MarshalText()
	require.NoError(t, err)

	var back Hash
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, h, back)

	require.Error(t, back.UnmarshalText([]byte("zz")))
}

func TestPrivFromSeedHex(t *testing.T) {
	priv, err := PrivFromSeedHex("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	require.NoError(t, err)
	assert.Len(t, priv, 64)

	_, err = PrivFromSeedHex("0001")
	require.Error(t, err)
}

func TestAddressFromPub(t *testing.T) {
	alice := newTestKey(t)
	addr := AddressFromPub(alice.pub)
	assert.Len(t, addr, 40)
	assert.Equal(t, addr, AddressFromPub(alice.pub))
}
