package helper

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarIntRoundTrip(t *testing.T) {
	for _, n := range []uint64{0, 1, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000} {
		buf := new(bytes.Buffer)
		WriteVarInt(buf, n)

		got, err := ReadVarInt(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}

	_, err := ReadVarInt(bytes.NewReader(nil))
	require.Error(t, err)
	_, err = ReadVarInt(bytes.NewReader([]byte{0xfd, 0x01}))
	require.Error(t, err)
}

func TestHexToBytesFixed32(t *testing.T) {
	b, err := HexToBytesFixed32("0a0b")
	require.NoError(t, err)
	require.Len(t, b, 32)
	assert.Equal(t, []byte{0x0a, 0x0b}, b[30:])

	_, err = HexToBytesFixed32("xyz")
	require.Error(t, err)
	_, err = HexToBytesFixed32(string(bytes.Repeat([]byte("00"), 33)))
	require.Error(t, err)
}

func TestParseUTXOKey(t *testing.T) {
	txid, idx, err := ParseUTXOKey([]byte("utxo:abcd:7"))
	require.NoError(t, err)
	assert.Equal(t, "abcd", txid)
	assert.Equal(t, uint32(7), idx)

	_, _, err = ParseUTXOKey([]byte("utxo:abcd"))
	require.Error(t, err)
	_, _, err = ParseUTXOKey([]byte("utxo:abcd:-1"))
	require.Error(t, err)
}
