package helper

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

func WriteVarInt(buf *bytes.Buffer, n uint64) {
	if n < 0xfd {
		buf.WriteByte(byte(n))
	} else if n <= 0xffff {
		buf.WriteByte(0xfd)
		binary.Write(buf, binary.LittleEndian, uint16(n))
	} else if n <= 0xffffffff {
		buf.WriteByte(0xfe)
		binary.Write(buf, binary.LittleEndian, uint32(n))
	} else {
		buf.WriteByte(0xff)
		binary.Write(buf, binary.LittleEndian, uint64(n))
	}
}

// ReadVarInt is the inverse of WriteVarInt.
func ReadVarInt(r *bytes.Reader) (uint64, error) {
	prefix, err := r.ReadByte()
	if err != nil {
		return 0, err
	}

	switch prefix {
	case 0xfd:
		var v uint16
		err = binary.Read(r, binary.LittleEndian, &v)
		return uint64(v), err
	case 0xfe:
		var v uint32
		err = binary.Read(r, binary.LittleEndian, &v)
		return uint64(v), err
	case 0xff:
		var v uint64
		err = binary.Read(r, binary.LittleEndian, &v)
		return v, err
	default:
		return uint64(prefix), nil
	}
}

func HexToBytesFixed32(hexStr string) ([]byte, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, err
	}
	if len(raw) > 32 {
		return nil, errors.New("txid too long")
	}
	// pad left with zeros
	padded := make([]byte, 32)
	copy(padded[32-len(raw):], raw)
	return padded, nil
}

// ParseUTXOKey splits "<prefix>:<txid>:<index>".
func ParseUTXOKey(b []byte) (string, uint32, error) {
	parts := strings.Split(string(b), ":")
	if len(parts) != 3 {
		return "", 0, fmt.Errorf("invalid utxo key %q", b)
	}

	idx, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid utxo key %q: %w", b, err)
	}
	return parts[1], uint32(idx), nil
}
