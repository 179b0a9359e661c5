package model

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/R3kki/scroogecoin/metrics"
	"github.com/minio/sha256-simd"
	"golang.org/x/crypto/ripemd160"
)

// NewKeyPair returns an Ed25519 private key (64 bytes) and public key (32 bytes)
func NewKeyPair() (ed25519.PrivateKey, ed25519.PublicKey) {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	return priv, pub
}

// Recover private from hex seed
func PrivFromSeedHex(seedHex string) (ed25519.PrivateKey, error) {
	b, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(b) != ed25519.SeedSize {
		return nil, fmt.Errorf("invalid seed length: %d", len(b))
	}
	return ed25519.NewKeyFromSeed(b), nil
}

// HashPubKey = SHA256(pubkey) then RIPEMD160 (like Bitcoin)
func HashPubKey(pubkey []byte) []byte {
	sha := sha256.Sum256(pubkey)
	rip := ripemd160.New()
	_, _ = rip.Write(sha[:])
	return rip.Sum(nil)
}

// AddressFromPub is the hex HASH160 of a public key. Used for indexing and
// logs only; ownership is always checked against the full key.
func AddressFromPub(pub []byte) string {
	return hex.EncodeToString(HashPubKey(pub))
}

// VerifySignature reports whether sig is a valid ed25519 signature of msg by
// pub. Malformed keys or signatures yield false.
func VerifySignature(pub []byte, msg []byte, sig []byte) (ok bool) {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.TxVerifySigDuration, start)

	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}

	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}

// SignInput signs input inIdx with priv and refreshes the Txid.
func (t *Transaction) SignInput(priv ed25519.PrivateKey, inIdx int) error {
	if len(priv) != ed25519.PrivateKeySize {
		return fmt.Errorf("invalid private key length: %d", len(priv))
	}

	raw, err := t.RawDataToSign(inIdx)
	if err != nil {
		return err
	}

	t.Inputs[inIdx].Signature = ed25519.Sign(priv, raw)
	t.Finalize()
	return nil
}
