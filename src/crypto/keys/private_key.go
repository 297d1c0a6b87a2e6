package keys

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec"
)

// PrivateKeyLen is the length of a raw secp256k1 private key.
const PrivateKeyLen = 32

// secp256k1N is the order of the curve. Valid private keys are in [1, N).
var secp256k1N, _ = new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// GenerateKey creates a new secp256k1 wallet key.
func GenerateKey() (*btcec.PrivateKey, error) {
	return btcec.NewPrivateKey(btcec.S256())
}

// DumpPrivateKey exports a private key into a 32 byte big-endian dump.
func DumpPrivateKey(priv *btcec.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	return priv.Serialize()
}

// ParsePrivateKey creates a private key from a dump produced by
// DumpPrivateKey.
func ParsePrivateKey(d []byte) (*btcec.PrivateKey, error) {
	if len(d) != PrivateKeyLen {
		return nil, fmt.Errorf("invalid length, need %d bytes", PrivateKeyLen)
	}

	k := new(big.Int).SetBytes(d)

	if k.Cmp(secp256k1N) >= 0 {
		return nil, fmt.Errorf("invalid private key, >=N")
	}

	if k.Sign() == 0 {
		return nil, fmt.Errorf("invalid private key, zero")
	}

	priv, _ := btcec.PrivKeyFromBytes(btcec.S256(), d)
	return priv, nil
}

// PrivateKeyHex returns the hexadecimal representation of a raw private key as
// returned by DumpPrivateKey
func PrivateKeyHex(key *btcec.PrivateKey) string {
	return hex.EncodeToString(DumpPrivateKey(key))
}
