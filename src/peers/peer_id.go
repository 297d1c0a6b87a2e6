package peers

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcec"
	"github.com/mosaicnetworks/rollcall/src/common"
)

// PeerIDLen is the length of a PeerID: a compressed secp256k1 public key.
const PeerIDLen = 33

// PeerID identifies a peer within a PeerSet. It is the compressed form of the
// peer's wallet public key, or a placeholder derived from the registry index
// when the registry did not publish a key.
type PeerID [PeerIDLen]byte

// NotAssigned is the reserved PeerID of a peer whose identity has been
// explicitly cleared by the registry.
var NotAssigned = PeerID{}

// PeerIDFromIndex encodes a registry position into a PeerID. The leading byte
// is left at zero, which no secp256k1 compressed key can have, so an encoded
// index never collides with a real key.
func PeerIDFromIndex(index uint64) PeerID {
	var id PeerID
	binary.BigEndian.PutUint64(id[PeerIDLen-8:], index)
	return id
}

// ParsePeerID parses a serialized secp256k1 public key (33-byte compressed or
// 65-byte uncompressed) into a PeerID.
func ParsePeerID(pubKey []byte) (PeerID, error) {
	var id PeerID

	pub, err := btcec.ParsePubKey(pubKey, btcec.S256())
	if err != nil {
		return id, err
	}

	copy(id[:], pub.SerializeCompressed())

	return id, nil
}

// IsAssigned is false only for NotAssigned.
func (id PeerID) IsAssigned() bool {
	return id != NotAssigned
}

// Bytes returns a copy of the underlying bytes.
func (id PeerID) Bytes() []byte {
	b := make([]byte, PeerIDLen)
	copy(b, id[:])
	return b
}

// String returns the lower-case hexadecimal form of the id.
func (id PeerID) String() string {
	return hex.EncodeToString(id[:])
}

// Hex returns the id in the 0X-prefixed upper-case form used in logs.
func (id PeerID) Hex() string {
	return common.EncodeToString(id[:])
}

// MarshalText implements encoding.TextMarshaler.
func (id PeerID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts the output of
// String and Hex.
func (id *PeerID) UnmarshalText(text []byte) error {
	b, err := common.DecodeFromString(string(text))
	if err != nil {
		return err
	}
	if len(b) != PeerIDLen {
		return fmt.Errorf("peer id must be %d bytes, got %d", PeerIDLen, len(b))
	}
	copy(id[:], b)
	return nil
}

// IdentityError is returned when a registry descriptor carries a wallet
// public key that cannot be parsed. It is not recoverable: a peer built from a
// garbled key would get an identity that other nodes do not agree on.
type IdentityError struct {
	Index   uint64
	Addr    string
	KeyLen  int
	Wrapped error
}

// ErrIndexOverflow is wrapped by the IdentityError of a keyless descriptor
// whose index cannot be encoded: index+1 would wrap to NotAssigned.
var ErrIndexOverflow = errors.New("index+1 overflows into NotAssigned")

// Error implements the error interface
func (e *IdentityError) Error() string {
	if e.KeyLen == 0 {
		return fmt.Sprintf("cannot derive peer id for peer %d (%s): %v",
			e.Index, e.Addr, e.Wrapped)
	}
	return fmt.Sprintf("malformed wallet public key for peer %d (%s), %d bytes: %v",
		e.Index, e.Addr, e.KeyLen, e.Wrapped)
}

// Unwrap returns the parser error.
func (e *IdentityError) Unwrap() error {
	return e.Wrapped
}

func indexIdentity(index uint64) (PeerID, error) {
	if index == math.MaxUint64 {
		return NotAssigned, ErrIndexOverflow
	}
	return PeerIDFromIndex(index + 1), nil
}
