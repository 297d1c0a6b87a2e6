package keys

import (
	"github.com/btcsuite/btcd/btcec"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/mosaicnetworks/rollcall/src/peers"
)

// CompressedPublicKey returns the 33 byte form of the public key published in
// the registry.
func CompressedPublicKey(priv *btcec.PrivateKey) []byte {
	return priv.PubKey().SerializeCompressed()
}

// PeerID derives the identity other peers will assign to the owner of priv.
func PeerID(priv *btcec.PrivateKey) (peers.PeerID, error) {
	return peers.ParsePeerID(CompressedPublicKey(priv))
}

// KeyHash is the default registry key hash of a wallet key: the 64-bit hash of
// its compressed form.
func KeyHash(priv *btcec.PrivateKey) uint64 {
	return peers.Hash64(CompressedPublicKey(priv))
}

// Descriptor builds the registry entry announcing the owner of priv at
// socketAddr.
func Descriptor(priv *btcec.PrivateKey, index uint64, socketAddr string, version string, realmID uint64) peers.RawDescriptor {
	return peers.RawDescriptor{
		Index:           index,
		WalletPublicKey: hexutil.Bytes(CompressedPublicKey(priv)),
		SocketAddr:      socketAddr,
		KeyHash:         KeyHash(priv),
		Version:         version,
		RealmID:         realmID,
	}
}
