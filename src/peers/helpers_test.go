package peers

import (
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec"
)

// testPubKey returns a deterministic compressed secp256k1 key for i.
func testPubKey(i int) *btcec.PublicKey {
	seed := make([]byte, 32)
	seed[30] = byte((i + 1) >> 8)
	seed[31] = byte(i + 1)
	_, pub := btcec.PrivKeyFromBytes(btcec.S256(), seed)
	return pub
}

func testPeerID(t testing.TB, i int) PeerID {
	id, err := ParsePeerID(testPubKey(i).SerializeCompressed())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	return id
}

// testPeers builds n active peers in realm 1, with key hashes 11, 22, 33...
func testPeers(t testing.TB, n int) []*Peer {
	res := make([]*Peer, n)
	for i := 0; i < n; i++ {
		res[i] = NewPeer(
			fmt.Sprintf("10.0.0.%d:80", i+1),
			testPeerID(t, i),
			uint64(11*(i+1)),
			1,
		)
	}
	return res
}
