package peers

import (
	"fmt"
	"sort"
)

// SortKey names a versioned canonical ordering of peers. Every node must build
// its PeerSet with the same SortKey for a given epoch, since leader election
// indexes into the ordered set.
type SortKey string

const (
	// SortKeyHashV1 orders peers by ascending KeyHash, then socket address.
	SortKeyHashV1 SortKey = "key-hash-asc/v1"
	// SortKeyAddressV1 orders peers by ascending socket address.
	SortKeyAddressV1 SortKey = "address-asc/v1"

	// DefaultSortKey is the ordering used when none is configured.
	DefaultSortKey = SortKeyHashV1
)

// ParseSortKey validates a SortKey read from configuration.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortKeyHashV1, SortKeyAddressV1:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Canonicalize returns a copy of peers in the order defined by key. The input
// slice is not modified.
func Canonicalize(peers []*Peer, key SortKey) ([]*Peer, error) {
	sorted := make([]*Peer, len(peers))
	copy(sorted, peers)

	switch key {
	case SortKeyHashV1:
		sort.Stable(ByKeyHash(sorted))
	case SortKeyAddressV1:
		sort.Stable(ByNetAddr(sorted))
	default:
		return nil, fmt.Errorf("unknown sort key %q", key)
	}

	return sorted, nil
}

// NewCanonicalPeerSet sorts peers with key and wraps them in a PeerSet.
func NewCanonicalPeerSet(peers []*Peer, key SortKey) (*PeerSet, error) {
	sorted, err := Canonicalize(peers, key)
	if err != nil {
		return nil, err
	}
	return NewPeerSet(sorted), nil
}

// IsCanonical reports whether the set is already in the order defined by key.
func (peerSet *PeerSet) IsCanonical(key SortKey) bool {
	switch key {
	case SortKeyHashV1:
		return sort.IsSorted(ByKeyHash(peerSet.Peers))
	case SortKeyAddressV1:
		return sort.IsSorted(ByNetAddr(peerSet.Peers))
	}
	return false
}

// ByKeyHash implements sort.Interface for Peers based on the KeyHash field,
// falling back to NetAddr.
type ByKeyHash []*Peer

func (a ByKeyHash) Len() int      { return len(a) }
func (a ByKeyHash) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a ByKeyHash) Less(i, j int) bool {
	if a[i].KeyHash != a[j].KeyHash {
		return a[i].KeyHash < a[j].KeyHash
	}
	return a[i].NetAddr < a[j].NetAddr
}

// ByNetAddr implements sort.Interface for Peers based on the NetAddr field.
type ByNetAddr []*Peer

func (a ByNetAddr) Len() int      { return len(a) }
func (a ByNetAddr) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a ByNetAddr) Less(i, j int) bool {
	return a[i].NetAddr < a[j].NetAddr
}
