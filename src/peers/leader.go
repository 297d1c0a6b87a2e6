package peers

import (
	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

// Hash64 is the hash used to pick a leader: XXH64 with a zero seed. Every node
// of the network must compute exactly this function, so it must not change
// without a coordinated upgrade.
func Hash64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// LeaderForActivePeers returns the member at index Hash64(hashKey) mod Len().
// It is meant to be called on the result of ActivePeers. All nodes holding the
// same ordered set agree on the leader for a given key without exchanging
// messages.
func (peerSet *PeerSet) LeaderForActivePeers(hashKey []byte) (*Peer, error) {
	n := uint64(len(peerSet.Peers))
	if n == 0 {
		return nil, PeerSetErr{op: "LeaderForActivePeers", errType: EmptySet}
	}

	index := Hash64(hashKey) % n

	return peerSet.Peers[index], nil
}

// AddressIsLeader reports whether the member at netAddr is the leader for
// hashKey. Any error is logged and reported as false: callers treat "unknown"
// the same as "not the leader".
func (peerSet *PeerSet) AddressIsLeader(hashKey []byte, netAddr string) bool {
	leader, err := peerSet.LeaderForActivePeers(hashKey)
	if err != nil {
		peerSet.logger.WithFields(logrus.Fields{
			"addr":  netAddr,
			"error": err,
		}).Warn("Cannot determine leader")
		return false
	}
	return leader.NetAddr == netAddr
}
