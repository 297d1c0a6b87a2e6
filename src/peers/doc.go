// Package peers models the validator roster of a realm and elects leaders
// from it.
//
// A Peer is built from a descriptor published by the on-chain registry. Its
// identity, a PeerID, is the compressed secp256k1 wallet key of the validator.
// A descriptor without a key gets an identity derived from its registry index,
// and a descriptor whose key was zeroed gets NotAssigned. A key that is present
// but malformed is fatal to the ingestion of the whole roster, since a peer
// with a garbled identity would make this node disagree with the rest of the
// network.
//
// A PeerSet is an ordered, immutable list of peers. Queries never modify a
// PeerSet; sub-sets such as ActivePeers are new PeerSets. Hash and PeerGroupID
// are fingerprints computed at construction, which lets callers detect a
// membership change with a single comparison.
//
// Leader election is round-free: the leader for a key is the member at index
// Hash64(key) mod Len(). It only works if every node holds the same set in the
// same order, so sets handed to the election should be built with
// NewCanonicalPeerSet and an agreed SortKey.
package peers
