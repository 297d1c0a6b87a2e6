package peers

import (
	"encoding/binary"
	"encoding/json"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/mosaicnetworks/rollcall/src/common"
	"github.com/sirupsen/logrus"
)

// NodeDescriptor is anything that designates a node by its socket address.
type NodeDescriptor interface {
	SocketAddress() string
}

// NodeAddress is a bare socket address used as a NodeDescriptor.
type NodeAddress string

// SocketAddress implements NodeDescriptor.
func (n NodeAddress) SocketAddress() string {
	return string(n)
}

// PeerSet is an ordered, immutable collection of Peers. The order is
// significant: Hash and leader election both depend on it. Every method
// returns a new PeerSet or a scalar and none modify the receiver, so a
// PeerSet can be shared between goroutines without locking.
type PeerSet struct {
	// Peers is exported for encoding only. It must be treated as read-only:
	// the lookup tables and fingerprints are computed from it at construction
	// and are not updated if it is modified.
	Peers []*Peer `json:"peers" codec:"peers"`

	byAddress map[string]*Peer
	byID      map[PeerID]*Peer

	quorum QuorumFunc
	logger *logrus.Entry

	//computed at construction
	hash    uint64
	groupID uint64
}

/* Constructors */

// NewPeerSet creates a new PeerSet from a list of Peers. The list is kept in
// the given order; use NewCanonicalPeerSet to sort it first.
func NewPeerSet(peers []*Peer) *PeerSet {
	return newPeerSet(peers, SuperMajority, defaultLogger())
}

func newPeerSet(peers []*Peer, quorum QuorumFunc, logger *logrus.Entry) *PeerSet {
	if quorum == nil {
		quorum = SuperMajority
	}
	if logger == nil {
		logger = defaultLogger()
	}

	ordered := make([]*Peer, len(peers))
	copy(ordered, peers)

	peerSet := &PeerSet{
		Peers:     ordered,
		byAddress: make(map[string]*Peer, len(ordered)),
		byID:      make(map[PeerID]*Peer, len(ordered)),
		quorum:    quorum,
		logger:    logger,
	}

	for _, peer := range ordered {
		if _, ok := peerSet.byAddress[peer.NetAddr]; !ok {
			peerSet.byAddress[peer.NetAddr] = peer
		}
		if _, ok := peerSet.byID[peer.ID]; !ok {
			peerSet.byID[peer.ID] = peer
		}
	}

	peerSet.hash = hashPeerIDs(ordered)
	peerSet.groupID = hashKeyHashes(ordered)

	return peerSet
}

// NewPeerSetFromBytes decodes a PeerSet encoded with Marshal. The encoding
// carries no quorum function or logger: the result uses SuperMajority and
// the package logger, use WithQuorum and WithLogger to change them.
func NewPeerSetFromBytes(data []byte) (*PeerSet, error) {
	peers := []*Peer{}
	if err := common.UnmarshalCanonical(data, &peers); err != nil {
		return nil, err
	}
	return NewPeerSet(peers), nil
}

// UnmarshalJSON rebuilds the lookup tables and fingerprints of a decoded
// PeerSet. The quorum function and logger of the receiver are kept; a zero
// PeerSet gets SuperMajority and the package logger.
func (peerSet *PeerSet) UnmarshalJSON(data []byte) error {
	var aux struct {
		Peers []*Peer `json:"peers"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*peerSet = *newPeerSet(aux.Peers, peerSet.quorum, peerSet.logger)
	return nil
}

// WithLogger returns a copy of the PeerSet which logs to logger.
func (peerSet *PeerSet) WithLogger(logger *logrus.Entry) *PeerSet {
	return newPeerSet(peerSet.Peers, peerSet.quorum, logger)
}

// WithQuorum returns a copy of the PeerSet whose ThresholdForSet delegates to
// quorum.
func (peerSet *PeerSet) WithQuorum(quorum QuorumFunc) *PeerSet {
	return newPeerSet(peerSet.Peers, quorum, peerSet.logger)
}

func (peerSet *PeerSet) derive(peers []*Peer) *PeerSet {
	return newPeerSet(peers, peerSet.quorum, peerSet.logger)
}

/* Sub-sets */

// ActivePeers returns the members that have not been kicked, in order.
func (peerSet *PeerSet) ActivePeers() *PeerSet {
	active := make([]*Peer, 0, len(peerSet.Peers))
	for _, p := range peerSet.Peers {
		if !p.Kicked {
			active = append(active, p)
		}
	}
	return peerSet.derive(active)
}

// AllPeersExcept returns the set without the member at netAddr. It is a copy
// of the receiver if there is no such member.
func (peerSet *PeerSet) AllPeersExcept(netAddr string) *PeerSet {
	_, others := ExcludePeer(peerSet.Peers, netAddr)
	return peerSet.derive(others)
}

// PeersByID returns the members whose id is in ids. The result follows the
// order of the set, not the order of ids.
func (peerSet *PeerSet) PeersByID(ids []PeerID) *PeerSet {
	wanted := make(map[PeerID]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	res := []*Peer{}
	for _, p := range peerSet.Peers {
		if _, ok := wanted[p.ID]; ok {
			res = append(res, p)
		}
	}
	return peerSet.derive(res)
}

// PeersForNodeSet returns, for each node in nodes, the member with the same
// socket address. The result follows the order of nodes. Nodes that are not
// members are skipped.
func (peerSet *PeerSet) PeersForNodeSet(nodes []NodeDescriptor) *PeerSet {
	res := []*Peer{}
	for _, n := range nodes {
		if p, ok := peerSet.byAddress[n.SocketAddress()]; ok {
			res = append(res, p)
		}
	}
	return peerSet.derive(res)
}

/* Lookups */

// ContainsAddress reports whether a member listens on netAddr.
func (peerSet *PeerSet) ContainsAddress(netAddr string) bool {
	_, ok := peerSet.byAddress[netAddr]
	return ok
}

// PeerAtAddress returns the member listening on netAddr.
func (peerSet *PeerSet) PeerAtAddress(netAddr string) (*Peer, error) {
	p, ok := peerSet.byAddress[netAddr]
	if !ok {
		return nil, newNotFoundErr("PeerAtAddress", netAddr, peerSet.NetAddrs())
	}
	return p, nil
}

// PeerIDByAddress returns the id of the member listening on netAddr.
func (peerSet *PeerSet) PeerIDByAddress(netAddr string) (PeerID, error) {
	p, ok := peerSet.byAddress[netAddr]
	if !ok {
		return NotAssigned, newNotFoundErr("PeerIDByAddress", netAddr, peerSet.NetAddrs())
	}
	return p.ID, nil
}

// PeerByID returns the member with the given id.
func (peerSet *PeerSet) PeerByID(id PeerID) (*Peer, error) {
	p, ok := peerSet.byID[id]
	if !ok {
		return nil, newNotFoundErr("PeerByID", id.String(), peerSet.NetAddrs())
	}
	return p, nil
}

// RealmID returns the realm shared by the members. The realm is read from the
// first member.
func (peerSet *PeerSet) RealmID() (RealmID, error) {
	if len(peerSet.Peers) == 0 {
		return 0, PeerSetErr{op: "RealmID", errType: EmptySet}
	}

	first := peerSet.Peers[0]
	if first.RealmID == 0 {
		return 0, PeerSetErr{op: "RealmID", errType: InvalidRealmZero, key: first.NetAddr}
	}

	return first.RealmID, nil
}

/* ToSlice Methods */

// PeerIDs returns the PeerSet's slice of ids
func (peerSet *PeerSet) PeerIDs() []PeerID {
	res := make([]PeerID, 0, len(peerSet.Peers))
	for _, peer := range peerSet.Peers {
		res = append(res, peer.ID)
	}
	return res
}

// PeerKeys returns the PeerSet's slice of key hashes
func (peerSet *PeerSet) PeerKeys() []uint64 {
	res := make([]uint64, 0, len(peerSet.Peers))
	for _, peer := range peerSet.Peers {
		res = append(res, peer.KeyHash)
	}
	return res
}

// NetAddrs returns the PeerSet's slice of socket addresses
func (peerSet *PeerSet) NetAddrs() []string {
	res := make([]string, 0, len(peerSet.Peers))
	for _, peer := range peerSet.Peers {
		res = append(res, peer.NetAddr)
	}
	return res
}

// DebugAddresses joins the DebugAddress of every member with commas.
func (peerSet *PeerSet) DebugAddresses() string {
	res := make([]string, 0, len(peerSet.Peers))
	for _, peer := range peerSet.Peers {
		res = append(res, peer.DebugAddress())
	}
	return strings.Join(res, ", ")
}

/* Utilities */

// Len returns the number of Peers in the PeerSet
func (peerSet *PeerSet) Len() int {
	return len(peerSet.Peers)
}

// IsEmpty is true when the PeerSet has no members
func (peerSet *PeerSet) IsEmpty() bool {
	return len(peerSet.Peers) == 0
}

// Hash fingerprints the sequence of peer ids, in order. Two sets holding the
// same ids in a different order have different hashes. Other fields, such as
// Kicked and NetAddr, do not contribute.
func (peerSet *PeerSet) Hash() uint64 {
	return peerSet.hash
}

// PeerGroupID fingerprints the sequence of key hashes, in order. Unlike Hash it
// does not change when peer ids are reassigned.
func (peerSet *PeerSet) PeerGroupID() uint64 {
	return peerSet.groupID
}

// ThresholdForSet returns the quorum size for a set of n members.
func (peerSet *PeerSet) ThresholdForSet(n int) int {
	return peerSet.quorum(n)
}

// Threshold is ThresholdForSet applied to the size of the PeerSet.
func (peerSet *PeerSet) Threshold() int {
	return peerSet.ThresholdForSet(peerSet.Len())
}

// Marshal encodes the ordered peers as canonical JSON
func (peerSet *PeerSet) Marshal() ([]byte, error) {
	return common.MarshalCanonical(peerSet.Peers)
}

func hashPeerIDs(peers []*Peer) uint64 {
	d := xxhash.New()
	for _, p := range peers {
		d.Write(p.ID[:])
	}
	return d.Sum64()
}

func hashKeyHashes(peers []*Peer) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, p := range peers {
		binary.BigEndian.PutUint64(buf[:], p.KeyHash)
		d.Write(buf[:])
	}
	return d.Sum64()
}
