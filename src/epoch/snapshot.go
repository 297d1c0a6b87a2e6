package epoch

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/mosaicnetworks/rollcall/src/common"
	"github.com/mosaicnetworks/rollcall/src/peers"
)

// Snapshot is the roster of one epoch as seen by this node: the lifecycle
// state, the current validator set and the locked next one. A Snapshot is
// never modified once built; a change in the registry produces a new one.
type Snapshot struct {
	Epoch   uint64            `json:"epoch" codec:"epoch"`
	State   NetworkEpochState `json:"state" codec:"state"`
	Current *peers.PeerSet    `json:"current" codec:"current"`
	Next    *peers.PeerSet    `json:"next" codec:"next"`
}

// NewSnapshot creates a Snapshot. Nil sets are replaced with empty ones.
func NewSnapshot(epoch uint64, state NetworkEpochState, current, next *peers.PeerSet) *Snapshot {
	if current == nil {
		current = peers.NewPeerSet(nil)
	}
	if next == nil {
		next = peers.NewPeerSet(nil)
	}
	return &Snapshot{
		Epoch:   epoch,
		State:   state,
		Current: current,
		Next:    next,
	}
}

// Hash fingerprints the epoch, the state and both sets. Besides the set
// fingerprints it covers every field of every member, so kicking a peer or
// moving it to a new address changes the Hash.
func (s *Snapshot) Hash() uint64 {
	d := xxhash.New()
	var buf [8]byte

	write := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		d.Write(buf[:])
	}

	writeSet := func(set *peers.PeerSet) {
		write(set.Hash())
		write(set.PeerGroupID())
		write(uint64(set.Len()))
		for _, p := range set.Peers {
			writePeer(d, write, p)
		}
	}

	write(s.Epoch)
	write(uint64(s.State.Code()))
	writeSet(s.Current)
	writeSet(s.Next)

	return d.Sum64()
}

func writePeer(d *xxhash.Digest, write func(uint64), p *peers.Peer) {
	d.Write(p.ID[:])
	d.Write(p.StakerAddress[:])
	write(p.KeyHash)
	write(uint64(p.RealmID))
	if p.Kicked {
		write(1)
	} else {
		write(0)
	}

	// length-prefixed so adjacent strings cannot run into each other
	version := ""
	if p.Version != nil {
		version = p.Version.String()
	}
	for _, str := range []string{p.NetAddr, version} {
		write(uint64(len(str)))
		d.WriteString(str)
	}
}

// Statuses classifies the peers of the snapshot with Classify. Until the
// next set is locked every current peer is UnknownStatus.
func (s *Snapshot) Statuses() map[uint64]PeerValidatorStatus {
	if !s.State.NextSetLocked() {
		res := make(map[uint64]PeerValidatorStatus, s.Current.Len())
		for _, k := range s.Current.PeerKeys() {
			res[k] = UnknownStatus
		}
		return res
	}
	return Classify(s.Current, s.Next)
}

// Classify compares two validator sets and returns the status of every peer
// found in either, keyed by KeyHash. KeyHash is used rather than PeerID
// because it survives identity reassignment between epochs.
func Classify(current, next *peers.PeerSet) map[uint64]PeerValidatorStatus {
	inCurrent := make(map[uint64]bool, current.Len())
	for _, k := range current.PeerKeys() {
		inCurrent[k] = true
	}
	inNext := make(map[uint64]bool, next.Len())
	for _, k := range next.PeerKeys() {
		inNext[k] = true
	}

	res := make(map[uint64]PeerValidatorStatus, len(inCurrent)+len(inNext))
	for k := range inCurrent {
		res[k] = StatusOf(true, inNext[k])
	}
	for k := range inNext {
		res[k] = StatusOf(inCurrent[k], true)
	}
	return res
}

// Marshal encodes the Snapshot as canonical JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return common.MarshalCanonical(s)
}

// Unmarshal decodes a Snapshot produced by Marshal.
func (s *Snapshot) Unmarshal(data []byte) error {
	if err := common.UnmarshalCanonical(data, s); err != nil {
		return err
	}
	if s.Current == nil {
		s.Current = peers.NewPeerSet(nil)
	}
	if s.Next == nil {
		s.Next = peers.NewPeerSet(nil)
	}
	return nil
}
