package peers

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// scenarioSet is the three-peer set where the middle member is kicked.
func scenarioSet(t *testing.T) *PeerSet {
	ps := testPeers(t, 3)
	ps[1].Kicked = true
	return NewPeerSet(ps)
}

func TestActivePeers(t *testing.T) {
	peerSet := scenarioSet(t)

	active := peerSet.ActivePeers()

	if active.Len() != 2 {
		t.Fatalf("active set should have 2 peers, not %d", active.Len())
	}
	if active.Peers[0] != peerSet.Peers[0] || active.Peers[1] != peerSet.Peers[2] {
		t.Fatalf("active set should be [peer1, peer3], got %s", active.DebugAddresses())
	}
	for _, p := range active.Peers {
		if p.Kicked {
			t.Fatalf("active set contains kicked peer %s", p.NetAddr)
		}
	}
	if peerSet.Len() != 3 {
		t.Fatalf("ActivePeers should not modify the receiver")
	}
}

func TestPeerKeys(t *testing.T) {
	peerSet := scenarioSet(t)

	if !reflect.DeepEqual(peerSet.PeerKeys(), []uint64{11, 22, 33}) {
		t.Fatalf("PeerKeys should be [11 22 33], not %v", peerSet.PeerKeys())
	}
}

func TestHashDependsOnIDSequenceOnly(t *testing.T) {
	peers := testPeers(t, 3)
	peerSet := NewPeerSet(peers)

	// Same ids, in the same order, with different addresses and kick flags.
	altered := make([]*Peer, len(peers))
	for i, p := range peers {
		c := *p
		c.NetAddr = "192.168.1.1:" + string(rune('a'+i))
		c.Kicked = i%2 == 0
		c.KeyHash = 1000 + uint64(i)
		altered[i] = &c
	}
	if NewPeerSet(altered).Hash() != peerSet.Hash() {
		t.Fatalf("Hash should only depend on the id sequence")
	}

	// The same members in a different order.
	reordered := []*Peer{peers[2], peers[0], peers[1]}
	if NewPeerSet(reordered).Hash() == peerSet.Hash() {
		t.Fatalf("Hash should be sensitive to member order")
	}

	if NewPeerSet(peers[:2]).Hash() == peerSet.Hash() {
		t.Fatalf("Hash should change when a member is removed")
	}
}

func TestPeerGroupID(t *testing.T) {
	peers := testPeers(t, 3)
	peerSet := NewPeerSet(peers)

	// Reassign every id, keep key hashes and order.
	reassigned := make([]*Peer, len(peers))
	for i, p := range peers {
		c := *p
		c.ID = testPeerID(t, 10+i)
		reassigned[i] = &c
	}
	other := NewPeerSet(reassigned)

	if other.PeerGroupID() != peerSet.PeerGroupID() {
		t.Fatalf("PeerGroupID should survive id reassignment")
	}
	if other.Hash() == peerSet.Hash() {
		t.Fatalf("Hash should change on id reassignment")
	}

	reordered := NewPeerSet([]*Peer{peers[1], peers[0], peers[2]})
	if reordered.PeerGroupID() == peerSet.PeerGroupID() {
		t.Fatalf("PeerGroupID should be sensitive to member order")
	}
}

func TestRealmID(t *testing.T) {
	_, err := NewPeerSet(nil).RealmID()
	if !IsPeerSetErr(err, EmptySet) {
		t.Fatalf("empty set should give an EmptySet error, got %v", err)
	}

	peers := testPeers(t, 2)
	peers[0].RealmID = 0
	_, err = NewPeerSet(peers).RealmID()
	if !IsPeerSetErr(err, InvalidRealmZero) {
		t.Fatalf("realm 0 should give an InvalidRealmZero error, got %v", err)
	}

	peers = testPeers(t, 2)
	peers[0].RealmID = 4
	peers[1].RealmID = 4
	realm, err := NewPeerSet(peers).RealmID()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if realm != 4 {
		t.Fatalf("realm should be 4, not %d", realm)
	}
}

func TestLookupRoundTrip(t *testing.T) {
	peerSet := NewPeerSet(testPeers(t, 5))

	for _, p := range peerSet.Peers {
		byAddr, err := peerSet.PeerAtAddress(p.NetAddr)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if !byAddr.Equal(p) {
			t.Fatalf("PeerAtAddress(%s) returned %s", p.NetAddr, byAddr.NetAddr)
		}

		byID, err := peerSet.PeerByID(p.ID)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if !byID.Equal(p) {
			t.Fatalf("PeerByID(%s) returned %s", p.ID, byID.NetAddr)
		}

		id, err := peerSet.PeerIDByAddress(p.NetAddr)
		if err != nil {
			t.Fatalf("err: %v", err)
		}
		if id != p.ID {
			t.Fatalf("PeerIDByAddress(%s) should be %s, not %s", p.NetAddr, p.ID, id)
		}

		if !peerSet.ContainsAddress(p.NetAddr) {
			t.Fatalf("ContainsAddress(%s) should be true", p.NetAddr)
		}
	}
}

func TestLookupNotFound(t *testing.T) {
	peerSet := NewPeerSet(testPeers(t, 3))
	missing := "10.9.9.9:80"

	if peerSet.ContainsAddress(missing) {
		t.Fatalf("ContainsAddress(%s) should be false", missing)
	}

	_, err := peerSet.PeerAtAddress(missing)
	if !IsPeerSetErr(err, NotFound) {
		t.Fatalf("PeerAtAddress should give NotFound, got %v", err)
	}
	for _, addr := range peerSet.NetAddrs() {
		if !strings.Contains(err.Error(), addr) {
			t.Fatalf("NotFound error should list %s: %v", addr, err)
		}
	}

	_, err = peerSet.PeerIDByAddress(missing)
	if !IsPeerSetErr(err, NotFound) {
		t.Fatalf("PeerIDByAddress should give NotFound, got %v", err)
	}
	if !reflect.DeepEqual(err.(PeerSetErr).Known(), peerSet.NetAddrs()) {
		t.Fatalf("NotFound error should carry every known address")
	}

	_, err = peerSet.PeerByID(testPeerID(t, 42))
	if !IsPeerSetErr(err, NotFound) {
		t.Fatalf("PeerByID should give NotFound, got %v", err)
	}
}

func TestAllPeersExcept(t *testing.T) {
	peerSet := NewPeerSet(testPeers(t, 4))

	for _, addr := range append(peerSet.NetAddrs(), "10.9.9.9:80") {
		res := peerSet.AllPeersExcept(addr)

		if res.ContainsAddress(addr) {
			t.Fatalf("result should not contain %s", addr)
		}

		expected := peerSet.Len()
		if peerSet.ContainsAddress(addr) {
			expected--
		}
		if res.Len() != expected {
			t.Fatalf("AllPeersExcept(%s) should have %d peers, not %d", addr, expected, res.Len())
		}
	}

	if peerSet.Len() != 4 {
		t.Fatalf("AllPeersExcept should not modify the receiver")
	}
}

func TestPeersByID(t *testing.T) {
	peers := testPeers(t, 4)
	peerSet := NewPeerSet(peers)

	// Requested out of order, with one unknown id.
	ids := []PeerID{peers[3].ID, testPeerID(t, 99), peers[0].ID, peers[2].ID}
	res := peerSet.PeersByID(ids)

	expected := []*Peer{peers[0], peers[2], peers[3]}
	if !reflect.DeepEqual(res.Peers, expected) {
		t.Fatalf("PeersByID should follow set order, got %s", res.DebugAddresses())
	}
}

func TestPeersForNodeSet(t *testing.T) {
	peers := testPeers(t, 4)
	peerSet := NewPeerSet(peers)

	nodes := []NodeDescriptor{
		NodeAddress(peers[2].NetAddr),
		NodeAddress("10.9.9.9:80"),
		peers[0],
	}
	res := peerSet.PeersForNodeSet(nodes)

	expected := []*Peer{peers[2], peers[0]}
	if !reflect.DeepEqual(res.Peers, expected) {
		t.Fatalf("PeersForNodeSet should follow descriptor order, got %s", res.DebugAddresses())
	}
}

func TestPeerIDs(t *testing.T) {
	peers := testPeers(t, 3)
	peerSet := NewPeerSet(peers)

	ids := peerSet.PeerIDs()
	for i, id := range ids {
		if id != peers[i].ID {
			t.Fatalf("PeerIDs[%d] should be %s, not %s", i, peers[i].ID, id)
		}
	}
}

func TestDebugAddresses(t *testing.T) {
	peers := testPeers(t, 2)
	peerSet := NewPeerSet(peers)

	expected := peers[0].DebugAddress() + ", " + peers[1].DebugAddress()
	if peerSet.DebugAddresses() != expected {
		t.Fatalf("DebugAddresses should be %q, not %q", expected, peerSet.DebugAddresses())
	}
	if NewPeerSet(nil).DebugAddresses() != "" {
		t.Fatalf("DebugAddresses of an empty set should be empty")
	}
}

func TestIsEmpty(t *testing.T) {
	if !NewPeerSet(nil).IsEmpty() {
		t.Fatalf("nil peers should give an empty set")
	}
	if NewPeerSet(testPeers(t, 1)).IsEmpty() {
		t.Fatalf("set with one peer should not be empty")
	}
}

func TestThresholdForSet(t *testing.T) {
	peerSet := NewPeerSet(testPeers(t, 4))

	for n := 1; n <= 100; n++ {
		q := peerSet.ThresholdForSet(n)
		if q < 1 || q > n {
			t.Fatalf("threshold for %d should be in [1, %d], got %d", n, n, q)
		}
	}

	if peerSet.Threshold() != 3 {
		t.Fatalf("threshold for 4 peers should be 3, not %d", peerSet.Threshold())
	}

	custom := peerSet.WithQuorum(func(n int) int { return n })
	if custom.Threshold() != 4 {
		t.Fatalf("custom quorum should be used, got %d", custom.Threshold())
	}
	if custom.ActivePeers().ThresholdForSet(10) != 10 {
		t.Fatalf("derived sets should keep the quorum function")
	}
}

func TestQuorumFuncs(t *testing.T) {
	cases := []struct {
		n, superMajority, trustCount int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{2, 2, 1},
		{3, 3, 1},
		{4, 3, 2},
		{7, 5, 3},
		{10, 7, 4},
	}

	for _, c := range cases {
		if got := SuperMajority(c.n); got != c.superMajority {
			t.Fatalf("SuperMajority(%d) should be %d, not %d", c.n, c.superMajority, got)
		}
		if got := TrustCount(c.n); got != c.trustCount {
			t.Fatalf("TrustCount(%d) should be %d, not %d", c.n, c.trustCount, got)
		}
	}
}

func TestMarshalPeerSet(t *testing.T) {
	peers := testPeers(t, 3)
	peers[1].Kicked = true
	peerSet := NewPeerSet(peers)

	data, err := peerSet.Marshal()
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	decoded, err := NewPeerSetFromBytes(data)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	if decoded.Hash() != peerSet.Hash() || decoded.PeerGroupID() != peerSet.PeerGroupID() {
		t.Fatalf("decoded set should have the same fingerprints")
	}
	for i, p := range decoded.Peers {
		if !p.Equal(peers[i]) {
			t.Fatalf("decoded peer %d differs: %+v", i, p)
		}
		if p.Version.String() != peers[i].Version.String() || p.RealmID != peers[i].RealmID {
			t.Fatalf("decoded peer %d lost version or realm", i)
		}
	}

	if decoded.Threshold() != SuperMajority(3) {
		t.Fatalf("decoded set should use SuperMajority, got %d", decoded.Threshold())
	}

	// Decoding into an existing set keeps its quorum function.
	encoded, err := json.Marshal(peerSet)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	custom := NewPeerSet(nil).WithQuorum(func(n int) int { return n })
	if err := json.Unmarshal(encoded, custom); err != nil {
		t.Fatalf("err: %v", err)
	}
	if custom.Len() != 3 || custom.Threshold() != 3 {
		t.Fatalf("decoding should keep the custom quorum, got %d of %d", custom.Threshold(), custom.Len())
	}
	if custom.Hash() != peerSet.Hash() {
		t.Fatalf("decoded set should have the same hash")
	}

	again, err := decoded.Marshal()
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(again) != string(data) {
		t.Fatalf("encoding should be stable")
	}
}
