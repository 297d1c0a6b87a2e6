package store

import (
	"sort"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	cm "github.com/mosaicnetworks/rollcall/src/common"
	"github.com/mosaicnetworks/rollcall/src/epoch"
)

// InmemStore keeps the most recent snapshots in an LRU cache. It implements
// the Store interface and is also used as the cache in front of BadgerStore.
type InmemStore struct {
	cacheSize int
	snapshots *lru.Cache

	mu        sync.RWMutex
	lastEpoch uint64
	hasLast   bool
}

// NewInmemStore creates an InmemStore holding up to cacheSize snapshots.
func NewInmemStore(cacheSize int) *InmemStore {
	if cacheSize <= 0 {
		cacheSize = 1
	}

	// lru.New only fails on a non-positive size
	snapshots, _ := lru.New(cacheSize)

	return &InmemStore{
		cacheSize: cacheSize,
		snapshots: snapshots,
	}
}

// CacheSize implements the Store interface
func (s *InmemStore) CacheSize() int {
	return s.cacheSize
}

// GetSnapshot implements the Store interface
func (s *InmemStore) GetSnapshot(e uint64) (*epoch.Snapshot, error) {
	res, ok := s.snapshots.Get(e)
	if !ok {
		return nil, cm.NewStoreErr("Snapshots", cm.KeyNotFound, strconv.FormatUint(e, 10))
	}
	return res.(*epoch.Snapshot), nil
}

// SetSnapshot implements the Store interface
func (s *InmemStore) SetSnapshot(snapshot *epoch.Snapshot) error {
	s.snapshots.Add(snapshot.Epoch, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasLast || snapshot.Epoch >= s.lastEpoch {
		s.lastEpoch = snapshot.Epoch
		s.hasLast = true
	}

	return nil
}

// LastSnapshot implements the Store interface
func (s *InmemStore) LastSnapshot() (*epoch.Snapshot, error) {
	s.mu.RLock()
	last, ok := s.lastEpoch, s.hasLast
	s.mu.RUnlock()

	if !ok {
		return nil, cm.NewStoreErr("Snapshots", cm.Empty, "")
	}
	return s.GetSnapshot(last)
}

// Epochs implements the Store interface. Only epochs still in the cache are
// listed.
func (s *InmemStore) Epochs() ([]uint64, error) {
	res := []uint64{}
	for _, k := range s.snapshots.Keys() {
		res = append(res, k.(uint64))
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res, nil
}

// Close implements the Store interface
func (s *InmemStore) Close() error {
	return nil
}

// StorePath implements the Store interface
func (s *InmemStore) StorePath() string {
	return ""
}
