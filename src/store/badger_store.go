package store

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/dgraph-io/badger"
	cm "github.com/mosaicnetworks/rollcall/src/common"
	"github.com/mosaicnetworks/rollcall/src/epoch"
	"github.com/sirupsen/logrus"
)

const (
	snapshotPrefix = "snapshot"
	lastEpochKey   = "last_epoch"
)

// BadgerStore persists snapshots in a Badger database, with an InmemStore in
// front of it.
type BadgerStore struct {
	inmemStore *InmemStore
	db         *badger.DB
	path       string
	logger     *logrus.Entry

	closeLock sync.RWMutex
	closed    bool
}

// NewBadgerStore opens, or creates, the database at path.
func NewBadgerStore(cacheSize int, path string, logger *logrus.Entry) (*BadgerStore, error) {
	if logger == nil {
		logger = logrus.New().WithField("prefix", "store")
	}

	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = logger

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(cacheSize),
		db:         handle,
		path:       path,
		logger:     logger,
	}

	return store, nil
}

// LoadBadgerStore opens an existing database and warms the cache with its
// last snapshot.
func LoadBadgerStore(cacheSize int, path string, logger *logrus.Entry) (*BadgerStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	store, err := NewBadgerStore(cacheSize, path, logger)
	if err != nil {
		return nil, err
	}

	last, err := store.dbGetLastSnapshot()
	if err != nil && !cm.IsStore(err, cm.Empty) {
		store.Close()
		return nil, err
	}
	if last != nil {
		store.inmemStore.SetSnapshot(last)
	}

	return store, nil
}

// LoadOrCreateBadgerStore loads the database at path if it exists and creates
// it otherwise.
func LoadOrCreateBadgerStore(cacheSize int, path string, logger *logrus.Entry) (*BadgerStore, error) {
	store, err := LoadBadgerStore(cacheSize, path, logger)

	if err != nil {
		store, err = NewBadgerStore(cacheSize, path, logger)

		if err != nil {
			return nil, err
		}
	}

	return store, nil
}

//==============================================================================
//Keys

func snapshotKey(e uint64) []byte {
	return []byte(fmt.Sprintf("%s_%020d", snapshotPrefix, e))
}

//==============================================================================
//Implement the Store interface

// CacheSize implements the Store interface
func (s *BadgerStore) CacheSize() int {
	return s.inmemStore.CacheSize()
}

// GetSnapshot implements the Store interface
func (s *BadgerStore) GetSnapshot(e uint64) (*epoch.Snapshot, error) {
	s.closeLock.RLock()
	defer s.closeLock.RUnlock()
	if s.closed {
		return nil, cm.NewStoreErr("BadgerStore", cm.Closed, "")
	}

	res, err := s.inmemStore.GetSnapshot(e)
	if err == nil {
		return res, nil
	}

	res, err = s.dbGetSnapshot(e)
	if err != nil {
		return nil, err
	}

	s.inmemStore.SetSnapshot(res)

	return res, nil
}

// SetSnapshot implements the Store interface
func (s *BadgerStore) SetSnapshot(snapshot *epoch.Snapshot) error {
	s.closeLock.RLock()
	defer s.closeLock.RUnlock()
	if s.closed {
		return cm.NewStoreErr("BadgerStore", cm.Closed, "")
	}

	if err := s.dbSetSnapshot(snapshot); err != nil {
		return err
	}
	return s.inmemStore.SetSnapshot(snapshot)
}

// LastSnapshot implements the Store interface
func (s *BadgerStore) LastSnapshot() (*epoch.Snapshot, error) {
	s.closeLock.RLock()
	defer s.closeLock.RUnlock()
	if s.closed {
		return nil, cm.NewStoreErr("BadgerStore", cm.Closed, "")
	}

	res, err := s.inmemStore.LastSnapshot()
	if err == nil {
		return res, nil
	}
	return s.dbGetLastSnapshot()
}

// Epochs implements the Store interface
func (s *BadgerStore) Epochs() ([]uint64, error) {
	s.closeLock.RLock()
	defer s.closeLock.RUnlock()
	if s.closed {
		return nil, cm.NewStoreErr("BadgerStore", cm.Closed, "")
	}

	return s.dbEpochs()
}

// Close implements the Store interface. Closing twice is a no-op.
func (s *BadgerStore) Close() error {
	s.closeLock.Lock()
	defer s.closeLock.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.inmemStore.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

// StorePath implements the Store interface
func (s *BadgerStore) StorePath() string {
	return s.path
}

//++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++
//DB Methods

func (s *BadgerStore) dbGetSnapshot(e uint64) (*epoch.Snapshot, error) {
	var snapshotBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapshotKey(e))
		if err != nil {
			return err
		}
		snapshotBytes, err = item.ValueCopy(nil)
		return err
	})

	if err != nil {
		if isDBKeyNotFound(err) {
			return nil, cm.NewStoreErr("Snapshots", cm.KeyNotFound, strconv.FormatUint(e, 10))
		}
		return nil, err
	}

	snapshot := new(epoch.Snapshot)
	if err := snapshot.Unmarshal(snapshotBytes); err != nil {
		return nil, err
	}

	return snapshot, nil
}

func (s *BadgerStore) dbSetSnapshot(snapshot *epoch.Snapshot) error {
	val, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(snapshotKey(snapshot.Epoch), val); err != nil {
			return err
		}

		// Only move the last epoch pointer forward
		last, err := dbLastEpoch(txn)
		if err != nil && !isDBKeyNotFound(err) {
			return err
		}
		if err == nil && snapshot.Epoch < last {
			return nil
		}

		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], snapshot.Epoch)
		return txn.Set([]byte(lastEpochKey), buf[:])
	})
}

func (s *BadgerStore) dbGetLastSnapshot() (*epoch.Snapshot, error) {
	var last uint64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		last, err = dbLastEpoch(txn)
		return err
	})

	if err != nil {
		if isDBKeyNotFound(err) {
			return nil, cm.NewStoreErr("Snapshots", cm.Empty, "")
		}
		return nil, err
	}

	return s.dbGetSnapshot(last)
}

func (s *BadgerStore) dbEpochs() ([]uint64, error) {
	res := []uint64{}
	prefix := []byte(snapshotPrefix + "_")

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			e, err := strconv.ParseUint(key[len(prefix):], 10, 64)
			if err != nil {
				return fmt.Errorf("malformed snapshot key %q: %v", key, err)
			}
			res = append(res, e)
		}
		return nil
	})

	return res, err
}

func dbLastEpoch(txn *badger.Txn) (uint64, error) {
	item, err := txn.Get([]byte(lastEpochKey))
	if err != nil {
		return 0, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}
	if len(val) != 8 {
		return 0, fmt.Errorf("malformed last epoch value")
	}
	return binary.BigEndian.Uint64(val), nil
}

func isDBKeyNotFound(err error) bool {
	return err == badger.ErrKeyNotFound
}
