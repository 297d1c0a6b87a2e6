package store

import "github.com/mosaicnetworks/rollcall/src/epoch"

// Store persists roster snapshots by epoch.
type Store interface {
	CacheSize() int
	GetSnapshot(epoch uint64) (*epoch.Snapshot, error)
	SetSnapshot(snapshot *epoch.Snapshot) error
	LastSnapshot() (*epoch.Snapshot, error)
	Epochs() ([]uint64, error)
	Close() error
	StorePath() string
}
