package registry

import (
	"context"
	"fmt"
	"sync"

	cm "github.com/mosaicnetworks/rollcall/src/common"
	"github.com/mosaicnetworks/rollcall/src/epoch"
	"github.com/mosaicnetworks/rollcall/src/peers"
	"github.com/mosaicnetworks/rollcall/src/store"
	"github.com/sirupsen/logrus"
)

// Tracker follows the registry and keeps the latest roster snapshot. Every
// refresh that observes a change builds a new Snapshot and replaces the old
// one wholesale; readers holding the old Snapshot keep a consistent view.
type Tracker struct {
	source  Source
	store   store.Store
	sortKey peers.SortKey
	logger  *logrus.Entry

	mu       sync.RWMutex
	snapshot *epoch.Snapshot
}

// NewTracker creates a Tracker. The store may be nil, in which case snapshots
// are not persisted.
func NewTracker(source Source, st store.Store, sortKey peers.SortKey, logger *logrus.Entry) *Tracker {
	if logger == nil {
		logger = logrus.New().WithField("prefix", "registry")
	}
	return &Tracker{
		source:  source,
		store:   st,
		sortKey: sortKey,
		logger:  logger,
	}
}

// Snapshot returns the latest snapshot, or nil before the first successful
// Refresh or Restore.
func (t *Tracker) Snapshot() *epoch.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot
}

// Restore loads the last persisted snapshot. An empty store is not an error.
func (t *Tracker) Restore() error {
	if t.store == nil {
		return nil
	}

	snap, err := t.store.LastSnapshot()
	if err != nil {
		if cm.IsStore(err, cm.Empty) {
			return nil
		}
		return err
	}

	t.mu.Lock()
	t.snapshot = snap
	t.mu.Unlock()

	observe(snap)

	t.logger.WithFields(logrus.Fields{
		"epoch": snap.Epoch,
		"state": snap.State,
		"peers": snap.Current.Len(),
	}).Debug("Restored roster snapshot")

	return nil
}

// Refresh reads the registry and builds a new snapshot. It returns the latest
// snapshot and whether it differs from the previous one. On error the
// previous snapshot is kept.
func (t *Tracker) Refresh(ctx context.Context) (*epoch.Snapshot, bool, error) {
	snap, err := t.build(ctx)
	if err != nil {
		Refreshes.WithLabelValues("error").Inc()
		return t.Snapshot(), false, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.snapshot != nil && t.snapshot.Hash() == snap.Hash() {
		Refreshes.WithLabelValues("unchanged").Inc()
		return t.snapshot, false, nil
	}

	if t.store != nil {
		if err := t.store.SetSnapshot(snap); err != nil {
			Refreshes.WithLabelValues("error").Inc()
			return t.snapshot, false, fmt.Errorf("persisting snapshot %d: %w", snap.Epoch, err)
		}
	}

	Refreshes.WithLabelValues("changed").Inc()
	observe(snap)

	fields := logrus.Fields{
		"epoch":           snap.Epoch,
		"state":           snap.State,
		"peers":           snap.Current.Len(),
		"active":          snap.Current.ActivePeers().Len(),
		"next_peers":      snap.Next.Len(),
		"hash":            fmt.Sprintf("%016x", snap.Current.Hash()),
		"peer_group":      fmt.Sprintf("%016x", snap.Current.PeerGroupID()),
		"next_peer_group": fmt.Sprintf("%016x", snap.Next.PeerGroupID()),
	}
	if t.snapshot != nil {
		fields["previous_epoch"] = t.snapshot.Epoch
		fields["previous_state"] = t.snapshot.State
	}
	t.logger.WithFields(fields).Info("Roster changed")

	t.snapshot = snap

	return snap, true, nil
}

func (t *Tracker) build(ctx context.Context) (*epoch.Snapshot, error) {
	e, state, err := t.source.Epoch(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading epoch: %w", err)
	}

	currentDescs, err := t.source.CurrentValidators(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading current validators: %w", err)
	}

	nextDescs, err := t.source.NextValidators(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading next validators: %w", err)
	}

	current, err := Ingest(currentDescs, t.sortKey, t.logger)
	if err != nil {
		return nil, err
	}

	next, err := Ingest(nextDescs, t.sortKey, t.logger)
	if err != nil {
		return nil, err
	}

	return epoch.NewSnapshot(e, state, current, next), nil
}

func observe(snap *epoch.Snapshot) {
	CurrentEpoch.Set(float64(snap.Epoch))
	EpochState.Set(float64(snap.State.Code()))
	RosterPeers.WithLabelValues("current").Set(float64(snap.Current.Len()))
	RosterPeers.WithLabelValues("active").Set(float64(snap.Current.ActivePeers().Len()))
	RosterPeers.WithLabelValues("next").Set(float64(snap.Next.Len()))
}
