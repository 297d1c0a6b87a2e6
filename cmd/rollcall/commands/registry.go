package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mosaicnetworks/rollcall/src/config"
	"github.com/mosaicnetworks/rollcall/src/epoch"
	"github.com/mosaicnetworks/rollcall/src/peers"
	"github.com/mosaicnetworks/rollcall/src/registry"
	"github.com/mosaicnetworks/rollcall/src/store"
)

// openStore returns a badger store when persistence is enabled and an
// in-memory store otherwise.
func openStore(conf *config.Config) (store.Store, error) {
	if !conf.Store {
		return store.NewInmemStore(conf.CacheSize), nil
	}

	st, err := store.LoadOrCreateBadgerStore(conf.CacheSize, conf.DatabaseDir, conf.Logger())
	if err != nil {
		return nil, fmt.Errorf("opening store in %s: %w", conf.DatabaseDir, err)
	}
	return st, nil
}

// refreshSnapshot reads the registry once and returns the resulting snapshot,
// whether it differs from the last persisted one, and the store it was
// recorded in. The caller closes the store.
func refreshSnapshot(ctx context.Context, conf *config.Config) (*epoch.Snapshot, bool, store.Store, error) {
	sortKey, err := conf.CanonicalSortKey()
	if err != nil {
		return nil, false, nil, err
	}

	st, err := openStore(conf)
	if err != nil {
		return nil, false, nil, err
	}

	tracker := registry.NewTracker(
		registry.NewJSONSource(conf.RegistryDir),
		st,
		sortKey,
		conf.Logger(),
	)

	if err := tracker.Restore(); err != nil {
		st.Close()
		return nil, false, nil, err
	}

	snap, changed, err := tracker.Refresh(ctx)
	if err != nil {
		st.Close()
		return nil, false, nil, err
	}

	return snap, changed, st, nil
}

// loadSnapshot is refreshSnapshot for commands that only read.
func loadSnapshot(ctx context.Context, conf *config.Config) (*epoch.Snapshot, error) {
	snap, _, st, err := refreshSnapshot(ctx, conf)
	if err != nil {
		return nil, err
	}
	return snap, st.Close()
}

func printSnapshotHeader(out io.Writer, snap *epoch.Snapshot) {
	fmt.Fprintf(out, "Epoch:      %d\n", snap.Epoch)
	fmt.Fprintf(out, "State:      %s\n", snap.State)
	fmt.Fprintf(out, "Hash:       %016x\n", snap.Hash())
	fmt.Fprintf(out, "Current:    %d peers (%d active), group %016x\n",
		snap.Current.Len(),
		snap.Current.ActivePeers().Len(),
		snap.Current.PeerGroupID())
	fmt.Fprintf(out, "Next:       %d peers, group %016x\n",
		snap.Next.Len(),
		snap.Next.PeerGroupID())
}

func printPeerSet(out io.Writer, peerSet *peers.PeerSet, statuses map[uint64]epoch.PeerValidatorStatus) error {
	w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)

	fmt.Fprintln(w, "#\tPEER\tKEY HASH\tVERSION\tKICKED\tSTATUS")
	for i, p := range peerSet.Peers {
		status := epoch.UnknownStatus
		if statuses != nil {
			status = statuses[p.KeyHash]
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%t\t%s\n",
			i,
			p.DebugAddress(),
			p.KeyHash,
			p.Version,
			p.Kicked,
			status)
	}

	return w.Flush()
}
