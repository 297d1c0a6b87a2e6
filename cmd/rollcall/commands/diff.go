package commands

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/mosaicnetworks/rollcall/src/config"
	"github.com/mosaicnetworks/rollcall/src/epoch"
	"github.com/mosaicnetworks/rollcall/src/peers"
	"github.com/spf13/cobra"
)

// NewDiffCmd returns the command that compares the current and next rosters
func NewDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff",
		Short: "Classify peers as entering, exiting or surviving the next epoch",
		RunE: func(cmd *cobra.Command, args []string) error {
			return diff(context.Background(), &_config.Rollcall, cmd.OutOrStdout())
		},
	}
}

func diff(ctx context.Context, conf *config.Config, out io.Writer) error {
	snap, err := loadSnapshot(ctx, conf)
	if err != nil {
		return err
	}

	statuses := snap.Statuses()

	byKey := make(map[uint64]*peers.Peer, snap.Current.Len()+snap.Next.Len())
	for _, p := range snap.Current.Peers {
		byKey[p.KeyHash] = p
	}
	for _, p := range snap.Next.Peers {
		byKey[p.KeyHash] = p
	}

	keys := make([]uint64, 0, len(statuses))
	for k := range statuses {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		fmt.Fprintf(out, "%s %s\n", symbol(statuses[k]), byKey[k].DebugAddress())
	}

	return nil
}

func symbol(s epoch.PeerValidatorStatus) string {
	switch s {
	case epoch.Entering:
		return "+"
	case epoch.Exiting:
		return "-"
	case epoch.Survivor:
		return "="
	default:
		return "?"
	}
}
