package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/mosaicnetworks/rollcall/src/config"
	"github.com/spf13/cobra"
)

var (
	snapshotEpoch int64
	snapshotJSON  bool
)

// NewSnapshotCmd returns the command that records the registry roster in the
// snapshot store
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record the registry roster and list stored snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			return snapshot(context.Background(), &_config.Rollcall, snapshotEpoch, snapshotJSON, cmd.OutOrStdout())
		},
	}
	AddSnapshotFlags(cmd)
	return cmd
}

// AddSnapshotFlags adds flags to the snapshot command
func AddSnapshotFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&snapshotEpoch, "epoch", -1, "Print the stored snapshot of this epoch")
	cmd.Flags().BoolVar(&snapshotJSON, "json", false, "Print snapshots as canonical JSON")
}

func snapshot(ctx context.Context, conf *config.Config, e int64, asJSON bool, out io.Writer) error {
	snap, changed, st, err := refreshSnapshot(ctx, conf)
	if err != nil {
		return err
	}
	defer st.Close()

	if e >= 0 {
		snap, err = st.GetSnapshot(uint64(e))
		if err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "Changed:    %t\n", changed)
	}

	if asJSON {
		data, err := snap.Marshal()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", data)
		return nil
	}

	printSnapshotHeader(out, snap)

	epochs, err := st.Epochs()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Stored:     %v\n", epochs)

	return nil
}
