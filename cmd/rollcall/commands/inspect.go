package commands

import (
	"context"
	"io"

	"github.com/mosaicnetworks/rollcall/src/config"
	"github.com/spf13/cobra"
)

// NewInspectCmd returns the command that prints the current roster
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the roster read from the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspect(context.Background(), &_config.Rollcall, _config.Next, cmd.OutOrStdout())
		},
	}
	AddInspectFlags(cmd)
	return cmd
}

// AddInspectFlags adds flags to the inspect command
func AddInspectFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("next", _config.Next, "Print the next roster instead of the current one")
}

func inspect(ctx context.Context, conf *config.Config, next bool, out io.Writer) error {
	snap, err := loadSnapshot(ctx, conf)
	if err != nil {
		return err
	}

	printSnapshotHeader(out, snap)

	peerSet := snap.Current
	if next {
		peerSet = snap.Next
	}

	io.WriteString(out, "\n")
	return printPeerSet(out, peerSet, snap.Statuses())
}
