package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/mosaicnetworks/rollcall/src/config"
	"github.com/mosaicnetworks/rollcall/src/epoch"
	"github.com/mosaicnetworks/rollcall/src/registry"
	"github.com/spf13/cobra"
)

var (
	epochSet   int64
	epochState string
)

// NewEpochCmd returns the command that reads or writes the registry epoch
func NewEpochCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epoch",
		Short: "Print or set the registry epoch and its state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return epochCmd(context.Background(), &_config.Rollcall, epochSet, epochState, cmd.OutOrStdout())
		},
	}
	AddEpochFlags(cmd)
	return cmd
}

// AddEpochFlags adds flags to the epoch command
func AddEpochFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&epochSet, "set", -1, "Epoch number to write")
	cmd.Flags().StringVar(&epochState, "state", "", "Epoch state to write (Active, NextValidatorSetLocked, ...)")
}

func epochCmd(ctx context.Context, conf *config.Config, set int64, stateName string, out io.Writer) error {
	source := registry.NewJSONSource(conf.RegistryDir)

	if set >= 0 || stateName != "" {
		e, state, err := source.Epoch(ctx)
		if err != nil && (set < 0 || stateName == "") {
			return fmt.Errorf("reading current epoch: %w", err)
		}

		if set >= 0 {
			e = uint64(set)
		}
		if stateName != "" {
			state, err = epoch.ParseNetworkEpochState(stateName)
			if err != nil {
				return err
			}
		}

		if err := source.WriteEpoch(e, state); err != nil {
			return err
		}

		conf.Logger().WithField("epoch", e).WithField("state", state).Info("Epoch written")
	}

	e, state, err := source.Epoch(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d %s\n", e, state)
	return nil
}
