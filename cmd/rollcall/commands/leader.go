package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/mosaicnetworks/rollcall/src/common"
	"github.com/mosaicnetworks/rollcall/src/config"
	"github.com/spf13/cobra"
)

var (
	leaderKey  string
	leaderHex  bool
	leaderAddr string
)

// NewLeaderCmd returns the command that selects the leader for a hash key
func NewLeaderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leader",
		Short: "Select the leader among active peers for a hash key",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := leaderHashKey(leaderKey, leaderHex)
			if err != nil {
				return err
			}
			return leader(context.Background(), &_config.Rollcall, _config.Next, key, leaderAddr, cmd.OutOrStdout())
		},
	}
	AddLeaderFlags(cmd)
	return cmd
}

// AddLeaderFlags adds flags to the leader command
func AddLeaderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&leaderKey, "key", "", "Hash key used to select the leader")
	cmd.Flags().BoolVar(&leaderHex, "hex", false, "Decode --key as hex instead of raw bytes")
	cmd.Flags().StringVar(&leaderAddr, "addr", "", "Only report whether this socket address is the leader")
	cmd.Flags().Bool("next", _config.Next, "Select from the next roster instead of the current one")
}

func leaderHashKey(key string, isHex bool) ([]byte, error) {
	if !isHex {
		return []byte(key), nil
	}

	b, err := common.DecodeFromString(key)
	if err != nil {
		return nil, fmt.Errorf("decoding hash key: %w", err)
	}
	return b, nil
}

func leader(ctx context.Context, conf *config.Config, next bool, key []byte, addr string, out io.Writer) error {
	snap, err := loadSnapshot(ctx, conf)
	if err != nil {
		return err
	}

	peerSet := snap.Current
	if next {
		peerSet = snap.Next
	}
	peerSet = peerSet.ActivePeers()

	if addr != "" {
		fmt.Fprintf(out, "%t\n", peerSet.AddressIsLeader(key, addr))
		return nil
	}

	p, err := peerSet.LeaderForActivePeers(key)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\t%016x\t%s\n", p.NetAddr, p.KeyHash, p.DebugAddress())
	return nil
}
