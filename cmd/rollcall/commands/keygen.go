package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mosaicnetworks/rollcall/src/config"
	"github.com/mosaicnetworks/rollcall/src/crypto/keys"
	"github.com/mosaicnetworks/rollcall/src/peers"
	"github.com/mosaicnetworks/rollcall/src/registry"
	"github.com/spf13/cobra"
)

// DefaultKeyfile is the name of the wallet key file in the data directory.
const DefaultKeyfile = "priv_key"

var (
	keygenAddr     string
	keygenVersion  string
	keygenRealm    uint64
	keygenRegister bool
)

// NewKeygenCmd produces a KeygenCmd which creates a wallet key and prints its
// registry descriptor
func NewKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create a wallet key and its registry descriptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return keygen(context.Background(), &_config.Rollcall, _config.Next, keygenRegister, keygenAddr, cmd.OutOrStdout())
		},
	}

	AddKeygenFlags(cmd)

	return cmd
}

// AddKeygenFlags adds flags to the keygen command
func AddKeygenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&keygenAddr, "addr", "127.0.0.1:7470", "Socket address announced in the descriptor")
	cmd.Flags().StringVar(&keygenVersion, "version", "0.0.0", "Software version announced in the descriptor")
	cmd.Flags().Uint64Var(&keygenRealm, "realm", 1, "Realm announced in the descriptor")
	cmd.Flags().BoolVar(&keygenRegister, "register", false, "Append the descriptor to the registry")
	cmd.Flags().Bool("next", _config.Next, "Register in the next roster instead of the current one")
}

func keygen(ctx context.Context, conf *config.Config, next, register bool, addr string, out io.Writer) error {
	keyfile := keys.NewSimpleKeyfile(filepath.Join(conf.DataDir, DefaultKeyfile))

	if _, err := os.Stat(keyfile.Path()); err == nil {
		return fmt.Errorf("A key already lives under: %s", conf.DataDir)
	}

	key, err := keys.GenerateKey()
	if err != nil {
		return fmt.Errorf("Error generating wallet key: %w", err)
	}

	if err := keyfile.WriteKey(key); err != nil {
		return fmt.Errorf("Writing private key: %w", err)
	}

	id, err := keys.PeerID(key)
	if err != nil {
		return err
	}

	conf.Logger().WithField("peer", id.Hex()).Infof("Private key saved to %s", keyfile.Path())

	source := registry.NewJSONSource(conf.RegistryDir)

	var roster []peers.RawDescriptor
	if register {
		if next {
			roster, err = source.NextValidators(ctx)
		} else {
			roster, err = source.CurrentValidators(ctx)
			if os.IsNotExist(err) {
				err = nil
			}
		}
		if err != nil {
			return err
		}
	}

	desc := keys.Descriptor(key, uint64(len(roster)), addr, keygenVersion, keygenRealm)

	if register {
		if err := source.WriteValidators(append(roster, desc), next); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(desc)
}
