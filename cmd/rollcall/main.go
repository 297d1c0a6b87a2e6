package main

import (
	"os"

	cmd "github.com/mosaicnetworks/rollcall/cmd/rollcall/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cmd.VersionCmd,
		cmd.NewInspectCmd(),
		cmd.NewLeaderCmd(),
		cmd.NewDiffCmd(),
		cmd.NewSnapshotCmd(),
		cmd.NewEpochCmd(),
		cmd.NewKeygenCmd(),
		cmd.NewServeCmd(),
	)

	//Do not print usage when error occurs
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
