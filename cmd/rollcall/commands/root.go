package commands

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	_config = NewDefaultCLIConfig()
)

// RootCmd is the root command for rollcall
var RootCmd = &cobra.Command{
	Use:               "rollcall",
	Short:             "validator roster and leader selection",
	TraverseChildren:  true,
	PersistentPreRunE: loadConfig,
}

func init() {
	AddRootFlags(RootCmd)
}

// AddRootFlags adds the flags shared by every command
func AddRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("datadir", _config.Rollcall.DataDir, "Top-level directory for configuration and data")
	cmd.PersistentFlags().String("registry", _config.Rollcall.RegistryDir, "Directory containing the registry descriptor files")
	cmd.PersistentFlags().String("log", _config.Rollcall.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.PersistentFlags().String("log-file", _config.Rollcall.LogFile, "Also write logs to this file")
	cmd.PersistentFlags().String("sort-key", _config.Rollcall.SortKey, "Canonical ordering of rosters (key-hash-asc/v1, address-asc/v1)")

	// Store
	cmd.PersistentFlags().Bool("store", _config.Rollcall.Store, "Persist snapshots in badgerDB instead of memory")
	cmd.PersistentFlags().String("db", _config.Rollcall.DatabaseDir, "Dabatabase directory")
	cmd.PersistentFlags().Int("cache-size", _config.Rollcall.CacheSize, "Number of snapshots in the LRU cache")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	err := bindFlagsLoadViper(cmd, viper.GetViper())
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db or --registry, this will
	// move the defaults inside the new datadir
	_config.Rollcall.SetDataDir(_config.Rollcall.DataDir)

	logFields := logrus.Fields{
		"rollcall.DataDir":     _config.Rollcall.DataDir,
		"rollcall.RegistryDir": _config.Rollcall.RegistryDir,
		"rollcall.LogLevel":    _config.Rollcall.LogLevel,
		"rollcall.SortKey":     _config.Rollcall.SortKey,
		"rollcall.Store":       _config.Rollcall.Store,
		"rollcall.CacheSize":   _config.Rollcall.CacheSize,
	}

	if _config.Rollcall.Store {
		logFields["rollcall.DatabaseDir"] = _config.Rollcall.DatabaseDir
	}

	_config.Rollcall.Logger().WithFields(logFields).Debug("Config")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command, v *viper.Viper) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := v.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/rollcall.toml (.json, .yaml also work)
	v.SetConfigName("rollcall")               // name of config file (without extension)
	v.AddConfigPath(_config.Rollcall.DataDir) // search root directory

	// If a config file is found, read it in. Nothing may call Logger() before
	// the second unmarshal.
	var found string
	if err := v.ReadInConfig(); err == nil {
		found = v.ConfigFileUsed()
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return err
	}

	// second unmarshal to read from config file
	if err := v.Unmarshal(_config); err != nil {
		return err
	}

	if found != "" {
		_config.Rollcall.Logger().Debugf("Using config file: %s", found)
	} else {
		_config.Rollcall.Logger().Debugf("No config file found in: %s", _config.Rollcall.DataDir)
	}

	return nil
}
