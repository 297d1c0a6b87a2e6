// Package config defines the configuration of a rollcall process.
//
// The command line tool and library users share the Config object defined in
// this package. On top of these options, rollcall relies on a data directory,
// defined by Config.DataDir, where it expects to find:
//
//	rollcall.toml // (optional) configuration file, also .json or .yaml.
//	registry/ // epoch.json, validators.json and validators.next.json.
//	badger_db/ // (optional) the snapshot database when Store is set.
package config
