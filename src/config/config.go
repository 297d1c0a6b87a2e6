package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/mosaicnetworks/rollcall/src/common"
	"github.com/mosaicnetworks/rollcall/src/peers"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"

	// DefaultRegistryDir is the default name of the folder containing the
	// registry descriptor files
	DefaultRegistryDir = "registry"
)

// Default configuration values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFile   = ""
	DefaultCacheSize = 100
	DefaultStore     = false
	DefaultSortKey   = string(peers.DefaultSortKey)
)

// Config contains all the configuration properties of a rollcall process.
type Config struct {
	// DataDir is the top-level directory containing rollcall configuration
	// and data
	DataDir string `mapstructure:"datadir"`

	// RegistryDir is the directory holding epoch.json, validators.json and
	// the optional validators.next.json.
	RegistryDir string `mapstructure:"registry"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, if set, receives a copy of every log entry.
	LogFile string `mapstructure:"log-file"`

	// Store activates persistant storage of roster snapshots.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// CacheSize is the max number of snapshots kept in memory.
	CacheSize int `mapstructure:"cache-size"`

	// SortKey names the canonical ordering applied to ingested rosters.
	SortKey string `mapstructure:"sort-key"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:     DefaultDataDir(),
		RegistryDir: DefaultRegistryPath(),
		LogLevel:    DefaultLogLevel,
		LogFile:     DefaultLogFile,
		Store:       DefaultStore,
		DatabaseDir: DefaultDatabaseDir(),
		CacheSize:   DefaultCacheSize,
		SortKey:     DefaultSortKey,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the registry and
// database directories if they are currently set to their default values. A
// directory that is not the default has been set explicitely by the user, so
// it is left alone.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
	if c.RegistryDir == DefaultRegistryPath() {
		c.RegistryDir = filepath.Join(dataDir, DefaultRegistryDir)
	}
}

// CanonicalSortKey parses the configured SortKey.
func (c *Config) CanonicalSortKey() (peers.SortKey, error) {
	return peers.ParseSortKey(c.SortKey)
}

// Logger returns a formatted logrus Entry, with prefix set to "rollcall".
// When LogFile is set, entries are also written to that file.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			c.logger.Hooks.Add(lfshook.NewHook(
				lfshook.PathMap{
					logrus.DebugLevel: c.LogFile,
					logrus.InfoLevel:  c.LogFile,
					logrus.WarnLevel:  c.LogFile,
					logrus.ErrorLevel: c.LogFile,
					logrus.FatalLevel: c.LogFile,
					logrus.PanicLevel: c.LogFile,
				},
				&logrus.TextFormatter{},
			))
		}
	}
	return c.logger.WithField("prefix", "rollcall")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultRegistryPath returns the default path of the registry descriptor
// files.
func DefaultRegistryPath() string {
	return filepath.Join(DefaultDataDir(), DefaultRegistryDir)
}

// DefaultDataDir return the default directory name for top-level rollcall
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Rollcall")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Rollcall")
		} else {
			return filepath.Join(home, ".rollcall")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
