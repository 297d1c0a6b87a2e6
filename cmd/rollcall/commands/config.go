package commands

import (
	"github.com/mosaicnetworks/rollcall/src/config"
)

// CLIConfig contains configuration for the rollcall commands
type CLIConfig struct {
	Rollcall config.Config `mapstructure:",squash"`
	Next     bool          `mapstructure:"next"`
}

// NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Rollcall: *config.NewDefaultConfig(),
		Next:     false,
	}
}
