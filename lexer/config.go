package lexer

import (
	"fmt"
	"log/slog"

	"github.com/coregx/lexgen/input"
)

// Config configures a lexing session.
type Config struct {
	// TabWidth is the number of columns a tab advances the position by.
	//
	// Default: 4
	TabWidth uint32

	// Logger receives debug events: rule-set switches, invalid tokens and
	// recovery skips. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultConfig returns a configuration with a tab width of 4 and the default logger.
func DefaultConfig() Config {
	return Config{
		TabWidth: input.DefaultTabWidth,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TabWidth == 0 || c.TabWidth > 64 {
		return &Error{
			Kind:    InvalidConfig,
			Message: fmt.Sprintf("TabWidth must be in range [1, 64], got %d", c.TabWidth),
		}
	}
	return nil
}

// WithTabWidth returns a new config with the specified tab width
func (c Config) WithTabWidth(n uint32) Config {
	c.TabWidth = n
	return c
}

// WithLogger returns a new config with the specified logger
func (c Config) WithLogger(logger *slog.Logger) Config {
	c.Logger = logger
	return c
}
