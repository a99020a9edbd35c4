package injector

import (
	"errors"
	"log/slog"

	"github.com/launchpath/injector/arch"
	"github.com/launchpath/injector/model"
	"github.com/launchpath/injector/solve"
)

// Option configures solving behavior.
type Option func(*solveConfig) error

// solveConfig holds all solving configuration.
type solveConfig struct {
	offline         bool
	helpWithTesting bool
	useFlags        map[string]bool
	extra           map[string][]model.Restriction
	osName          string
	machine         string
	maxRoles        int

	// logger is the structured logger for debug output. If nil, logging
	// is disabled (silent mode).
	logger *slog.Logger
}

// WithOffline marks the network as unavailable. Solving itself works the
// same either way, but failure reports then note that missing candidates
// may be a consequence of being off-line.
func WithOffline() Option {
	return func(c *solveConfig) error {
		c.offline = true
		return nil
	}
}

// WithHelpWithTesting accepts testing-stability implementations as if
// they were stable, so users can opt in to pre-release versions.
func WithHelpWithTesting() Option {
	return func(c *solveConfig) error {
		c.helpWithTesting = true
		return nil
	}
}

// WithUseFlags enables the named use flags. Dependencies guarded by a
// use flag are skipped unless every flag they name is enabled.
func WithUseFlags(flags ...string) Option {
	return func(c *solveConfig) error {
		if c.useFlags == nil {
			c.useFlags = make(map[string]bool)
		}
		for _, f := range flags {
			c.useFlags[f] = true
		}
		return nil
	}
}

// WithExtraRestrictions adds caller-supplied restrictions for an
// interface, applied to every candidate regardless of which dependency
// edge demanded it.
func WithExtraRestrictions(uri string, rs ...model.Restriction) Option {
	return func(c *solveConfig) error {
		if err := model.ValidateInterface(uri); err != nil {
			return err
		}
		if c.extra == nil {
			c.extra = make(map[string][]model.Restriction)
		}
		c.extra[uri] = append(c.extra[uri], rs...)
		return nil
	}
}

// WithOS overrides the host operating system used for architecture
// filtering.
func WithOS(name string) Option {
	return func(c *solveConfig) error {
		c.osName = name
		return nil
	}
}

// WithMachine overrides the host machine type used for architecture
// filtering.
func WithMachine(name string) Option {
	return func(c *solveConfig) error {
		c.machine = name
		return nil
	}
}

// WithMaxRoles bounds how many roles one solve may explore before
// failing closed. Zero keeps the default.
func WithMaxRoles(n int) Option {
	return func(c *solveConfig) error {
		if n < 0 {
			return errors.New("max roles must not be negative")
		}
		c.maxRoles = n
		return nil
	}
}

// WithLogger sets a structured logger for solving diagnostics. If not
// set, logging is disabled (silent mode).
func WithLogger(l *slog.Logger) Option {
	return func(c *solveConfig) error {
		c.logger = l
		return nil
	}
}

// newSolveConfig creates a configuration by applying the given options.
func newSolveConfig(opts ...Option) (*solveConfig, error) {
	c := &solveConfig{
		osName:   arch.HostOS(),
		machine:  arch.HostMachine(),
		maxRoles: solve.DefaultMaxRoles,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
