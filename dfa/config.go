package dfa

import "github.com/coregx/qdfa/canon"

// Config configures DFA construction.
type Config struct {
	// MaxStates is the maximum number of DFA states to build.
	// Construction fails with ErrStateLimitExceeded beyond it.
	//
	// Default: 10,000 states
	//
	// Counted repetitions keep the state count low since counters live
	// outside the states, but alternations of many overlapping classes
	// can still blow up.
	MaxStates uint32

	// PrioritySensitive keeps states apart that contain the same NFA
	// states in a different priority order, and prunes transitions behind
	// a final target.
	//
	// Default: true (leftmost-first semantics)
	PrioritySensitive bool

	// BooleanMatch builds a DFA that only answers whether a match exists.
	//
	// Default: false
	BooleanMatch bool

	// Anchored starts from the anchored initial states instead of the
	// unanchored ones.
	//
	// Default: false
	Anchored bool
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxStates:         10_000,
		PrioritySensitive: true,
		BooleanMatch:      false,
		Anchored:          false,
	}
}

// Validate checks if the configuration is valid.
// Returns an error if any parameter is out of acceptable range.
func (c *Config) Validate() error {
	if c.MaxStates == 0 {
		return &DFAError{
			Kind:    InvalidConfig,
			Message: "MaxStates must be > 0",
		}
	}
	return nil
}

// WithMaxStates returns a new config with the specified max states
func (c Config) WithMaxStates(maxStates uint32) Config {
	c.MaxStates = maxStates
	return c
}

// WithPrioritySensitive returns a new config with priority sensitivity set
func (c Config) WithPrioritySensitive(enabled bool) Config {
	c.PrioritySensitive = enabled
	return c
}

// WithBooleanMatch returns a new config with boolean matching set
func (c Config) WithBooleanMatch(enabled bool) Config {
	c.BooleanMatch = enabled
	return c
}

// WithAnchored returns a new config with anchored starts set
func (c Config) WithAnchored(enabled bool) Config {
	c.Anchored = enabled
	return c
}

// canonConfig derives the canonicalizer settings.
func (c *Config) canonConfig() canon.Config {
	return canon.Config{
		PrioritySensitive: c.PrioritySensitive,
		BooleanMatch:      c.BooleanMatch,
	}
}
