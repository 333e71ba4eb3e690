package canon

// Config configures how fragments are split and merged.
type Config struct {
	// PrioritySensitive preserves the priority order of target states.
	// Fragments are only merged if they reach the same states in the same
	// order, and transitions behind a fragment that already reaches a
	// final state are pruned.
	//
	// Default: true (leftmost-first semantics)
	PrioritySensitive bool

	// BooleanMatch reports only whether a match exists. Transitions behind
	// a fragment that already reaches a final state are pruned.
	//
	// Default: false
	BooleanMatch bool
}

// DefaultConfig returns a configuration for leftmost-first matching.
func DefaultConfig() Config {
	return Config{
		PrioritySensitive: true,
		BooleanMatch:      false,
	}
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

// prunes reports whether transitions after a final target may be dropped.
func (c Config) prunes() bool {
	return c.PrioritySensitive || c.BooleanMatch
}
