package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation. Useful
// when several puzzles or users share one redis instance and need separate
// cache namespaces.
//
// Example usage:
//
//	// Per-deployment keys on a shared redis
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "lab:cluster7:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TableKey generates a prefixed key for a persisted pruning table.
func (k *ScopedKeyer) TableKey(puzzleID, scheme, targetKey string) string {
	return k.prefix + k.inner.TableKey(puzzleID, scheme, targetKey)
}

// SolutionKey generates a prefixed key for a solved target.
func (k *ScopedKeyer) SolutionKey(puzzleID, targetKey string) string {
	return k.prefix + k.inner.SolutionKey(puzzleID, targetKey)
}
