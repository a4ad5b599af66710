// Package cache persists expensive artifacts between runs: pruning tables,
// which can take minutes to build, and previously solved targets.
//
// Backends implement the Cache interface over opaque byte payloads; key
// construction is the Keyer's job so every backend shares one namespace
// scheme. The file backend serves single-host CLI usage, the redis backend
// shares tables between hosts, and the null backend disables caching.
package cache

import (
	"context"
	"time"
)

// Default retention periods. Tables carry the puzzle ID in their payload and
// are revalidated on load, so they can live forever; solutions are kept long
// enough to serve repeated architecture searches.
const (
	TableTTL    = 0 // never expires
	SolutionTTL = 30 * 24 * time.Hour
)

// Cache stores opaque byte payloads under string keys.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports a hit; a miss is not
	// an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a time-to-live. A ttl of zero means no
	// expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys for the artifact types the solver persists.
type Keyer interface {
	// TableKey identifies a pruning table by puzzle, coordinate scheme, and
	// the target its goal set was seeded from. Tables are target-specific:
	// two targets over the same slots seed different goal sets, so they must
	// never share a cache entry.
	TableKey(puzzleID, scheme, targetKey string) string

	// SolutionKey identifies a solved target by puzzle and target.
	SolutionKey(puzzleID, targetKey string) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// TableKey generates a key for a persisted pruning table.
func (k *DefaultKeyer) TableKey(puzzleID, scheme, targetKey string) string {
	return hashKey("table", puzzleID, scheme, targetKey)
}

// SolutionKey generates a key for a solved target.
func (k *DefaultKeyer) SolutionKey(puzzleID, targetKey string) string {
	return hashKey("solution", puzzleID, targetKey)
}
