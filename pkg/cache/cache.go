package cache

import (
	"context"
	"time"
)

// Cache stores serialized resolution artifacts keyed by content hash.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present; an absent key is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// ResultKeyOpts are the resolution parameters that distinguish otherwise
// identical cache entries. Two runs over the same graph with different
// engines or tolerances must never share a result.
type ResultKeyOpts struct {
	Engine        string
	Tolerance     float64
	MaxIterations int
}

// Keyer generates cache keys for the artifacts produced during resolution.
type Keyer interface {
	// GraphKey generates a key for a collapsed graph, derived from the
	// input graph's content hash.
	GraphKey(graphHash string) string

	// ResultKey generates a key for a resolution result.
	ResultKey(graphHash string, opts ResultKeyOpts) string
}

// DefaultKeyer generates deterministic SHA-256 based keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// GraphKey generates a key for a collapsed graph.
func (k *DefaultKeyer) GraphKey(graphHash string) string {
	return hashKey("collapse", graphHash)
}

// ResultKey generates a key for a resolution result.
func (k *DefaultKeyer) ResultKey(graphHash string, opts ResultKeyOpts) string {
	return hashKey("result", graphHash, opts.Engine, opts.Tolerance, opts.MaxIterations)
}
