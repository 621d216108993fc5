// Package cache provides pluggable byte caches for derived artifacts.
//
// Building a graph from the store, settling a force layout, and rasterizing
// a PNG are all pure functions of their inputs, so their outputs are cached
// under content-derived keys. Three backends are provided:
//
//   - [FileCache]: per-user on-disk cache for CLI usage
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: caching disabled
//
// The [Keyer] centralizes key construction so every producer and consumer
// derives identical keys from identical inputs.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with optional per-entry TTL.
type Cache interface {
	// Get retrieves the value for key. The second return reports a hit;
	// a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per pipeline stage. Graphs reflect a mutable database and
// expire quickly; layouts and artifacts are pure functions of their keys and
// can live longer.
const (
	TTLGraph    = time.Minute
	TTLLayout   = 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// =============================================================================
// Key Construction
// =============================================================================

// LayoutKeyOpts captures everything that changes a computed layout.
type LayoutKeyOpts struct {
	Mode   string // layout algorithm
	Root   int64  // tree root (0 = auto)
	Params any    // layout configuration, hashed structurally
}

// ArtifactKeyOpts captures everything that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format string  // "png", "svg", "dot"
	Scale  float64 // raster scale factor
	Labels bool    // node labels drawn
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// GraphKey generates a key for a built graph, from a hash of the
	// source entry and relationship sets.
	GraphKey(sourceHash string) string

	// LayoutKey generates a key for a computed layout.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard Keyer implementation.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

func (k *DefaultKeyer) GraphKey(sourceHash string) string {
	return hashKey("graph", sourceHash)
}

func (k *DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts.Mode, opts.Root, opts.Params)
}

func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts.Format, opts.Scale, opts.Labels)
}

var _ Keyer = (*DefaultKeyer)(nil)
