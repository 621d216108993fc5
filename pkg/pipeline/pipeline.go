// Package pipeline provides the core visualization pipeline.
//
// This package implements the complete build → layout → render pipeline
// shared by the CLI and the HTTP server. Centralizing it keeps behavior
// identical across entry points and puts the caching logic in one place.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Build: Load entries and relationships from the store and derive the
//     graph
//  2. Layout: Compute node positions (tree placement or force simulation)
//  3. Render: Generate output in various formats (PNG, SVG, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    DBPath:  "story.db",
//	    Mode:    "force",
//	    Formats: []string{"png"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rwyengine/relmap/pkg/cache"
	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/layout"
	"github.com/rwyengine/relmap/pkg/store"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// DefaultMode is the default layout algorithm. Tree is the default because
// it is deterministic and instant; force mode is opt-in.
const DefaultMode = string(layout.ModeTree)

// DefaultScale is the default raster export scale (2x for high-DPI output).
const DefaultScale = 2.0

// Format constants for output formats.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the visualization pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Build options
	DBPath  string `json:"db_path,omitempty"`
	Query   string `json:"query,omitempty"`   // substring filter on entry titles
	Refresh bool   `json:"refresh,omitempty"` // bypass the graph cache

	// Layout options
	Mode   string        `json:"mode,omitempty"`
	Root   int64         `json:"root,omitempty"` // tree root entry (0 = auto)
	Layout layout.Config `json:"layout,omitempty"`

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Scale      float64  `json:"scale,omitempty"`
	Labels     bool     `json:"labels,omitempty"`
	EdgeLabels bool     `json:"edge_labels,omitempty"`
	Focus      int64    `json:"focus,omitempty"` // dim all but this node and its neighbors

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Store  store.Store `json:"-"` // overrides DBPath when set

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the derived relationship graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Layout contains the computed positions.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Diverged   bool // force run hit the iteration cap
	BuildTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // graph came from cache
	LayoutHit bool // layout came from cache
	RenderHit bool // all artifacts came from cache
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: png, svg, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForBuild(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForBuild checks required fields for the build stage.
func (o *Options) ValidateForBuild() error {
	if o.Store == nil && o.DBPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "db path is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForLayout validates and sets defaults for layout computation.
func (o *Options) ValidateForLayout() error {
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if _, err := layout.ParseMode(o.Mode); err != nil {
		return err
	}
	o.Layout = o.Layout.Normalized()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	return ValidateFormats(o.Formats)
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Mode:   o.Mode,
		Root:   o.Root,
		Params: o.Layout,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format: format,
		Scale:  o.Scale,
		Labels: o.Labels,
	}
}
