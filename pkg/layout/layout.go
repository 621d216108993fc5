// Package layout computes 2D positions for relationship graphs.
//
// Two interchangeable algorithms are provided:
//
//   - Tree: deterministic breadth-first placement under a designated root,
//     with subtree slot widths so siblings never overlap. Recomputed
//     wholesale on structural change.
//   - Force: iterative physical simulation (pairwise repulsion, spring
//     attraction along edges, weak centering) integrated with a damped
//     explicit Euler step until convergence or an iteration cap.
//
// Both consume a read-only graph.Graph and produce a State, the single
// mutable source of truth for node positions. Renderers only ever read a
// State snapshot; drag interaction mutates it through the session layer.
package layout

import (
	"maps"

	"github.com/rwyengine/relmap/pkg/errors"
)

// Mode identifies a layout algorithm.
type Mode string

// Layout modes.
const (
	ModeTree  Mode = "tree"
	ModeForce Mode = "force"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeTree, ModeForce:
		return Mode(s), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidMode, "unknown layout mode %q (must be tree or force)", s)
	}
}

// =============================================================================
// Config - Layout Parameters
// =============================================================================

// Config holds the tunable layout parameters. The force constants are
// implementation choices, not physical truths; they are exposed through the
// TOML config file so users can tune readability for dense maps.
type Config struct {
	// Force simulation
	RepulsionStrength float64 `toml:"repulsion_strength"` // pairwise push, scaled by 1/d²
	SpringStrength    float64 `toml:"spring_strength"`    // pull per unit of stretch along edges
	RestLength        float64 `toml:"rest_length"`        // edge length the springs relax toward
	CenteringStrength float64 `toml:"centering_strength"` // weak pull toward the centroid
	Damping           float64 `toml:"damping"`            // velocity decay factor per step
	Timestep          float64 `toml:"timestep"`           // Euler integration step
	MaxIterations     int     `toml:"max_iterations"`     // hard cap on simulation steps
	Epsilon           float64 `toml:"epsilon"`            // convergence displacement threshold
	MinDistance       float64 `toml:"min_distance"`       // repulsion distance floor (singularity guard)

	// Tree placement
	LevelSpacing float64 `toml:"level_spacing"` // vertical gap between depth levels
	SlotWidth    float64 `toml:"slot_width"`    // horizontal slot allocated per leaf
}

// DefaultConfig returns the default layout parameters.
func DefaultConfig() Config {
	return Config{
		RepulsionStrength: 6400,
		SpringStrength:    0.02,
		RestLength:        140,
		CenteringStrength: 0.005,
		Damping:           0.85,
		Timestep:          1.0,
		MaxIterations:     300,
		Epsilon:           0.05,
		MinDistance:       12,
		LevelSpacing:      170,
		SlotWidth:         150,
	}
}

// Normalized fills zero-valued parameters with defaults so a partially
// populated config (e.g. from a sparse TOML file) stays usable.
func (c Config) Normalized() Config {
	d := DefaultConfig()
	if c.RepulsionStrength == 0 {
		c.RepulsionStrength = d.RepulsionStrength
	}
	if c.SpringStrength == 0 {
		c.SpringStrength = d.SpringStrength
	}
	if c.RestLength == 0 {
		c.RestLength = d.RestLength
	}
	if c.CenteringStrength == 0 {
		c.CenteringStrength = d.CenteringStrength
	}
	if c.Damping == 0 {
		c.Damping = d.Damping
	}
	if c.Timestep == 0 {
		c.Timestep = d.Timestep
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Epsilon == 0 {
		c.Epsilon = d.Epsilon
	}
	if c.MinDistance == 0 {
		c.MinDistance = d.MinDistance
	}
	if c.LevelSpacing == 0 {
		c.LevelSpacing = d.LevelSpacing
	}
	if c.SlotWidth == 0 {
		c.SlotWidth = d.SlotWidth
	}
	return c
}

// =============================================================================
// Point / State
// =============================================================================

// Point is a 2D coordinate.
type Point struct {
	X float64
	Y float64
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// State holds the mutable per-node layout data for one open visualization:
// position, velocity (force mode only), and the pinned flag. It is created
// when a graph is opened, mutated by the layout engine each step and by drag
// interaction, and discarded when the entry set or mode changes.
//
// State is not safe for concurrent mutation; the owning session serializes
// access. Readers use Snapshot, which is only taken at step boundaries so a
// half-updated node set is never observed.
type State struct {
	pos    map[int64]Point
	vel    map[int64]Point
	pinned map[int64]bool
}

// NewState creates an empty state.
func NewState() *State {
	return &State{
		pos:    make(map[int64]Point),
		vel:    make(map[int64]Point),
		pinned: make(map[int64]bool),
	}
}

// Position returns the node's current position and whether it is placed.
func (s *State) Position(id int64) (Point, bool) {
	p, ok := s.pos[id]
	return p, ok
}

// SetPosition places the node at p. The node's velocity is reset: an
// explicitly placed node should not keep drifting from stale momentum.
func (s *State) SetPosition(id int64, p Point) {
	s.pos[id] = p
	s.vel[id] = Point{}
}

// Pin excludes the node from automatic repositioning. Pinned nodes still
// exert forces on others.
func (s *State) Pin(id int64) { s.pinned[id] = true }

// Unpin releases the node back to automatic layout.
func (s *State) Unpin(id int64) { delete(s.pinned, id) }

// Pinned reports whether the node is excluded from automatic layout.
func (s *State) Pinned(id int64) bool { return s.pinned[id] }

// Len returns the number of placed nodes.
func (s *State) Len() int { return len(s.pos) }

// Snapshot returns a copy of all positions. Snapshots are taken at step
// boundaries only, so renderers and exporters always see a consistent set.
func (s *State) Snapshot() map[int64]Point {
	return maps.Clone(s.pos)
}
