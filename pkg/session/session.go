// Package session manages one open relationship-map visualization.
//
// A Session owns the single live layout state for a graph: the graph
// snapshot, the active layout mode, the per-node positions, and the force
// simulation when force mode is active. It is the explicit replacement for
// "current open graph" global state - callers hold a *Session and pass it
// around.
//
// # Concurrency
//
// All methods serialize on an internal mutex. A simulation step holds the
// lock for the whole step, so drag events and mode switches block until the
// current iteration finishes and are applied before the next one begins;
// the simulation never runs to completion uninterrupted. Snapshot also
// takes the lock, so renderers and exporters only ever observe positions at
// a step boundary, never a half-updated node set.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
	"github.com/rwyengine/relmap/pkg/layout"
)

// Session holds the graph, layout state, and mode for one open
// visualization.
type Session struct {
	id   string
	g    *graph.Graph
	cfg  layout.Config
	root int64

	mu        sync.Mutex
	mode      layout.Mode
	state     *layout.State
	sim       *layout.ForceSim
	converged bool
	diverged  bool

	dragging int64                  // node held by an active drag, 0 when idle
	preDrag  map[int64]layout.Point // positions recorded at drag start
}

// Open creates a session for g in the given mode and computes the initial
// layout. For tree mode, root designates the hierarchy root (0 auto-selects
// one per component). For force mode the state is seeded deterministically;
// call Settle or drive Step to let it converge.
func Open(g *graph.Graph, mode layout.Mode, root int64, cfg layout.Config) (*Session, error) {
	s := &Session{
		id:      uuid.NewString(),
		g:       g,
		cfg:     cfg,
		root:    root,
		preDrag: make(map[int64]layout.Point),
	}
	if err := s.reset(mode); err != nil {
		return nil, err
	}
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Graph returns the immutable graph snapshot backing the session.
func (s *Session) Graph() *graph.Graph { return s.g }

// Mode returns the active layout mode.
func (s *Session) Mode() layout.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode switches the layout algorithm. The previous layout state is
// discarded and replaced: tree mode recomputes wholesale, force mode starts
// from the seeded placement. Pins and active drags do not survive a switch.
func (s *Session) SetMode(mode layout.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reset(mode)
}

// reset rebuilds the layout state for the given mode. Caller holds the lock
// (or is the constructor).
func (s *Session) reset(mode layout.Mode) error {
	s.dragging = 0
	s.preDrag = make(map[int64]layout.Point)
	s.diverged = false

	switch mode {
	case layout.ModeTree:
		st, err := layout.Tree(s.g, s.root, s.cfg)
		if err != nil {
			return err
		}
		s.mode = mode
		s.state = st
		s.sim = nil
		s.converged = true
		return nil
	case layout.ModeForce:
		s.mode = mode
		s.state = layout.Seed(s.g, s.cfg)
		s.sim = layout.NewForceSim(s.g, s.state, s.cfg)
		s.converged = s.g.NodeCount() == 0
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidMode, "unknown layout mode %q", mode)
	}
}

// Step advances the force simulation by one iteration and reports whether
// the layout has settled. In tree mode Step is a no-op returning true.
//
// The lock is held for exactly one iteration, so pending interaction input
// is applied between steps, never mid-step.
func (s *Session) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != layout.ModeForce || s.sim == nil {
		return true
	}
	disp := s.sim.Step()
	s.converged = disp < s.cfg.Epsilon && s.dragging == 0
	if s.sim.Steps() >= s.cfg.MaxIterations && !s.converged {
		s.diverged = true
	}
	return s.converged
}

// Settle runs the force simulation to convergence or the iteration cap,
// releasing the lock between iterations so drags and mode switches can
// interleave. Returns a DivergenceError (usable as a warning) when the cap
// is hit first; the best-effort layout is kept either way.
func (s *Session) Settle(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.mu.Lock()
		if s.mode != layout.ModeForce || s.sim == nil || s.converged {
			s.mu.Unlock()
			return nil
		}
		disp := s.sim.Step()
		s.converged = disp < s.cfg.Epsilon && s.dragging == 0
		if !s.converged && s.sim.Steps() >= s.cfg.MaxIterations {
			s.diverged = true
			steps := s.sim.Steps()
			s.mu.Unlock()
			return &errors.DivergenceError{Iterations: steps, Displacement: disp}
		}
		s.mu.Unlock()
	}
}

// Steps returns the number of force iterations executed since the last
// reset (0 in tree mode).
func (s *Session) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sim == nil {
		return 0
	}
	return s.sim.Steps()
}

// Converged reports whether the layout is settled (always true in tree
// mode).
func (s *Session) Converged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.converged
}

// Diverged reports whether a force run hit the iteration cap without
// settling.
func (s *Session) Diverged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.diverged
}

// Snapshot returns a consistent copy of all node positions, taken at a step
// boundary.
func (s *Session) Snapshot() map[int64]layout.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Pinned reports whether the node is excluded from automatic layout.
func (s *Session) Pinned(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Pinned(id)
}

// Unpin releases a node back to automatic layout and wakes the simulation
// so it can absorb the change.
func (s *Session) Unpin(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Unpin(id)
	s.converged = false
}

// Layout exports the session's current layout as a serializable document.
func (s *Session) Layout() graph.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := graph.Layout{
		Mode:     string(s.mode),
		Diverged: s.diverged,
		Edges:    s.g.Edges(),
	}
	for _, n := range s.g.Nodes() {
		doc.Nodes = append(doc.Nodes, *n)
		p, _ := s.state.Position(n.ID)
		doc.Positions = append(doc.Positions, graph.Position{
			ID:     n.ID,
			X:      p.X,
			Y:      p.Y,
			Pinned: s.state.Pinned(n.ID),
		})
	}
	return doc
}
