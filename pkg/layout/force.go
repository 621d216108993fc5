package layout

import (
	"context"
	"math"

	"github.com/rwyengine/relmap/pkg/errors"
	"github.com/rwyengine/relmap/pkg/graph"
)

// ForceSim settles a graph into a readable configuration by iterating three
// forces per node and step:
//
//   - repulsion between every node pair, ∝ 1/d² with a distance floor so
//     near-coincident nodes never produce a singular force
//   - spring attraction along each edge, ∝ (d − restLength)
//   - a weak pull toward the centroid of all nodes, preventing drift
//
// Integration is a damped explicit Euler step: dissipative on purpose so the
// system converges instead of oscillating. Pinned nodes contribute forces
// but their own velocity and position are never updated.
//
// The simulation is deterministic: identical graph and identical initial
// positions (see Seed) produce identical final layouts.
//
// ForceSim is not safe for concurrent use. Step mutates the state only
// after all forces have been accumulated from a consistent read, so the
// state's Snapshot is coherent at every step boundary.
type ForceSim struct {
	g     *graph.Graph
	state *State
	cfg   Config
	ids   []int64
	steps int
}

// NewForceSim creates a simulation over g mutating state. Nodes missing
// from state are seeded at the origin-circle position before the first step.
func NewForceSim(g *graph.Graph, state *State, cfg Config) *ForceSim {
	cfg = cfg.Normalized()
	sim := &ForceSim{
		g:     g,
		state: state,
		cfg:   cfg,
		ids:   g.NodeIDs(),
	}
	seeded := Seed(g, cfg)
	for _, id := range sim.ids {
		if _, ok := state.Position(id); !ok {
			p, _ := seeded.Position(id)
			state.SetPosition(id, p)
		}
	}
	return sim
}

// Steps returns the number of steps executed so far.
func (f *ForceSim) Steps() int { return f.steps }

// State returns the simulation's layout state.
func (f *ForceSim) State() *State { return f.state }

// Step advances the simulation by one iteration and returns the maximum
// displacement any node moved. Forces for every node are accumulated from
// the positions as they were at the start of the step; only then are
// velocities and positions written back, so no node ever sees a
// half-updated neighborhood.
func (f *ForceSim) Step() float64 {
	n := len(f.ids)
	if n == 0 {
		return 0
	}
	f.steps++

	pos := make([]Point, n)
	for i, id := range f.ids {
		pos[i], _ = f.state.Position(id)
	}

	var centroid Point
	for _, p := range pos {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Scale(1 / float64(n))

	index := make(map[int64]int, n)
	for i, id := range f.ids {
		index[id] = i
	}

	force := make([]Point, n)

	// Pairwise repulsion. Every node repels every other, pinned included.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dir, dist := direction(pos[i], pos[j], f.ids[i], f.ids[j])
			if dist < f.cfg.MinDistance {
				dist = f.cfg.MinDistance
			}
			mag := f.cfg.RepulsionStrength / (dist * dist)
			force[i] = force[i].Sub(dir.Scale(mag))
			force[j] = force[j].Add(dir.Scale(mag))
		}
	}

	// Spring attraction along edges toward the rest length.
	for _, e := range f.g.Edges() {
		i, okA := index[e.From]
		j, okB := index[e.To]
		if !okA || !okB || i == j {
			continue
		}
		dir, dist := direction(pos[i], pos[j], f.ids[i], f.ids[j])
		mag := f.cfg.SpringStrength * (dist - f.cfg.RestLength)
		force[i] = force[i].Add(dir.Scale(mag))
		force[j] = force[j].Sub(dir.Scale(mag))
	}

	// Weak centering on unpinned nodes.
	for i, id := range f.ids {
		if f.state.Pinned(id) {
			continue
		}
		force[i] = force[i].Add(centroid.Sub(pos[i]).Scale(f.cfg.CenteringStrength))
	}

	// Damped Euler integration. Pinned nodes keep their position and carry
	// no momentum into a later unpin.
	maxDisp := 0.0
	for i, id := range f.ids {
		if f.state.Pinned(id) {
			f.state.vel[id] = Point{}
			continue
		}
		vel := f.state.vel[id].Add(force[i].Scale(f.cfg.Timestep)).Scale(f.cfg.Damping)
		delta := vel.Scale(f.cfg.Timestep)
		f.state.vel[id] = vel
		f.state.pos[id] = pos[i].Add(delta)

		if d := math.Hypot(delta.X, delta.Y); d > maxDisp {
			maxDisp = d
		}
	}

	return maxDisp
}

// Run iterates until the maximum per-node displacement falls below Epsilon
// or MaxIterations is reached, checking ctx between steps so a caller can
// interrupt a long settle. On hitting the cap the best-effort layout is
// kept in the state and a DivergenceError is returned; callers may treat it
// as a warning.
func (f *ForceSim) Run(ctx context.Context) error {
	var disp float64
	for i := 0; i < f.cfg.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		disp = f.Step()
		if disp < f.cfg.Epsilon {
			return nil
		}
	}
	return &errors.DivergenceError{Iterations: f.cfg.MaxIterations, Displacement: disp}
}

// direction returns the unit vector from a to b and the distance between
// them. Exactly coincident points get a deterministic fallback direction
// derived from the node IDs so the simulation stays reproducible.
func direction(a, b Point, idA, idB int64) (Point, float64) {
	d := b.Sub(a)
	dist := math.Hypot(d.X, d.Y)
	if dist == 0 {
		if idA < idB {
			return Point{X: 1}, 0
		}
		return Point{X: -1}, 0
	}
	return d.Scale(1 / dist), dist
}
