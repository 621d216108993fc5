package layout

import (
	"hash/fnv"
	"math"
	"strconv"

	"github.com/rwyengine/relmap/pkg/graph"
)

// Seed places every node of g on a circle at a deterministic angle derived
// from a hash of its ID. Repeated opens of the same graph therefore always
// start the force simulation from the same configuration, which makes the
// final settled layout reproducible without any hidden randomness.
//
// The circle radius grows with the node count so the initial perimeter
// spacing stays near the spring rest length.
func Seed(g *graph.Graph, cfg Config) *State {
	cfg = cfg.Normalized()
	s := NewState()

	n := g.NodeCount()
	if n == 0 {
		return s
	}

	// Perimeter ≈ n * restLength keeps neighbors about a rest length apart.
	radius := cfg.RestLength * float64(n) / (2 * math.Pi)
	if radius < cfg.RestLength {
		radius = cfg.RestLength
	}

	for _, id := range g.NodeIDs() {
		angle := hashAngle(id)
		s.SetPosition(id, Point{
			X: radius * math.Cos(angle),
			Y: radius * math.Sin(angle),
		})
	}
	return s
}

// hashAngle maps a node ID to an angle in [0, 2π) via FNV-1a.
func hashAngle(id int64) float64 {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatInt(id, 10)))
	return 2 * math.Pi * float64(h.Sum64()) / float64(math.MaxUint64)
}
