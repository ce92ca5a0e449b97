// Package voronoi computes a discrete geodesic Voronoi partition of a mesh
// surface. Each seed propagates a shortest-path front over the vertex
// adjacency graph independently; a single-threaded fold merges the fronts
// by minimum distance with a deterministic lowest-seed-id tie-break, so the
// result is identical for any worker count. Bisector curves are extracted
// as chained per-edge crossing points between adjacent cells.
package voronoi

import (
	"context"
	"math"

	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/pkg/errors"

	"github.com/chazu/voronoimaker/pkg/mesh"
	"github.com/chazu/voronoimaker/pkg/pool"
	"github.com/chazu/voronoimaker/pkg/seed"
)

// ErrNoSeeds is returned when Partition is called with an empty seed set.
var ErrNoSeeds = errors.New("voronoi: no seeds")

// ErrDisconnected is returned when some vertex is unreachable from every
// seed. That indicates a malformed mesh (disconnected shells); it is
// reported, not patched.
var ErrDisconnected = errors.New("voronoi: partition is disconnected; a vertex is unreachable from every seed")

// Options tunes the partition. TieEpsilon is the distance tolerance inside
// which two fronts count as tied (default proportional to mean edge
// length); Pool supplies the workers for per-seed propagation.
type Options struct {
	TieEpsilon float64
	Pool       *pool.Pool
}

// Field maps every mesh vertex to its nearest seed and the geodesic
// distance to it.
type Field struct {
	SeedID []int
	Dist   []float64
}

// CellCount returns the number of distinct cells present in the field.
func (f *Field) CellCount() int {
	seen := make(map[int]bool)
	for _, id := range f.SeedID {
		seen[id] = true
	}
	return len(seen)
}

// BisectorCurve is an ordered polyline on the mesh surface separating the
// cells of two seeds. SeedA < SeedB always holds.
type BisectorCurve struct {
	SeedA, SeedB int
	Points       []vec3.T
}

// Partition computes the partition field and the bisector curves between
// adjacent cells. Weighted seeds shrink their own distance field in
// proportion to their weight, giving the power-style partition radial mode
// relies on.
func Partition(ctx context.Context, m *mesh.Mesh, seeds []seed.Seed, opts Options) (*Field, []BisectorCurve, error) {
	if len(seeds) == 0 {
		return nil, nil, ErrNoSeeds
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	p := opts.Pool
	if p == nil {
		p = pool.New(0)
	}
	tieEps := opts.TieEpsilon
	if tieEps <= 0 {
		tieEps = 1e-9 + 0.01*m.MeanEdgeLength()
	}

	// Map phase: one propagation front per seed, each task owning its slot.
	dists := make([][]float64, len(seeds))
	err := p.Map(ctx, len(seeds), func(i int) error {
		src := nearestVertex(m, seeds[i].Pos)
		d := shortestPaths(m, src)
		if w := seeds[i].Weight; w > 0 && w != 1 {
			for vi := range d {
				d[vi] *= w
			}
		}
		dists[i] = d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// Fold phase: single-threaded merge. Seeds are visited in ascending id
	// order so a tie inside tieEps keeps the lowest id.
	field := &Field{
		SeedID: make([]int, m.VertexCount()),
		Dist:   make([]float64, m.VertexCount()),
	}
	for vi := 0; vi < m.VertexCount(); vi++ {
		bestID, best := -1, math.Inf(1)
		for si := range seeds {
			d := dists[si][vi]
			if d < best-tieEps {
				bestID, best = seeds[si].ID, d
			}
		}
		if bestID < 0 {
			return nil, nil, ErrDisconnected
		}
		field.SeedID[vi] = bestID
		field.Dist[vi] = best
	}

	curves := extractBisectors(m, seeds, field, dists)
	return field, curves, nil
}

// nearestVertex snaps a seed position to its closest mesh vertex, the
// source of that seed's propagation front.
func nearestVertex(m *mesh.Mesh, p vec3.T) int {
	best, bestDist := 0, math.Inf(1)
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		d := vec3.Sub(&v, &p)
		if l := d.LengthSqr(); l < bestDist {
			best, bestDist = i, l
		}
	}
	return best
}
