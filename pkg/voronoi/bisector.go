package voronoi

import (
	"sort"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/chazu/voronoimaker/pkg/mesh"
	"github.com/chazu/voronoimaker/pkg/seed"
)

// crossing is one bisector point on a mesh edge.
type crossing struct {
	edge  mesh.Edge
	point vec3.T
}

// seedPair keys bisector curves. A < B.
type seedPair struct {
	A, B int
}

// extractBisectors walks every mesh edge whose endpoints belong to
// different cells, interpolates the crossing point from the two distance
// fields, and chains crossings that share a face into polylines per seed
// pair. Edges are processed in sorted index order so the output is
// deterministic for a given field.
func extractBisectors(m *mesh.Mesh, seeds []seed.Seed, field *Field, dists [][]float64) []BisectorCurve {
	idIndex := make(map[int]int, len(seeds))
	for i, s := range seeds {
		idIndex[s.ID] = i
	}

	edges := sortedEdges(m)
	groups := make(map[seedPair][]crossing)
	// Face incidence per pair, resolved during chaining.
	crossFaces := make(map[seedPair][][]int)

	for _, e := range edges {
		sa, sb := field.SeedID[e.A], field.SeedID[e.B]
		if sa == sb {
			continue
		}
		pair := seedPair{A: sa, B: sb}
		if pair.A > pair.B {
			pair.A, pair.B = pair.B, pair.A
		}

		ia, ib := idIndex[sa], idIndex[sb]
		fa := dists[ia][e.A] - dists[ib][e.A] // <= 0: A end is closer to sa
		fb := dists[ia][e.B] - dists[ib][e.B] // >= 0
		t := 0.5
		if denom := fa - fb; denom < -1e-30 || denom > 1e-30 {
			t = fa / denom
		}
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}

		va, vb := m.Vertex(e.A), m.Vertex(e.B)
		p := vec3.T{
			va[0] + t*(vb[0]-va[0]),
			va[1] + t*(vb[1]-va[1]),
			va[2] + t*(vb[2]-va[2]),
		}
		groups[pair] = append(groups[pair], crossing{edge: e, point: p})
		crossFaces[pair] = append(crossFaces[pair], m.EdgeFaces()[e])
	}

	pairs := make([]seedPair, 0, len(groups))
	for pair := range groups {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})

	var curves []BisectorCurve
	for _, pair := range pairs {
		for _, chain := range chainCrossings(groups[pair], crossFaces[pair]) {
			if len(chain) < 2 {
				continue
			}
			curves = append(curves, BisectorCurve{SeedA: pair.A, SeedB: pair.B, Points: chain})
		}
	}
	return curves
}

// chainCrossings connects crossings that lie on edges of a common face into
// ordered polylines. Open chains are walked from their endpoints first;
// remaining closed loops are walked from their lowest-index crossing.
func chainCrossings(crossings []crossing, faces [][]int) [][]vec3.T {
	n := len(crossings)
	if n == 0 {
		return nil
	}

	// Crossings sharing a face are neighbors on the curve.
	byFace := make(map[int][]int)
	for i, fs := range faces {
		for _, f := range fs {
			byFace[f] = append(byFace[f], i)
		}
	}
	neighbors := make([][]int, n)
	for _, members := range byFace {
		for _, a := range members {
			for _, b := range members {
				if a != b {
					neighbors[a] = append(neighbors[a], b)
				}
			}
		}
	}
	for i := range neighbors {
		sort.Ints(neighbors[i])
	}

	used := make([]bool, n)
	walk := func(start int) []vec3.T {
		var points []vec3.T
		cur := start
		for {
			used[cur] = true
			points = append(points, crossings[cur].point)
			next := -1
			for _, nb := range neighbors[cur] {
				if !used[nb] {
					next = nb
					break
				}
			}
			if next < 0 {
				return points
			}
			cur = next
		}
	}

	var chains [][]vec3.T
	// Endpoints first so open curves come out in their natural order.
	for i := 0; i < n; i++ {
		if !used[i] && len(neighbors[i]) <= 1 {
			chains = append(chains, walk(i))
		}
	}
	for i := 0; i < n; i++ {
		if !used[i] {
			chains = append(chains, walk(i))
		}
	}
	return chains
}

// sortedEdges returns the mesh edge set in ascending (A, B) order.
func sortedEdges(m *mesh.Mesh) []mesh.Edge {
	edges := make([]mesh.Edge, 0, len(m.EdgeFaces()))
	for e := range m.EdgeFaces() {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}
