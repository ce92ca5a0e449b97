// Package validate performs the final geometry checks on a carved mesh
// before it is handed to serialization. A mesh that fails Check must not
// be exported.
package validate

import (
	"fmt"
	"math"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

// Export error codes.
const (
	CodeOpenResult        = "OPEN_RESULT"
	CodeNonManifoldResult = "NON_MANIFOLD_RESULT"
	CodeInvertedResult    = "INVERTED_RESULT"
	CodeSliverTriangle    = "SLIVER_TRIANGLE"
)

// sliverAreaFraction scales the mean edge length into the default minimum
// triangle area accepted by Check.
const sliverAreaFraction = 1e-6

// maxCollapsePasses bounds the sliver collapse loop. Each pass removes at
// least one sliver, so the loop is finite anyway, but a cap keeps a
// pathological input from spinning for long.
const maxCollapsePasses = 8

// ExportError describes why a result mesh is not exportable.
type ExportError struct {
	Code   string
	Reason string
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

// Check verifies that m is a closed, manifold, consistently oriented mesh
// with no sliver triangles below the area threshold. It returns an
// *ExportError describing the first violation found, or nil.
func Check(m *mesh.Mesh) error {
	if !m.IsClosed() {
		return &ExportError{Code: CodeOpenResult, Reason: "mesh has boundary edges"}
	}
	if !m.IsManifold() {
		return &ExportError{Code: CodeNonManifoldResult, Reason: "mesh has a non-manifold edge or vertex"}
	}
	if m.Volume() <= 0 {
		return &ExportError{
			Code:   CodeInvertedResult,
			Reason: fmt.Sprintf("signed volume %.6g, mesh is inverted or degenerate", m.Volume()),
		}
	}
	areaEps := minTriangleArea(m)
	for i := 0; i < m.FaceCount(); i++ {
		if m.FaceArea(i) < areaEps {
			return &ExportError{
				Code:   CodeSliverTriangle,
				Reason: fmt.Sprintf("face %d has area %.6g, below threshold %.6g", i, m.FaceArea(i), areaEps),
			}
		}
	}
	return nil
}

// CollapseSlivers removes triangles with area below areaEps by collapsing
// their shortest edge to its midpoint, then rewelds the mesh. areaEps <= 0
// selects the same default threshold Check uses. The returned mesh may
// still fail Check when a collapse exposes a non-manifold configuration;
// that condition is terminal for the caller.
func CollapseSlivers(m *mesh.Mesh, areaEps float64) (*mesh.Mesh, error) {
	if areaEps <= 0 {
		areaEps = minTriangleArea(m)
	}

	cur := m
	for pass := 0; pass < maxCollapsePasses; pass++ {
		collapsed, changed, err := collapsePass(cur, areaEps)
		if err != nil {
			return nil, err
		}
		if !changed {
			return cur, nil
		}
		cur = collapsed
	}
	return cur, nil
}

func minTriangleArea(m *mesh.Mesh) float64 {
	e := m.MeanEdgeLength()
	return sliverAreaFraction * e * e
}

// collapsePass merges the shortest edge of every sliver face and rebuilds
// the mesh. Vertex merges are resolved through a union-find so that chains
// of slivers sharing vertices collapse consistently in one pass.
func collapsePass(m *mesh.Mesh, areaEps float64) (*mesh.Mesh, bool, error) {
	parent := make([]int, m.VertexCount())
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	midpoints := make(map[int]vec3.T)
	changed := false
	for i := 0; i < m.FaceCount(); i++ {
		if m.FaceArea(i) >= areaEps {
			continue
		}
		a, b := shortestEdge(m, i)
		ra, rb := find(a), find(b)
		if ra == rb {
			continue
		}
		if rb < ra {
			ra, rb = rb, ra
		}
		parent[rb] = ra
		va, vb := m.Vertex(a), m.Vertex(b)
		mid := vec3.Add(&va, &vb)
		midpoints[ra] = *mid.Scale(0.5)
		changed = true
	}
	if !changed {
		return nil, false, nil
	}

	// Compact surviving vertices and drop faces that degenerated.
	remap := make([]int, m.VertexCount())
	for i := range remap {
		remap[i] = -1
	}
	var vertices []vec3.T
	for i := 0; i < m.VertexCount(); i++ {
		root := find(i)
		if remap[root] < 0 {
			pos := m.Vertex(root)
			if mid, ok := midpoints[root]; ok {
				pos = mid
			}
			remap[root] = len(vertices)
			vertices = append(vertices, pos)
		}
		remap[i] = remap[root]
	}
	var faces [][3]int
	for _, f := range m.Faces() {
		nf := [3]int{remap[f[0]], remap[f[1]], remap[f[2]]}
		if nf[0] == nf[1] || nf[1] == nf[2] || nf[2] == nf[0] {
			continue
		}
		faces = append(faces, nf)
	}

	out, err := mesh.New(vertices, faces)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// shortestEdge returns the vertex pair of face i spanning the shortest edge.
func shortestEdge(m *mesh.Mesh, i int) (int, int) {
	f := m.Face(i)
	bestA, bestB := f[0], f[1]
	best := math.Inf(1)
	for k := 0; k < 3; k++ {
		a, b := f[k], f[(k+1)%3]
		va, vb := m.Vertex(a), m.Vertex(b)
		e := vec3.Sub(&va, &vb)
		d := e.LengthSqr()
		if d < best {
			best = d
			bestA, bestB = a, b
		}
	}
	return bestA, bestB
}
