// Package mesh provides the indexed triangle mesh that every pipeline stage
// operates on. A Mesh is immutable after construction: stages that change
// geometry return new Mesh values instead of mutating in place. Adjacency,
// per-vertex normals and edge incidence are derived once at construction and
// shared by all readers.
package mesh

import (
	"fmt"
	"math"
	"sort"

	vec3 "github.com/flywave/go3d/float64/vec3"
)

// Edge is an undirected mesh edge. A < B always holds.
type Edge struct {
	A, B int
}

// NewEdge builds an Edge with its endpoints in canonical order.
func NewEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// Mesh is an indexed triangle mesh with derived adjacency. Construct with
// Load (validating) or New (structural checks only). The slices returned by
// accessors are the mesh's own storage and must not be modified by callers.
type Mesh struct {
	vertices []vec3.T
	faces    [][3]int

	normals   []vec3.T
	adjacency [][]int
	edgeFaces map[Edge][]int
	meanEdge  float64
}

// New builds a Mesh and its derived data without running the full invariant
// checks that Load performs. It only rejects structurally impossible input
// (face indices out of range). Intermediate pipeline stages use New for
// meshes that the export validator re-checks later.
func New(vertices []vec3.T, faces [][3]int) (*Mesh, error) {
	for fi, f := range faces {
		for _, vi := range f {
			if vi < 0 || vi >= len(vertices) {
				return nil, &InvalidError{
					Code:   CodeIndexOutOfRange,
					Reason: fmt.Sprintf("face %d references vertex %d of %d", fi, vi, len(vertices)),
				}
			}
		}
	}

	m := &Mesh{
		vertices: vertices,
		faces:    faces,
	}
	m.buildEdgeFaces()
	m.buildAdjacency()
	m.buildNormals()
	return m, nil
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.vertices) }

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int { return len(m.faces) }

// Vertex returns the position of vertex i.
func (m *Mesh) Vertex(i int) vec3.T { return m.vertices[i] }

// Face returns the vertex indices of triangle i.
func (m *Mesh) Face(i int) [3]int { return m.faces[i] }

// Vertices returns the vertex positions. Read-only.
func (m *Mesh) Vertices() []vec3.T { return m.vertices }

// Faces returns the triangle index list. Read-only.
func (m *Mesh) Faces() [][3]int { return m.faces }

// Normals returns angle-weighted per-vertex unit normals. Read-only.
func (m *Mesh) Normals() []vec3.T { return m.normals }

// Adjacency returns, for each vertex, the sorted list of neighboring vertex
// indices. Read-only.
func (m *Mesh) Adjacency() [][]int { return m.adjacency }

// EdgeFaces returns the undirected edge -> incident face indices map.
// Read-only.
func (m *Mesh) EdgeFaces() map[Edge][]int { return m.edgeFaces }

// MeanEdgeLength returns the average edge length, the length scale most
// tolerances in the pipeline are derived from.
func (m *Mesh) MeanEdgeLength() float64 { return m.meanEdge }

// IsClosed reports whether every edge is shared by exactly two faces.
func (m *Mesh) IsClosed() bool {
	for _, fs := range m.edgeFaces {
		if len(fs) != 2 {
			return false
		}
	}
	return len(m.edgeFaces) > 0
}

// IsManifold reports whether no edge is shared by more than two faces and
// every vertex's incident faces form a single edge-connected fan.
func (m *Mesh) IsManifold() bool {
	for _, fs := range m.edgeFaces {
		if len(fs) > 2 {
			return false
		}
	}
	return !m.hasSingularVertex()
}

// Bounds returns the axis-aligned bounding box.
func (m *Mesh) Bounds() (min, max vec3.T) {
	min = vec3.T{math.Inf(1), math.Inf(1), math.Inf(1)}
	max = vec3.T{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range m.vertices {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return min, max
}

// Volume returns the signed volume. Positive for consistently outward
// oriented closed meshes.
func (m *Mesh) Volume() float64 {
	var vol float64
	for _, f := range m.faces {
		a, b, c := m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]
		cr := vec3.Cross(&b, &c)
		vol += vec3.Dot(&a, &cr)
	}
	return vol / 6.0
}

// Centroid returns the volumetric centroid, computed by decomposing the
// solid into origin-anchored tetrahedra.
func (m *Mesh) Centroid() vec3.T {
	var c vec3.T
	var vol float64
	for _, f := range m.faces {
		a, b, d := m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]
		cr := vec3.Cross(&b, &d)
		tv := vec3.Dot(&a, &cr) / 6.0
		vol += tv
		for i := 0; i < 3; i++ {
			c[i] += tv * (a[i] + b[i] + d[i]) / 4.0
		}
	}
	if math.Abs(vol) < 1e-30 {
		return vec3.T{}
	}
	for i := 0; i < 3; i++ {
		c[i] /= vol
	}
	return c
}

// FaceArea returns the area of triangle i.
func (m *Mesh) FaceArea(i int) float64 {
	f := m.faces[i]
	return triangleArea(m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]])
}

// FaceNormal returns the unnormalized face normal of triangle i.
func (m *Mesh) FaceNormal(i int) vec3.T {
	f := m.faces[i]
	e1 := vec3.Sub(&m.vertices[f[1]], &m.vertices[f[0]])
	e2 := vec3.Sub(&m.vertices[f[2]], &m.vertices[f[0]])
	return vec3.Cross(&e1, &e2)
}

func (m *Mesh) buildEdgeFaces() {
	m.edgeFaces = make(map[Edge][]int, len(m.faces)*3/2)
	var total float64
	var count int
	for fi, f := range m.faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			e := NewEdge(a, b)
			if _, seen := m.edgeFaces[e]; !seen {
				d := vec3.Sub(&m.vertices[a], &m.vertices[b])
				total += d.Length()
				count++
			}
			m.edgeFaces[e] = append(m.edgeFaces[e], fi)
		}
	}
	if count > 0 {
		m.meanEdge = total / float64(count)
	}
}

func (m *Mesh) buildAdjacency() {
	seen := make(map[[2]int]bool, len(m.edgeFaces)*2)
	m.adjacency = make([][]int, len(m.vertices))
	for e := range m.edgeFaces {
		if !seen[[2]int{e.A, e.B}] {
			seen[[2]int{e.A, e.B}] = true
			m.adjacency[e.A] = append(m.adjacency[e.A], e.B)
			m.adjacency[e.B] = append(m.adjacency[e.B], e.A)
		}
	}
	for _, nbrs := range m.adjacency {
		sort.Ints(nbrs)
	}
}

// buildNormals accumulates angle-weighted face normals per vertex. The angle
// weighting makes the result independent of how the surface happens to be
// triangulated.
func (m *Mesh) buildNormals() {
	m.normals = make([]vec3.T, len(m.vertices))
	for _, f := range m.faces {
		fn := faceNormalOf(m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]])
		l := fn.Length()
		if l < 1e-30 {
			continue
		}
		fn.Scale(1 / l)
		for i := 0; i < 3; i++ {
			w := cornerAngle(
				m.vertices[f[i]],
				m.vertices[f[(i+1)%3]],
				m.vertices[f[(i+2)%3]],
			)
			for k := 0; k < 3; k++ {
				m.normals[f[i]][k] += w * fn[k]
			}
		}
	}
	for i := range m.normals {
		l := m.normals[i].Length()
		if l > 1e-30 {
			m.normals[i].Scale(1 / l)
		}
	}
}

// hasSingularVertex detects vertices whose incident faces split into more
// than one edge-connected fan.
func (m *Mesh) hasSingularVertex() bool {
	incident := make([][]int, len(m.vertices))
	for fi, f := range m.faces {
		for _, vi := range f {
			incident[vi] = append(incident[vi], fi)
		}
	}
	for vi, fs := range incident {
		if len(fs) <= 1 {
			continue
		}
		// Union faces that share an edge through vi.
		parent := make(map[int]int, len(fs))
		for _, fi := range fs {
			parent[fi] = fi
		}
		var find func(int) int
		find = func(x int) int {
			for parent[x] != x {
				parent[x] = parent[parent[x]]
				x = parent[x]
			}
			return x
		}
		for _, fi := range fs {
			f := m.faces[fi]
			for i := 0; i < 3; i++ {
				a, b := f[i], f[(i+1)%3]
				if a != vi && b != vi {
					continue
				}
				for _, other := range m.edgeFaces[NewEdge(a, b)] {
					if other == fi {
						continue
					}
					if _, ok := parent[other]; ok {
						parent[find(fi)] = find(other)
					}
				}
			}
		}
		root := find(fs[0])
		for _, fi := range fs[1:] {
			if find(fi) != root {
				return true
			}
		}
	}
	return false
}

func faceNormalOf(a, b, c vec3.T) vec3.T {
	e1 := vec3.Sub(&b, &a)
	e2 := vec3.Sub(&c, &a)
	return vec3.Cross(&e1, &e2)
}

func triangleArea(a, b, c vec3.T) float64 {
	n := faceNormalOf(a, b, c)
	return 0.5 * n.Length()
}

// cornerAngle returns the interior angle at vertex a of triangle (a, b, c).
func cornerAngle(a, b, c vec3.T) float64 {
	u := vec3.Sub(&b, &a)
	v := vec3.Sub(&c, &a)
	lu, lv := u.Length(), v.Length()
	if lu < 1e-30 || lv < 1e-30 {
		return 0
	}
	cos := vec3.Dot(&u, &v) / (lu * lv)
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos)
}
