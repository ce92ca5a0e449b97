package mesh

import (
	"math"

	vec3 "github.com/flywave/go3d/float64/vec3"
)

// Box returns a closed axis-aligned box of the given dimensions centered at
// the origin, wound outward.
func Box(x, y, z float64) *Mesh {
	hx, hy, hz := x/2, y/2, z/2
	vertices := []vec3.T{
		{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, hy, -hz}, {-hx, hy, -hz},
		{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz},
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{3, 6, 2}, {3, 7, 6}, // back
		{0, 4, 7}, {0, 7, 3}, // left
		{1, 2, 6}, {1, 6, 5}, // right
	}
	m, err := New(vertices, faces)
	if err != nil {
		panic("mesh: box construction: " + err.Error())
	}
	return m
}

// Subdivide splits every triangle into four by edge midpoints, levels times.
// Winding and closedness are preserved. It is the standard way to get a
// denser version of a coarse solid for sampling-heavy stages and tests.
func Subdivide(m *Mesh, levels int) *Mesh {
	out := m
	for l := 0; l < levels; l++ {
		vertices := append([]vec3.T(nil), out.vertices...)
		midpoints := make(map[Edge]int, len(out.edgeFaces))
		midpoint := func(a, b int) int {
			e := NewEdge(a, b)
			if i, ok := midpoints[e]; ok {
				return i
			}
			va, vb := vertices[a], vertices[b]
			mid := vec3.T{(va[0] + vb[0]) / 2, (va[1] + vb[1]) / 2, (va[2] + vb[2]) / 2}
			midpoints[e] = len(vertices)
			vertices = append(vertices, mid)
			return midpoints[e]
		}

		faces := make([][3]int, 0, len(out.faces)*4)
		for _, f := range out.faces {
			a, b, c := f[0], f[1], f[2]
			ab, bc, ca := midpoint(a, b), midpoint(b, c), midpoint(c, a)
			faces = append(faces,
				[3]int{a, ab, ca},
				[3]int{b, bc, ab},
				[3]int{c, ca, bc},
				[3]int{ab, bc, ca},
			)
		}

		next, err := New(vertices, faces)
		if err != nil {
			panic("mesh: subdivide: " + err.Error())
		}
		out = next
	}
	return out
}

// Displace returns a copy of m with each vertex moved by offsets[i]. Derived
// data is rebuilt; topology is unchanged.
func Displace(m *Mesh, offsets []vec3.T) (*Mesh, error) {
	vertices := make([]vec3.T, len(m.vertices))
	for i, v := range m.vertices {
		vertices[i] = vec3.Add(&v, &offsets[i])
	}
	faces := append([][3]int(nil), m.faces...)
	return New(vertices, faces)
}

// FromSoup welds a triangle soup into an indexed mesh, merging vertices that
// coincide within weldEps and dropping triangles that degenerate under the
// weld. This is the single-writer merge step after boolean carving: shared
// boundaries between independently produced fragments snap to common
// vertices here.
func FromSoup(tris [][3]vec3.T, weldEps float64) (*Mesh, error) {
	if weldEps <= 0 {
		weldEps = 1e-9
	}
	type key [3]int64
	quantize := func(v vec3.T) key {
		var k key
		for i := 0; i < 3; i++ {
			k[i] = int64(math.Round(v[i] / weldEps))
		}
		return k
	}

	index := make(map[key]int, len(tris))
	var vertices []vec3.T
	var faces [][3]int
	for _, tri := range tris {
		var f [3]int
		for i, p := range tri {
			k := quantize(p)
			j, ok := index[k]
			if !ok {
				j = len(vertices)
				index[k] = j
				vertices = append(vertices, p)
			}
			f[i] = j
		}
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			continue
		}
		faces = append(faces, f)
	}
	return New(vertices, faces)
}
