package mesh

import (
	"fmt"
	"math"
	"sort"

	vec3 "github.com/flywave/go3d/float64/vec3"
)

// snapEpsilon is the coordinate tolerance for merging exactly-coincident
// input vertices. This is the only repair Load performs.
const snapEpsilon = 1e-12

// degenerateAreaFactor scales the squared mean edge length into the minimum
// acceptable triangle area.
const degenerateAreaFactor = 1e-10

// Load validates raw triangle data and constructs an immutable Mesh. The
// input must describe a closed, manifold, consistently outward-oriented
// solid; any violation is returned as *InvalidError and the job cannot
// proceed. Coincident vertices within a tiny snapping tolerance are merged
// first; no other repair is attempted.
func Load(vertices []vec3.T, faces [][3]int) (*Mesh, error) {
	if len(faces) < 4 {
		return nil, &InvalidError{
			Code:   CodeTooFewFaces,
			Reason: fmt.Sprintf("%d faces cannot bound a solid", len(faces)),
		}
	}

	vertices, faces, err := snapVertices(vertices, faces)
	if err != nil {
		return nil, err
	}

	m, err := New(vertices, faces)
	if err != nil {
		return nil, err
	}

	if err := checkFaces(m); err != nil {
		return nil, err
	}
	if err := checkTopology(m); err != nil {
		return nil, err
	}
	if vol := m.Volume(); vol <= 0 {
		return nil, &InvalidError{
			Code:   CodeInvertedOrientation,
			Reason: fmt.Sprintf("signed volume %g is not positive; normals point inward", vol),
		}
	}
	return m, nil
}

// snapVertices merges vertices that coincide within snapEpsilon and remaps
// faces accordingly.
func snapVertices(vertices []vec3.T, faces [][3]int) ([]vec3.T, [][3]int, error) {
	type key [3]int64
	quantize := func(v vec3.T) key {
		var k key
		for i := 0; i < 3; i++ {
			k[i] = int64(math.Round(v[i] / snapEpsilon))
		}
		return k
	}

	remap := make([]int, len(vertices))
	index := make(map[key]int, len(vertices))
	out := make([]vec3.T, 0, len(vertices))
	for i, v := range vertices {
		k := quantize(v)
		if j, ok := index[k]; ok {
			remap[i] = j
			continue
		}
		index[k] = len(out)
		remap[i] = len(out)
		out = append(out, v)
	}

	newFaces := make([][3]int, len(faces))
	for fi, f := range faces {
		for i := 0; i < 3; i++ {
			if f[i] < 0 || f[i] >= len(vertices) {
				return nil, nil, &InvalidError{
					Code:   CodeIndexOutOfRange,
					Reason: fmt.Sprintf("face %d references vertex %d of %d", fi, f[i], len(vertices)),
				}
			}
			newFaces[fi][i] = remap[f[i]]
		}
	}
	return out, newFaces, nil
}

// checkFaces rejects degenerate and duplicate triangles.
func checkFaces(m *Mesh) error {
	areaEps := degenerateAreaFactor * m.meanEdge * m.meanEdge
	seen := make(map[[3]int]int, len(m.faces))
	for fi, f := range m.faces {
		if f[0] == f[1] || f[1] == f[2] || f[0] == f[2] {
			return &InvalidError{
				Code:   CodeDegenerateFace,
				Reason: fmt.Sprintf("face %d repeats a vertex index", fi),
			}
		}
		if m.FaceArea(fi) < areaEps {
			return &InvalidError{
				Code:   CodeDegenerateFace,
				Reason: fmt.Sprintf("face %d has near-zero area", fi),
			}
		}
		k := [3]int{f[0], f[1], f[2]}
		sort.Ints(k[:])
		if prev, dup := seen[k]; dup {
			return &InvalidError{
				Code:   CodeDuplicateFace,
				Reason: fmt.Sprintf("faces %d and %d cover the same vertices", prev, fi),
			}
		}
		seen[k] = fi
	}
	return nil
}

// checkTopology verifies closedness, edge/vertex manifoldness and winding
// consistency. Winding is consistent when every undirected edge carries its
// two half-edges in opposite directions.
func checkTopology(m *Mesh) error {
	directed := make(map[[2]int]int, len(m.faces)*3)
	for _, f := range m.faces {
		for i := 0; i < 3; i++ {
			directed[[2]int{f[i], f[(i+1)%3]}]++
		}
	}

	for e, fs := range m.edgeFaces {
		switch {
		case len(fs) > 2:
			return &InvalidError{
				Code:   CodeNonManifoldEdge,
				Reason: fmt.Sprintf("edge (%d,%d) is shared by %d faces", e.A, e.B, len(fs)),
			}
		case len(fs) < 2:
			return &InvalidError{
				Code:   CodeOpenBoundary,
				Reason: fmt.Sprintf("edge (%d,%d) borders only %d face", e.A, e.B, len(fs)),
			}
		}
		if directed[[2]int{e.A, e.B}] != 1 || directed[[2]int{e.B, e.A}] != 1 {
			return &InvalidError{
				Code:   CodeInconsistentWinding,
				Reason: fmt.Sprintf("edge (%d,%d) is traversed twice in the same direction", e.A, e.B),
			}
		}
	}

	if m.hasSingularVertex() {
		return &InvalidError{
			Code:   CodeNonManifoldVertex,
			Reason: "a vertex joins disconnected face fans",
		}
	}
	return nil
}
