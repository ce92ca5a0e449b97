package validate

import (
	"testing"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

func mustMesh(t *testing.T, vertices []vec3.T, faces [][3]int) *mesh.Mesh {
	t.Helper()
	m, err := mesh.New(vertices, faces)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

// cubeWithSliver splits one edge of a cube very close to a corner, adding
// two sliver triangles while keeping the mesh closed and manifold.
func cubeWithSliver(t *testing.T) *mesh.Mesh {
	t.Helper()
	box := mesh.Box(1, 1, 1)
	vertices := append([]vec3.T(nil), box.Vertices()...)

	// Point on edge 0-2 almost on top of vertex 0.
	v0, v2 := box.Vertex(0), box.Vertex(2)
	dir := vec3.Sub(&v2, &v0)
	step := *dir.Scale(1e-8)
	w := vec3.Add(&v0, &step)
	wi := len(vertices)
	vertices = append(vertices, w)

	var faces [][3]int
	for i := 0; i < box.FaceCount(); i++ {
		f := box.Face(i)
		switch f {
		case [3]int{0, 2, 1}:
			faces = append(faces, [3]int{0, wi, 1}, [3]int{wi, 2, 1})
		case [3]int{0, 3, 2}:
			faces = append(faces, [3]int{0, 3, wi}, [3]int{wi, 3, 2})
		default:
			faces = append(faces, f)
		}
	}
	return mustMesh(t, vertices, faces)
}

// kissingTetrahedra builds two tetrahedra sharing only the origin vertex.
// Every edge carries two faces, but the shared vertex is singular.
func kissingTetrahedra(t *testing.T) *mesh.Mesh {
	t.Helper()
	vertices := []vec3.T{
		{0, 0, 0},
		{1, 0, 0}, {0, 1, 0}, {0, 0, 1},
		{-1, 0, 0}, {0, -1, 0}, {0, 0, -1},
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 1, 3}, {0, 3, 2}, {1, 2, 3},
		{0, 4, 5}, {0, 6, 4}, {0, 5, 6}, {6, 5, 4},
	}
	return mustMesh(t, vertices, faces)
}

func TestCheckAcceptsCube(t *testing.T) {
	if err := Check(mesh.Box(1, 1, 1)); err != nil {
		t.Fatalf("Check on cube: %v", err)
	}
}

func TestCheckRejections(t *testing.T) {
	box := mesh.Box(1, 1, 1)

	openFaces := append([][3]int(nil), box.Faces()...)
	openFaces = openFaces[:len(openFaces)-1]

	inverted := make([][3]int, box.FaceCount())
	for i, f := range box.Faces() {
		inverted[i] = [3]int{f[0], f[2], f[1]}
	}

	cases := []struct {
		name string
		m    *mesh.Mesh
		code string
	}{
		{"open boundary", mustMesh(t, box.Vertices(), openFaces), CodeOpenResult},
		{"singular vertex", kissingTetrahedra(t), CodeNonManifoldResult},
		{"inverted windings", mustMesh(t, box.Vertices(), inverted), CodeInvertedResult},
		{"sliver triangle", cubeWithSliver(t), CodeSliverTriangle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.m)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			ee, ok := err.(*ExportError)
			if !ok {
				t.Fatalf("expected *ExportError, got %T", err)
			}
			if ee.Code != tc.code {
				t.Fatalf("expected code %s, got %s (%s)", tc.code, ee.Code, ee.Reason)
			}
		})
	}
}

func TestCollapseSliversRepairs(t *testing.T) {
	m := cubeWithSliver(t)
	if m.FaceCount() != 14 {
		t.Fatalf("setup: expected 14 faces, got %d", m.FaceCount())
	}

	out, err := CollapseSlivers(m, 0)
	if err != nil {
		t.Fatalf("CollapseSlivers: %v", err)
	}
	if out.FaceCount() != 12 {
		t.Fatalf("expected 12 faces after collapse, got %d", out.FaceCount())
	}
	if err := Check(out); err != nil {
		t.Fatalf("Check after collapse: %v", err)
	}
	if v := out.Volume(); v < 0.99 || v > 1.01 {
		t.Fatalf("volume drifted after collapse: %f", v)
	}
}

func TestCollapseSliversNoOp(t *testing.T) {
	m := mesh.Box(2, 1, 1)
	out, err := CollapseSlivers(m, 0)
	if err != nil {
		t.Fatalf("CollapseSlivers: %v", err)
	}
	if out != m {
		t.Fatal("clean mesh should be returned unchanged")
	}
}
