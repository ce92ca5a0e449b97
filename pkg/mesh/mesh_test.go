package mesh

import (
	"errors"
	"math"
	"testing"

	vec3 "github.com/flywave/go3d/float64/vec3"
)

func unitCubeData() ([]vec3.T, [][3]int) {
	b := Box(1, 1, 1)
	return append([]vec3.T(nil), b.Vertices()...), append([][3]int(nil), b.Faces()...)
}

func TestLoadValidCube(t *testing.T) {
	vertices, faces := unitCubeData()
	m, err := Load(vertices, faces)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := m.VertexCount(); got != 8 {
		t.Errorf("VertexCount() = %d, want 8", got)
	}
	if got := m.FaceCount(); got != 12 {
		t.Errorf("FaceCount() = %d, want 12", got)
	}
	if !m.IsClosed() {
		t.Error("IsClosed() = false for cube")
	}
	if !m.IsManifold() {
		t.Error("IsManifold() = false for cube")
	}
}

func TestLoadRejections(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(v []vec3.T, f [][3]int) ([]vec3.T, [][3]int)
		wantCode string
	}{
		{
			"open boundary",
			func(v []vec3.T, f [][3]int) ([]vec3.T, [][3]int) {
				return v, f[:len(f)-1]
			},
			CodeOpenBoundary,
		},
		{
			"flipped face",
			func(v []vec3.T, f [][3]int) ([]vec3.T, [][3]int) {
				f[0][1], f[0][2] = f[0][2], f[0][1]
				return v, f
			},
			CodeInconsistentWinding,
		},
		{
			"duplicate face",
			func(v []vec3.T, f [][3]int) ([]vec3.T, [][3]int) {
				return v, append(f, f[0])
			},
			CodeDuplicateFace,
		},
		{
			"degenerate face",
			func(v []vec3.T, f [][3]int) ([]vec3.T, [][3]int) {
				f[0] = [3]int{0, 1, 1}
				return v, f
			},
			CodeDegenerateFace,
		},
		{
			"inverted orientation",
			func(v []vec3.T, f [][3]int) ([]vec3.T, [][3]int) {
				for i := range f {
					f[i][1], f[i][2] = f[i][2], f[i][1]
				}
				return v, f
			},
			CodeInvertedOrientation,
		},
		{
			"index out of range",
			func(v []vec3.T, f [][3]int) ([]vec3.T, [][3]int) {
				f[3][0] = 99
				return v, f
			},
			CodeIndexOutOfRange,
		},
		{
			"too few faces",
			func(v []vec3.T, f [][3]int) ([]vec3.T, [][3]int) {
				return v, f[:3]
			},
			CodeTooFewFaces,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vertices, faces := unitCubeData()
			vertices, faces = tt.mutate(vertices, faces)
			_, err := Load(vertices, faces)
			var invalid *InvalidError
			if !errors.As(err, &invalid) {
				t.Fatalf("Load() error = %v, want *InvalidError", err)
			}
			if invalid.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", invalid.Code, tt.wantCode)
			}
		})
	}
}

func TestLoadSnapsCoincidentVertices(t *testing.T) {
	vertices, faces := unitCubeData()
	// Duplicate vertex 0 and reroute one face corner through the copy.
	vertices = append(vertices, vertices[0])
	faces[0][0] = len(vertices) - 1

	m, err := Load(vertices, faces)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got := m.VertexCount(); got != 8 {
		t.Errorf("VertexCount() = %d after snapping, want 8", got)
	}
}

func TestNormalsOutwardUnit(t *testing.T) {
	m := Box(2, 2, 2)
	normals := m.Normals()
	for i, n := range normals {
		l := n.Length()
		if math.Abs(l-1) > 1e-9 {
			t.Errorf("normal %d has length %g, want 1", i, l)
		}
		// For a box centered at the origin, every vertex normal must point
		// away from the center.
		v := m.Vertex(i)
		if vec3.Dot(&n, &v) <= 0 {
			t.Errorf("normal %d points inward", i)
		}
	}
}

func TestVolumeAndCentroid(t *testing.T) {
	m := Box(1, 1, 1)
	if vol := m.Volume(); math.Abs(vol-1) > 1e-9 {
		t.Errorf("Volume() = %g, want 1", vol)
	}
	c := m.Centroid()
	if c.Length() > 1e-9 {
		t.Errorf("Centroid() = %v, want origin", c)
	}
}

func TestAdjacencySymmetric(t *testing.T) {
	m := Box(1, 1, 1)
	adj := m.Adjacency()
	for a, nbrs := range adj {
		for _, b := range nbrs {
			found := false
			for _, back := range adj[b] {
				if back == a {
					found = true
				}
			}
			if !found {
				t.Errorf("adjacency not symmetric: %d -> %d", a, b)
			}
		}
	}
}

func TestSubdividePreservesInvariants(t *testing.T) {
	m := Subdivide(Box(1, 1, 1), 2)
	if got, want := m.FaceCount(), 12*16; got != want {
		t.Errorf("FaceCount() = %d, want %d", got, want)
	}
	if !m.IsClosed() || !m.IsManifold() {
		t.Error("subdivided cube lost closedness/manifoldness")
	}
	if vol := m.Volume(); math.Abs(vol-1) > 1e-9 {
		t.Errorf("Volume() = %g after subdivision, want 1", vol)
	}
}

func TestFromSoupWeldsSharedVertices(t *testing.T) {
	b := Box(1, 1, 1)
	var soup [][3]vec3.T
	for i := 0; i < b.FaceCount(); i++ {
		f := b.Face(i)
		soup = append(soup, [3]vec3.T{b.Vertex(f[0]), b.Vertex(f[1]), b.Vertex(f[2])})
	}
	m, err := FromSoup(soup, 1e-9)
	if err != nil {
		t.Fatalf("FromSoup() error: %v", err)
	}
	if got := m.VertexCount(); got != 8 {
		t.Errorf("VertexCount() = %d, want 8 after welding", got)
	}
	if !m.IsClosed() {
		t.Error("welded soup is not closed")
	}
}

func TestMeanEdgeLength(t *testing.T) {
	m := Box(1, 1, 1)
	// 12 axis edges of length 1 and 6 face diagonals of length sqrt(2).
	want := (12 + 6*math.Sqrt2) / 18
	if got := m.MeanEdgeLength(); math.Abs(got-want) > 1e-9 {
		t.Errorf("MeanEdgeLength() = %g, want %g", got, want)
	}
}
