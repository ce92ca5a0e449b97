package sdfx

import (
	"math"
	"testing"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

func TestFromMeshContainment(t *testing.T) {
	k := New()
	solid, err := k.FromMesh(mesh.Box(2, 2, 2))
	if err != nil {
		t.Fatalf("FromMesh() error: %v", err)
	}

	tests := []struct {
		name string
		p    vec3.T
		want bool
	}{
		{"center", vec3.T{0, 0, 0}, true},
		{"near corner inside", vec3.T{0.9, 0.9, 0.9}, true},
		{"outside x", vec3.T{1.5, 0, 0}, false},
		{"far outside", vec3.T{10, 10, 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := k.Contains(solid, tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestFromMeshBoundingBox(t *testing.T) {
	k := New()
	solid, err := k.FromMesh(mesh.Box(1, 1, 1))
	if err != nil {
		t.Fatalf("FromMesh() error: %v", err)
	}
	min, max := solid.BoundingBox()
	for i := 0; i < 3; i++ {
		if min[i] > -0.5 || max[i] < 0.5 {
			t.Errorf("bounding box [%g, %g] does not cover the solid on axis %d", min[i], max[i], i)
		}
	}
}

func TestBooleanOperations(t *testing.T) {
	k := New()
	a, err := k.FromMesh(mesh.Box(2, 2, 2))
	if err != nil {
		t.Fatalf("FromMesh(a) error: %v", err)
	}
	b, err := k.FromMesh(mesh.Box(1, 1, 1))
	if err != nil {
		t.Fatalf("FromMesh(b) error: %v", err)
	}

	center := vec3.T{0, 0, 0}
	rim := vec3.T{0.9, 0, 0}

	if diff := k.Difference(a, b); k.Contains(diff, center) || !k.Contains(diff, rim) {
		t.Error("Difference() should remove the center and keep the rim")
	}
	if inter := k.Intersection(a, b); !k.Contains(inter, center) || k.Contains(inter, rim) {
		t.Error("Intersection() should keep the center and remove the rim")
	}
	if union := k.Union(a, b); !k.Contains(union, center) || !k.Contains(union, rim) {
		t.Error("Union() should keep both")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	solid, err := k.FromMesh(mesh.Box(1, 1, 1))
	if err != nil {
		t.Fatalf("FromMesh() error: %v", err)
	}
	moved := k.Translate(solid, 10, 0, 0)
	if k.Contains(moved, vec3.T{0, 0, 0}) {
		t.Error("translated solid still contains the origin")
	}
	if !k.Contains(moved, vec3.T{10, 0, 0}) {
		t.Error("translated solid does not contain its new center")
	}
}

func TestGrooveTool(t *testing.T) {
	k := New()
	// A straight groove along the top face of a cube, cutting in -z.
	points := []vec3.T{{-0.4, 0, 0.5}, {0, 0, 0.5}, {0.4, 0, 0.5}}
	normals := []vec3.T{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	tool := k.GrooveTool(points, normals, 0.2, 0.3)

	if !k.Contains(tool, vec3.T{0, 0, 0.45}) {
		t.Error("tool should contain a point just under the surface on the curve")
	}
	if !k.Contains(tool, vec3.T{0, 0, 0.25}) {
		t.Error("tool should reach the relief depth")
	}
	if k.Contains(tool, vec3.T{0, 0.5, 0.5}) {
		t.Error("tool should not extend half the cube away from the curve")
	}
	if k.Contains(tool, vec3.T{0, 0, -0.2}) {
		t.Error("tool should not cut deeper than depth plus radius")
	}
}

func TestToMeshProducesClosedSolid(t *testing.T) {
	k := New()
	solid, err := k.FromMesh(mesh.Box(1, 1, 1))
	if err != nil {
		t.Fatalf("FromMesh() error: %v", err)
	}
	out, err := k.ToMesh(solid, 32)
	if err != nil {
		t.Fatalf("ToMesh() error: %v", err)
	}
	if out.FaceCount() <= 12 {
		t.Errorf("FaceCount() = %d, want re-meshed output denser than the input box", out.FaceCount())
	}
	if !out.IsClosed() {
		t.Error("marching cubes output is not closed after welding")
	}
	if !out.IsManifold() {
		t.Error("marching cubes output is not manifold after welding")
	}
	if vol := out.Volume(); math.Abs(vol-1) > 0.15 {
		t.Errorf("Volume() = %g, want roughly 1", vol)
	}
}
