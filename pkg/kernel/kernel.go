// Package kernel defines the abstract geometry kernel interface used by the
// boolean carving stage. Implementations (sdfx) provide solid booleans and
// re-meshing behind this interface, so the carving logic never depends on a
// particular solid representation.
package kernel

import (
	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

// Solid is an opaque handle to a geometry kernel solid. Implementations
// wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface for carving.
type Kernel interface {
	// FromMesh wraps a closed triangle mesh as a solid.
	FromMesh(m *mesh.Mesh) (Solid, error)

	// GrooveTool builds the transient carving solid for one bisector
	// curve: a rounded prism of the given width swept along the polyline,
	// reaching depth below the surface along the per-point normals.
	GrooveTool(points, normals []vec3.T, width, depth float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Translate moves a solid by (x, y, z).
	Translate(s Solid, x, y, z float64) Solid

	// Contains reports whether a point lies inside the solid.
	Contains(s Solid, p vec3.T) bool

	// ToMesh extracts a welded triangle mesh from the solid. cells is the
	// meshing resolution used by marching cubes; non-positive selects the
	// implementation default.
	ToMesh(s Solid, cells int) (*mesh.Mesh, error)
}
