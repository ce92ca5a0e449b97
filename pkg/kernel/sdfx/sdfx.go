// Package sdfx implements the kernel.Kernel interface using the
// github.com/deadsy/sdfx SDF-based CAD library. Meshes enter as signed
// distance fields (via model3d), booleans compose SDFs, and results come
// back out through marching cubes. Because the output is re-sampled from a
// well-defined field, it is watertight by construction.
package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/voronoimaker/pkg/kernel"
	"github.com/chazu/voronoimaker/pkg/mesh"
)

// Compile-time interface check.
var _ kernel.Kernel = (*SdfxKernel)(nil)

// defaultMeshCells controls marching cubes tessellation resolution when the
// caller does not choose one.
const defaultMeshCells = 96

// bboxMargin inflates solid bounding boxes so marching cubes always closes
// the surface inside the sampled region.
const bboxMargin = 0.05

// sdfxSolid wraps an sdf.SDF3 to implement kernel.Solid.
type sdfxSolid struct {
	s sdf.SDF3
}

// BoundingBox returns the axis-aligned bounding box.
func (s *sdfxSolid) BoundingBox() (min, max [3]float64) {
	bb := s.s.BoundingBox()
	min = [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	max = [3]float64{bb.Max.X, bb.Max.Y, bb.Max.Z}
	return min, max
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct{}

// New returns a new SdfxKernel.
func New() *SdfxKernel {
	return &SdfxKernel{}
}

// unwrap extracts the underlying sdf.SDF3 from a kernel.Solid.
func unwrap(s kernel.Solid) sdf.SDF3 {
	return s.(*sdfxSolid).s
}

// wrap creates a kernel.Solid from an sdf.SDF3.
func wrap(s sdf.SDF3) kernel.Solid {
	return &sdfxSolid{s: s}
}

// meshSDF adapts a model3d signed distance field to the sdf.SDF3 contract.
// model3d is positive inside; sdfx is negative inside, hence the sign flip.
type meshSDF struct {
	field model3d.SDF
	bb    sdf.Box3
}

func (m *meshSDF) Evaluate(p v3.Vec) float64 {
	return -m.field.SDF(model3d.Coord3D{X: p.X, Y: p.Y, Z: p.Z})
}

func (m *meshSDF) BoundingBox() sdf.Box3 {
	return m.bb
}

// FromMesh wraps a closed triangle mesh as an SDF-backed solid.
func (k *SdfxKernel) FromMesh(m *mesh.Mesh) (kernel.Solid, error) {
	if m.FaceCount() == 0 {
		return nil, errors.New("sdfx: empty mesh")
	}
	min, max := m.Bounds()
	d := vec3.Sub(&max, &min)
	margin := bboxMargin * d.Length()
	bb := sdf.Box3{
		Min: v3.Vec{X: min[0] - margin, Y: min[1] - margin, Z: min[2] - margin},
		Max: v3.Vec{X: max[0] + margin, Y: max[1] + margin, Z: max[2] + margin},
	}
	return wrap(&meshSDF{field: mesh.SignedDistance(m), bb: bb}), nil
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(unwrap(a), unwrap(b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(unwrap(a), unwrap(b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(unwrap(a), unwrap(b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(unwrap(s), m))
}

// Contains reports whether p is inside the solid.
func (k *SdfxKernel) Contains(s kernel.Solid, p vec3.T) bool {
	return unwrap(s).Evaluate(v3.Vec{X: p[0], Y: p[1], Z: p[2]}) <= 0
}

// ToMesh converts a solid to a welded triangle mesh using marching cubes.
func (k *SdfxKernel) ToMesh(s kernel.Solid, cells int) (*mesh.Mesh, error) {
	if cells <= 0 {
		cells = defaultMeshCells
	}
	sdf3 := unwrap(s)

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(sdf3, renderer)
	if len(triangles) == 0 {
		return nil, errors.New("sdfx: marching cubes produced no triangles")
	}

	soup := make([][3]vec3.T, 0, len(triangles))
	for _, tri := range triangles {
		soup = append(soup, [3]vec3.T{
			{tri[0].X, tri[0].Y, tri[0].Z},
			{tri[1].X, tri[1].Y, tri[1].Z},
			{tri[2].X, tri[2].Y, tri[2].Z},
		})
	}

	bb := sdf3.BoundingBox()
	extent := math.Max(bb.Max.X-bb.Min.X, math.Max(bb.Max.Y-bb.Min.Y, bb.Max.Z-bb.Min.Z))
	weldEps := extent / float64(cells) * 1e-5

	out, err := mesh.FromSoup(soup, weldEps)
	if err != nil {
		return nil, errors.Wrap(err, "sdfx: weld marching cubes output")
	}
	return out, nil
}
