package mesh

import (
	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/unixpickle/model3d/model3d"
)

// This file bridges Mesh to model3d's spatial query structures. Ray casting,
// containment and signed distance all go through these adapters so the rest
// of the pipeline never rebuilds a collider per query.

// ToModel3D converts the mesh into a model3d triangle mesh.
func ToModel3D(m *Mesh) *model3d.Mesh {
	out := model3d.NewMesh()
	for _, f := range m.faces {
		out.Add(&model3d.Triangle{
			ToCoord3D(m.vertices[f[0]]),
			ToCoord3D(m.vertices[f[1]]),
			ToCoord3D(m.vertices[f[2]]),
		})
	}
	return out
}

// Collider builds a bounded-volume-hierarchy collider for ray queries.
func Collider(m *Mesh) model3d.Collider {
	return model3d.MeshToCollider(ToModel3D(m))
}

// Solid wraps the mesh as a containment-testable solid using ray parity.
func Solid(m *Mesh) model3d.Solid {
	return model3d.NewColliderSolid(Collider(m))
}

// SignedDistance builds a signed distance field for the mesh. model3d's
// convention is positive inside.
func SignedDistance(m *Mesh) model3d.SDF {
	return model3d.MeshToSDF(ToModel3D(m))
}

// NearestSurface builds a field that answers closest-surface-point queries
// alongside the signed distance.
func NearestSurface(m *Mesh) model3d.PointSDF {
	return model3d.MeshToSDF(ToModel3D(m))
}

// ToCoord3D converts a go3d vector to a model3d coordinate.
func ToCoord3D(v vec3.T) model3d.Coord3D {
	return model3d.Coord3D{X: v[0], Y: v[1], Z: v[2]}
}

// FromCoord3D converts a model3d coordinate to a go3d vector.
func FromCoord3D(c model3d.Coord3D) vec3.T {
	return vec3.T{c.X, c.Y, c.Z}
}
