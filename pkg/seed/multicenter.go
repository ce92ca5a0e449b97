package seed

import (
	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

// multicenterPositions uses the caller's coordinate list verbatim, except
// that points outside the solid are pulled to the nearest interior point.
// The empty list is an error: this mode has no way to invent a center.
func multicenterPositions(m *mesh.Mesh, cfg Config) ([]vec3.T, []float64, error) {
	if len(cfg.Points) == 0 {
		return nil, nil, ErrEmptySeedSet
	}

	solid := mesh.Solid(m)
	surface := mesh.NearestSurface(m)
	centroid := m.Centroid()
	nudge := 1e-3 * m.MeanEdgeLength()

	positions := make([]vec3.T, 0, len(cfg.Points))
	weights := make([]float64, 0, len(cfg.Points))
	for _, p := range cfg.Points {
		if !solid.Contains(mesh.ToCoord3D(p)) {
			p = projectInterior(surface, p, centroid, nudge)
		}
		positions = append(positions, p)
		weights = append(weights, 1)
	}
	return positions, weights, nil
}

// projectInterior maps an exterior point to its closest surface point and
// nudges it just inside, continuing the exterior-to-surface direction.
// When that direction is degenerate the centroid direction is used, and a
// point with no usable direction at all becomes the centroid.
func projectInterior(surface model3d.PointSDF, p, centroid vec3.T, nudge float64) vec3.T {
	hit, _ := surface.PointSDF(mesh.ToCoord3D(p))
	s := mesh.FromCoord3D(hit)

	dir := vec3.Sub(&s, &p)
	l := dir.Length()
	if l < 1e-12 {
		dir = vec3.Sub(&centroid, &s)
		l = dir.Length()
	}
	if l < 1e-12 {
		return centroid
	}
	dir.Scale(1 / l)
	return vec3.T{
		s[0] + dir[0]*nudge,
		s[1] + dir[1]*nudge,
		s[2] + dir[2]*nudge,
	}
}
