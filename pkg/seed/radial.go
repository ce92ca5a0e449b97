package seed

import (
	"math"

	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/pkg/errors"
	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

// radialRayBase scales density into the stratified direction count.
const radialRayBase = 64

// radialPositions emulates a field radiating from the solid's center: rays
// are cast from the volumetric centroid along a spherically stratified
// direction set, and each surface hit becomes a seed weighted by 1/distance
// so cells grow with distance from the center.
func radialPositions(m *mesh.Mesh, cfg Config) ([]vec3.T, []float64, error) {
	origin := m.Centroid()
	collider := mesh.Collider(m)

	count := int(math.Ceil(radialRayBase * cfg.Density))
	if count < 4 {
		count = 4
	}
	dirs := fibonacciSphere(count, cfg.RandomSeed)

	var positions []vec3.T
	var weights []float64
	for _, dir := range dirs {
		hit, dist, ok := castRay(collider, origin, dir)
		if !ok {
			continue
		}
		positions = append(positions, hit)
		weights = append(weights, 1/math.Max(dist, 1e-9))
	}
	if len(positions) == 0 {
		return nil, nil, errors.New("seed: no radial ray reached the surface; centroid may lie outside the solid")
	}
	return positions, weights, nil
}

// fibonacciSphere returns count near-uniform unit directions. The golden
// spiral is rotated by a seed-derived phase so different jobs decorrelate
// while a fixed RandomSeed reproduces exactly.
func fibonacciSphere(count int, randomSeed int64) []vec3.T {
	phase := float64(randomSeed%3600) / 3600.0 * 2 * math.Pi
	golden := math.Pi * (3 - math.Sqrt(5))

	dirs := make([]vec3.T, count)
	for i := 0; i < count; i++ {
		z := 1 - 2*(float64(i)+0.5)/float64(count)
		r := math.Sqrt(1 - z*z)
		theta := golden*float64(i) + phase
		dirs[i] = vec3.T{r * math.Cos(theta), r * math.Sin(theta), z}
	}
	return dirs
}

// castRay returns the nearest surface intersection along dir from origin.
func castRay(collider model3d.Collider, origin, dir vec3.T) (vec3.T, float64, bool) {
	ray := &model3d.Ray{
		Origin:    mesh.ToCoord3D(origin),
		Direction: mesh.ToCoord3D(dir),
	}
	best := math.Inf(1)
	collider.RayCollisions(ray, func(rc model3d.RayCollision) {
		if rc.Scale > 1e-12 && rc.Scale < best {
			best = rc.Scale
		}
	})
	if math.IsInf(best, 1) {
		return vec3.T{}, 0, false
	}
	hit := vec3.T{
		origin[0] + dir[0]*best,
		origin[1] + dir[1]*best,
		origin[2] + dir[2]*best,
	}
	d := vec3.Sub(&hit, &origin)
	return hit, d.Length(), true
}
