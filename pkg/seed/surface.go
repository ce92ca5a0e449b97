package seed

import (
	"math"
	"math/rand"
	"sort"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

// maxMisses bounds dart throwing: sampling stops once this many consecutive
// candidates land too close to an accepted seed.
const maxMisses = 400

// surfacePositions draws blue-noise samples on the mesh surface: candidate
// points are picked uniformly by area, and a candidate is accepted only if
// it keeps the minimum separation from every accepted seed. The separation
// shrinks as density grows, so higher density gives more, smaller cells.
// Fully deterministic for a fixed RandomSeed.
func surfacePositions(m *mesh.Mesh, cfg Config) ([]vec3.T, []float64, error) {
	rng := newRNG(cfg)
	minSep := surfaceSeparation(m, cfg.Density)

	cdf := areaCDF(m)
	total := cdf[len(cdf)-1]
	if total <= 0 {
		return nil, nil, &mesh.InvalidError{Code: mesh.CodeDegenerateFace, Reason: "surface area is zero"}
	}

	var accepted []vec3.T
	misses := 0
	for misses < maxMisses {
		p := samplePoint(m, cdf, rng)
		ok := true
		for i := range accepted {
			d := vec3.Sub(&accepted[i], &p)
			if d.Length() < minSep {
				ok = false
				break
			}
		}
		if !ok {
			misses++
			continue
		}
		accepted = append(accepted, p)
		misses = 0
	}

	weights := make([]float64, len(accepted))
	for i := range weights {
		weights[i] = 1
	}
	return accepted, weights, nil
}

// surfaceSeparation maps density in (0,1] to the Poisson-disk radius.
// Strictly decreasing in density.
func surfaceSeparation(m *mesh.Mesh, density float64) float64 {
	return m.MeanEdgeLength() * (0.6 + 2.0*(1.0-density))
}

// areaCDF returns the cumulative triangle areas for area-weighted picking.
func areaCDF(m *mesh.Mesh) []float64 {
	cdf := make([]float64, m.FaceCount())
	var sum float64
	for i := 0; i < m.FaceCount(); i++ {
		sum += m.FaceArea(i)
		cdf[i] = sum
	}
	return cdf
}

// samplePoint picks a uniform random point on the surface: a triangle by
// area, then a barycentric point via the square-root trick.
func samplePoint(m *mesh.Mesh, cdf []float64, rng *rand.Rand) vec3.T {
	target := rng.Float64() * cdf[len(cdf)-1]
	fi := sort.SearchFloat64s(cdf, target)
	if fi >= len(cdf) {
		fi = len(cdf) - 1
	}
	f := m.Face(fi)
	a, b, c := m.Vertex(f[0]), m.Vertex(f[1]), m.Vertex(f[2])

	su := math.Sqrt(rng.Float64())
	v := rng.Float64()
	wa := 1 - su
	wb := su * (1 - v)
	wc := su * v

	return vec3.T{
		wa*a[0] + wb*b[0] + wc*c[0],
		wa*a[1] + wb*b[1] + wc*c[1],
		wa*a[2] + wb*b[2] + wc*c[2],
	}
}
