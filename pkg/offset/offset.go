// Package offset computes the inward-offset shell that separates the
// carvable skin from the preserved solid interior. Vertices travel inward
// along smoothed angle-weighted normals, clamped so the shell can never
// cross the mesh's local medial axis and invert through itself.
package offset

import (
	"fmt"
	"math"
	"sort"

	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/unixpickle/model3d/model3d"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

// CodeThicknessExceedsMesh reports a requested thickness the mesh cannot
// accommodate over a majority of its surface.
const CodeThicknessExceedsMesh = "THICKNESS_EXCEEDS_MESH"

// medialFraction caps per-vertex travel at this fraction of the locally
// measured wall thickness, keeping the offset strictly on the near side of
// the medial axis.
const medialFraction = 0.45

// smoothingRounds is how many neighbor-averaging passes run over the
// normals of clamped vertices before displacement.
const smoothingRounds = 3

// Failure reports an unachievable offset. MaxAchievable is the caller hint:
// the largest thickness a majority of the surface would accept.
type Failure struct {
	Code          string
	MaxAchievable float64
}

func (f *Failure) Error() string {
	return fmt.Sprintf("offset failed: %s (max achievable thickness %.4g)", f.Code, f.MaxAchievable)
}

// Shell is the inward-offset copy of a mesh. The carvable region is the
// solid difference between the original mesh and Mesh.
type Shell struct {
	Mesh      *mesh.Mesh
	Thickness float64
}

// Compute displaces every vertex inward by thickness along its smoothed
// angle-weighted normal. If the clamp reduced travel below the requested
// thickness on a strict majority of vertices, the thickness is not
// achievable and a *Failure is returned instead of a silently thinner
// shell.
func Compute(m *mesh.Mesh, thickness float64) (*Shell, error) {
	if thickness <= 0 {
		return nil, &Failure{Code: CodeThicknessExceedsMesh, MaxAchievable: 0}
	}

	collider := mesh.Collider(m)
	limits := localLimits(m, collider)

	clamped := make([]bool, m.VertexCount())
	var clampedCount int
	for i, lim := range limits {
		if lim < thickness {
			clamped[i] = true
			clampedCount++
		}
	}
	if clampedCount*2 > m.VertexCount() {
		return nil, &Failure{
			Code:          CodeThicknessExceedsMesh,
			MaxAchievable: medianOf(limits),
		}
	}

	normals := smoothedNormals(m, clamped)
	offsets := make([]vec3.T, m.VertexCount())
	for i := range offsets {
		travel := thickness
		if limits[i] < travel {
			travel = limits[i]
		}
		n := normals[i]
		offsets[i] = vec3.T{-n[0] * travel, -n[1] * travel, -n[2] * travel}
	}

	shellMesh, err := mesh.Displace(m, offsets)
	if err != nil {
		return nil, err
	}
	return &Shell{Mesh: shellMesh, Thickness: thickness}, nil
}

// localLimits measures, per vertex, the maximum inward travel before the
// offset would cross the opposite wall: an inward ray cast finds the local
// wall thickness and medialFraction of it is the budget.
func localLimits(m *mesh.Mesh, collider model3d.Collider) []float64 {
	normals := m.Normals()
	limits := make([]float64, m.VertexCount())
	for i := 0; i < m.VertexCount(); i++ {
		v := m.Vertex(i)
		n := normals[i]
		ray := &model3d.Ray{
			Origin:    mesh.ToCoord3D(v),
			Direction: model3d.Coord3D{X: -n[0], Y: -n[1], Z: -n[2]},
		}
		wall := math.Inf(1)
		collider.RayCollisions(ray, func(rc model3d.RayCollision) {
			if rc.Scale > 1e-9 && rc.Scale < wall {
				wall = rc.Scale
			}
		})
		if math.IsInf(wall, 1) {
			// Grazing normal never re-enters the solid; fall back to the
			// bounding box scale.
			min, max := m.Bounds()
			d := vec3.Sub(&max, &min)
			wall = d.Length()
		}
		limits[i] = medialFraction * wall
	}
	return limits
}

// smoothedNormals averages the displacement normals of clamped vertices
// with their neighbors for a few rounds, diffusing direction flips near
// high-curvature regions.
func smoothedNormals(m *mesh.Mesh, clamped []bool) []vec3.T {
	normals := append([]vec3.T(nil), m.Normals()...)
	adjacency := m.Adjacency()

	for round := 0; round < smoothingRounds; round++ {
		next := append([]vec3.T(nil), normals...)
		for i := range normals {
			if !clamped[i] {
				continue
			}
			acc := normals[i]
			for _, nb := range adjacency[i] {
				for k := 0; k < 3; k++ {
					acc[k] += 0.5 * normals[nb][k]
				}
			}
			if l := acc.Length(); l > 1e-30 {
				acc.Scale(1 / l)
				next[i] = acc
			}
		}
		normals = next
	}
	return normals
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	return s[len(s)/2]
}
