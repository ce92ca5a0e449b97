// Package carve subtracts groove solids along bisector curves from the
// carvable skin of a mesh. Each curve's tool is built independently on the
// worker pool, clipped against the skin region so it can never reach the
// preserved interior, and subtracted in a deterministic order. A curve
// whose tool degenerates is perturbed and retried once, then skipped and
// reported; a skipped curve never fails the job.
package carve

import (
	"context"
	"math"

	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chazu/voronoimaker/pkg/kernel"
	"github.com/chazu/voronoimaker/pkg/mesh"
	"github.com/chazu/voronoimaker/pkg/offset"
	"github.com/chazu/voronoimaker/pkg/pool"
	"github.com/chazu/voronoimaker/pkg/voronoi"
)

var log = logrus.WithField("component", "carve")

// widthFactor scales mean edge length over density into groove width:
// higher density means smaller cells and proportionally thinner grooves.
const widthFactor = 0.35

// Options tunes the carving stage.
type Options struct {
	// Density is the job density, which sets the groove width.
	Density float64
	// Kernel is the boolean backend. Required.
	Kernel kernel.Kernel
	// Pool supplies workers for per-curve tool construction.
	Pool *pool.Pool
	// MeshCells is the re-meshing resolution; non-positive selects the
	// kernel default.
	MeshCells int
}

// Result is the carved mesh plus the ids of curves whose carving was
// skipped after the retry.
type Result struct {
	Mesh            *mesh.Mesh
	SkippedCurveIDs []int
}

// tool pairs a built groove solid with its curve index.
type tool struct {
	solid   kernel.Solid
	skipped bool
}

// Carve removes groove material along every bisector curve from the skin
// region (m minus shell) and returns the re-meshed, welded result. The
// subtraction order over curves is fixed, and tools only ever see
// read-only snapshots, so output does not depend on worker scheduling.
func Carve(ctx context.Context, m *mesh.Mesh, shell *offset.Shell, curves []voronoi.BisectorCurve, reliefDepth float64, opts Options) (*Result, error) {
	if opts.Kernel == nil {
		return nil, errors.New("carve: no kernel configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := opts.Kernel
	base, err := k.FromMesh(m)
	if err != nil {
		return nil, errors.Wrap(err, "carve: wrap input mesh")
	}
	shellSolid, err := k.FromMesh(shell.Mesh)
	if err != nil {
		return nil, errors.Wrap(err, "carve: wrap offset shell")
	}
	// The carvable skin: everything between the surface and the offset
	// shell. Tools are clipped against it so the interior stays solid.
	skin := k.Difference(base, shellSolid)

	width := grooveWidth(m, opts.Density)
	normalsAt := newNormalLookup(m)

	p := opts.Pool
	if p == nil {
		p = pool.New(0)
	}

	tools := make([]tool, len(curves))
	err = p.Map(ctx, len(curves), func(i int) error {
		tools[i] = buildTool(k, skin, curves[i], normalsAt, width, reliefDepth, m.MeanEdgeLength())
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Single-threaded subtraction and merge.
	running := base
	var skipped []int
	for i, tl := range tools {
		if tl.skipped {
			log.WithFields(logrus.Fields{
				"curve": i,
				"seedA": curves[i].SeedA,
				"seedB": curves[i].SeedB,
			}).Warn("skipping degenerate bisector curve")
			skipped = append(skipped, i)
			continue
		}
		running = k.Difference(running, tl.solid)
	}

	out, err := k.ToMesh(running, opts.MeshCells)
	if err != nil {
		return nil, errors.Wrap(err, "carve: mesh final solid")
	}
	if skipped == nil {
		skipped = []int{}
	}
	return &Result{Mesh: out, SkippedCurveIDs: skipped}, nil
}

// buildTool constructs one curve's clipped groove solid. A degenerate tool
// is perturbed along the mean curve normal by a small epsilon and rebuilt
// once; if it is still degenerate the curve is marked skipped.
func buildTool(k kernel.Kernel, skin kernel.Solid, curve voronoi.BisectorCurve, normalsAt func(vec3.T) vec3.T, width, depth, meanEdge float64) tool {
	points := curve.Points
	if len(points) < 2 || polylineLength(points) < 1e-9*meanEdge {
		return tool{skipped: true}
	}

	normals := make([]vec3.T, len(points))
	for i, p := range points {
		normals[i] = normalsAt(p)
	}

	clipped := k.Intersection(k.GrooveTool(points, normals, width, depth), skin)
	if bites(k, clipped, points, normals, depth) {
		return tool{solid: clipped}
	}

	// Retry once with the tool nudged along its normal.
	eps := 1e-3 * meanEdge
	n := meanNormal(normals)
	moved := k.Translate(k.GrooveTool(points, normals, width, depth), -n[0]*eps, -n[1]*eps, -n[2]*eps)
	clipped = k.Intersection(moved, skin)
	if bites(k, clipped, points, normals, depth) {
		return tool{solid: clipped}
	}
	return tool{skipped: true}
}

// bites reports whether the clipped tool actually removes material: at
// least one probe point below the surface must be inside it. Several
// depths are probed because the skin may be thinner than the relief.
func bites(k kernel.Kernel, clipped kernel.Solid, points, normals []vec3.T, depth float64) bool {
	for _, frac := range []float64{0.1, 0.25, 0.5, 0.75} {
		probe := depth * frac
		for i := range points {
			p, n := points[i], normals[i]
			inside := vec3.T{p[0] - n[0]*probe, p[1] - n[1]*probe, p[2] - n[2]*probe}
			if k.Contains(clipped, inside) {
				return true
			}
		}
	}
	return false
}

// grooveWidth derives the groove width from density, clamped to a sane
// multiple of the mesh resolution.
func grooveWidth(m *mesh.Mesh, density float64) float64 {
	if density <= 0 {
		density = 1
	}
	w := widthFactor * m.MeanEdgeLength() / density
	if min := 0.05 * m.MeanEdgeLength(); w < min {
		w = min
	}
	if max := 2 * m.MeanEdgeLength(); w > max {
		w = max
	}
	return w
}

// newNormalLookup returns a closure mapping a surface point to the normal
// of its nearest mesh vertex.
func newNormalLookup(m *mesh.Mesh) func(vec3.T) vec3.T {
	return func(p vec3.T) vec3.T {
		best, bestDist := 0, math.Inf(1)
		for i := 0; i < m.VertexCount(); i++ {
			v := m.Vertex(i)
			d := vec3.Sub(&v, &p)
			if l := d.LengthSqr(); l < bestDist {
				best, bestDist = i, l
			}
		}
		return m.Normals()[best]
	}
}

func polylineLength(points []vec3.T) float64 {
	var sum float64
	for i := 0; i+1 < len(points); i++ {
		d := vec3.Sub(&points[i+1], &points[i])
		sum += d.Length()
	}
	return sum
}

func meanNormal(normals []vec3.T) vec3.T {
	var acc vec3.T
	for _, n := range normals {
		for k := 0; k < 3; k++ {
			acc[k] += n[k]
		}
	}
	if l := acc.Length(); l > 1e-30 {
		acc.Scale(1 / l)
	}
	return acc
}
