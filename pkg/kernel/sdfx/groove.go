package sdfx

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/chazu/voronoimaker/pkg/kernel"
)

// grooveLevels is how many depth levels get a rail along the curve. Rails
// plus the per-point depth spines close the gaps between samples so the
// tool cuts a continuous channel.
const grooveLevels = 3

// segment is a capsule spine between two points.
type segment struct {
	a, b v3.Vec
}

// grooveSDF is the carving tool: the set of points within radius of a cage
// of segments following the bisector curve down to the relief depth. It is
// a rounded prism swept along the curve.
type grooveSDF struct {
	segments []segment
	radius   float64
	bb       sdf.Box3
}

// GrooveTool builds the transient solid carved along one bisector curve.
// points lie on the surface; normals are the local outward directions. The
// tool spans from slightly above the surface down to depth below it and is
// width wide.
func (k *SdfxKernel) GrooveTool(points, normals []vec3.T, width, depth float64) kernel.Solid {
	radius := width / 2
	g := &grooveSDF{radius: radius}

	top := make([]v3.Vec, len(points))
	bottom := make([]v3.Vec, len(points))
	for i, p := range points {
		n := normals[i]
		top[i] = v3.Vec{X: p[0] + n[0]*radius, Y: p[1] + n[1]*radius, Z: p[2] + n[2]*radius}
		bottom[i] = v3.Vec{X: p[0] - n[0]*depth, Y: p[1] - n[1]*depth, Z: p[2] - n[2]*depth}
		// Depth spine at each sample.
		g.segments = append(g.segments, segment{a: top[i], b: bottom[i]})
	}
	// Rails along the curve at a few depth levels.
	for level := 0; level < grooveLevels; level++ {
		t := float64(level) / float64(grooveLevels-1)
		for i := 0; i+1 < len(points); i++ {
			g.segments = append(g.segments, segment{
				a: lerpVec(top[i], bottom[i], t),
				b: lerpVec(top[i+1], bottom[i+1], t),
			})
		}
	}

	g.bb = segmentBounds(g.segments, radius)
	return wrap(g)
}

func (g *grooveSDF) Evaluate(p v3.Vec) float64 {
	best := math.Inf(1)
	for _, s := range g.segments {
		if d := segmentDistance(p, s.a, s.b); d < best {
			best = d
		}
	}
	return best - g.radius
}

func (g *grooveSDF) BoundingBox() sdf.Box3 {
	return g.bb
}

// segmentDistance is the distance from p to segment ab.
func segmentDistance(p, a, b v3.Vec) float64 {
	abx, aby, abz := b.X-a.X, b.Y-a.Y, b.Z-a.Z
	apx, apy, apz := p.X-a.X, p.Y-a.Y, p.Z-a.Z
	lenSq := abx*abx + aby*aby + abz*abz
	t := 0.0
	if lenSq > 1e-30 {
		t = (apx*abx + apy*aby + apz*abz) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}
	dx := apx - t*abx
	dy := apy - t*aby
	dz := apz - t*abz
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func lerpVec(a, b v3.Vec, t float64) v3.Vec {
	return v3.Vec{
		X: a.X + t*(b.X-a.X),
		Y: a.Y + t*(b.Y-a.Y),
		Z: a.Z + t*(b.Z-a.Z),
	}
}

func segmentBounds(segments []segment, radius float64) sdf.Box3 {
	min := v3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max := v3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	grow := func(p v3.Vec) {
		min.X = math.Min(min.X, p.X-radius)
		min.Y = math.Min(min.Y, p.Y-radius)
		min.Z = math.Min(min.Z, p.Z-radius)
		max.X = math.Max(max.X, p.X+radius)
		max.Y = math.Max(max.Y, p.Y+radius)
		max.Z = math.Max(max.Z, p.Z+radius)
	}
	for _, s := range segments {
		grow(s.a)
		grow(s.b)
	}
	return sdf.Box3{Min: min, Max: max}
}
