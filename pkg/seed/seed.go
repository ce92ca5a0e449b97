// Package seed generates the Voronoi seed distribution for a job. Three
// modes exist: surface (blue-noise sampling on the mesh), radial (rays cast
// from the volumetric centroid) and multicenter (caller-supplied points).
// The mode is dispatched exactly once here; downstream stages only ever see
// the resulting seed list.
package seed

import (
	"fmt"
	"math/rand"

	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/pkg/errors"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

// Mode selects the seed distribution strategy.
type Mode int

const (
	ModeSurface Mode = iota
	ModeRadial
	ModeMulticenter
)

func (m Mode) String() string {
	switch m {
	case ModeSurface:
		return "surface"
	case ModeRadial:
		return "radial"
	case ModeMulticenter:
		return "multicenter"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps a mode name to its Mode value.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "surface":
		return ModeSurface, nil
	case "radial":
		return ModeRadial, nil
	case "multicenter":
		return ModeMulticenter, nil
	default:
		return 0, errors.Errorf("seed: unknown mode %q", s)
	}
}

// ErrEmptySeedSet is returned when multicenter mode is invoked without any
// explicit seed points.
var ErrEmptySeedSet = errors.New("seed: multicenter mode requires at least one seed point")

// Seed is a generated Voronoi site. IDs are stable for the whole run and
// seeds are never mutated after generation. Weight biases the partition;
// 1 means unweighted.
type Seed struct {
	ID     int
	Pos    vec3.T
	Weight float64
}

// Config carries the per-job sampling parameters. Density is in (0, 1];
// higher density produces more, smaller cells. RandomSeed makes surface and
// radial sampling reproducible. Points is the explicit list for multicenter
// mode.
type Config struct {
	Mode       Mode
	Density    float64
	RandomSeed int64
	Points     []vec3.T
}

// Generate produces the seed set for a mesh. Seeds closer together than a
// small epsilon are merged rather than rejected, so the partition never sees
// two sites at effectively zero distance.
func Generate(m *mesh.Mesh, cfg Config) ([]Seed, error) {
	var (
		positions []vec3.T
		weights   []float64
		err       error
	)
	switch cfg.Mode {
	case ModeSurface:
		positions, weights, err = surfacePositions(m, cfg)
	case ModeRadial:
		positions, weights, err = radialPositions(m, cfg)
	case ModeMulticenter:
		positions, weights, err = multicenterPositions(m, cfg)
	default:
		return nil, errors.Errorf("seed: unknown mode %q", cfg.Mode)
	}
	if err != nil {
		return nil, err
	}

	positions, weights = mergeClose(positions, weights, mergeEpsilon(m))

	seeds := make([]Seed, len(positions))
	for i := range positions {
		seeds[i] = Seed{ID: i, Pos: positions[i], Weight: weights[i]}
	}
	return seeds, nil
}

// mergeEpsilon is the zero-distance guard: two sites closer than this are
// one site.
func mergeEpsilon(m *mesh.Mesh) float64 {
	eps := 1e-4 * m.MeanEdgeLength()
	if eps < 1e-9 {
		eps = 1e-9
	}
	return eps
}

// mergeClose collapses near-coincident positions, keeping the earlier slot
// and averaging position and weight into it.
func mergeClose(positions []vec3.T, weights []float64, eps float64) ([]vec3.T, []float64) {
	var (
		outPos []vec3.T
		outW   []float64
		counts []int
	)
	for i, p := range positions {
		merged := false
		for j := range outPos {
			d := vec3.Sub(&outPos[j], &p)
			if d.Length() < eps {
				n := float64(counts[j])
				for k := 0; k < 3; k++ {
					outPos[j][k] = (outPos[j][k]*n + p[k]) / (n + 1)
				}
				outW[j] = (outW[j]*n + weights[i]) / (n + 1)
				counts[j]++
				merged = true
				break
			}
		}
		if !merged {
			outPos = append(outPos, p)
			outW = append(outW, weights[i])
			counts = append(counts, 1)
		}
	}
	return outPos, outW
}

func newRNG(cfg Config) *rand.Rand {
	return rand.New(rand.NewSource(cfg.RandomSeed))
}
