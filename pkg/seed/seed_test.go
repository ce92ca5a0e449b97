package seed

import (
	"testing"

	vec3 "github.com/flywave/go3d/float64/vec3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/voronoimaker/pkg/mesh"
)

func testMesh() *mesh.Mesh {
	return mesh.Subdivide(mesh.Box(2, 2, 2), 2)
}

func TestParseMode(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Mode
	}{
		{"surface", ModeSurface},
		{"radial", ModeRadial},
		{"multicenter", ModeMulticenter},
	} {
		got, err := ParseMode(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in, got.String())
	}
	_, err := ParseMode("spiral")
	assert.Error(t, err)
}

func TestSurfaceDeterministic(t *testing.T) {
	m := testMesh()
	cfg := Config{Mode: ModeSurface, Density: 0.7, RandomSeed: 42}

	a, err := Generate(m, cfg)
	require.NoError(t, err)
	b, err := Generate(m, cfg)
	require.NoError(t, err)

	require.NotEmpty(t, a)
	assert.Equal(t, a, b, "identical config must reproduce identical seeds")
}

func TestSurfaceDifferentRandomSeeds(t *testing.T) {
	m := testMesh()
	a, err := Generate(m, Config{Mode: ModeSurface, Density: 0.7, RandomSeed: 1})
	require.NoError(t, err)
	b, err := Generate(m, Config{Mode: ModeSurface, Density: 0.7, RandomSeed: 2})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSeedCountMonotoneInDensity(t *testing.T) {
	m := testMesh()
	for _, mode := range []Mode{ModeSurface, ModeRadial} {
		low, err := Generate(m, Config{Mode: mode, Density: 0.2, RandomSeed: 7})
		require.NoError(t, err)
		high, err := Generate(m, Config{Mode: mode, Density: 0.9, RandomSeed: 7})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(high), len(low), "mode %s", mode)
	}
}

func TestSeedIDsStableAndSequential(t *testing.T) {
	m := testMesh()
	seeds, err := Generate(m, Config{Mode: ModeRadial, Density: 0.5, RandomSeed: 3})
	require.NoError(t, err)
	for i, s := range seeds {
		assert.Equal(t, i, s.ID)
	}
}

func TestRadialSeedsOnSurfaceWithWeights(t *testing.T) {
	m := testMesh()
	sdf := mesh.SignedDistance(m)
	seeds, err := Generate(m, Config{Mode: ModeRadial, Density: 0.6, RandomSeed: 11})
	require.NoError(t, err)
	require.NotEmpty(t, seeds)
	for _, s := range seeds {
		assert.InDelta(t, 0, sdf.SDF(mesh.ToCoord3D(s.Pos)), 1e-6,
			"radial seed %d should lie on the surface", s.ID)
		assert.Greater(t, s.Weight, 0.0)
	}
}

func TestMulticenterEmptyIsError(t *testing.T) {
	_, err := Generate(testMesh(), Config{Mode: ModeMulticenter})
	require.ErrorIs(t, err, ErrEmptySeedSet)
}

func TestMulticenterKeepsInteriorPoints(t *testing.T) {
	m := testMesh()
	pts := []vec3.T{{0, 0, 0}, {0.5, 0.2, -0.3}}
	seeds, err := Generate(m, Config{Mode: ModeMulticenter, Points: pts})
	require.NoError(t, err)
	require.Len(t, seeds, 2)
	for i, s := range seeds {
		assert.Equal(t, pts[i], s.Pos)
	}
}

func TestMulticenterProjectsExteriorPoints(t *testing.T) {
	m := testMesh()
	solid := mesh.Solid(m)
	seeds, err := Generate(m, Config{Mode: ModeMulticenter, Points: []vec3.T{{5, 0, 0}}})
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.True(t, solid.Contains(mesh.ToCoord3D(seeds[0].Pos)),
		"exterior point must be projected inside the solid")
}

func TestMulticenterProjectsToNearestPoint(t *testing.T) {
	m := testMesh()
	// The closest surface point to (3, 0.4, -0.3) is (1, 0.4, -0.3); a
	// walk toward the centroid would instead enter near (1, 0.27, -0.2).
	seeds, err := Generate(m, Config{Mode: ModeMulticenter, Points: []vec3.T{{3, 0.4, -0.3}}})
	require.NoError(t, err)
	require.Len(t, seeds, 1)

	pos := seeds[0].Pos
	assert.InDelta(t, 1, pos[0], 1e-2)
	assert.InDelta(t, 0.4, pos[1], 1e-2)
	assert.InDelta(t, -0.3, pos[2], 1e-2)
	assert.True(t, mesh.Solid(m).Contains(mesh.ToCoord3D(pos)))
}

func TestMergeClose(t *testing.T) {
	positions := []vec3.T{{0, 0, 0}, {0, 0, 1e-12}, {1, 0, 0}}
	weights := []float64{2, 4, 1}
	outPos, outW := mergeClose(positions, weights, 1e-6)
	require.Len(t, outPos, 2)
	assert.InDelta(t, 3, outW[0], 1e-9, "merged weight should average")
	assert.Equal(t, vec3.T{1, 0, 0}, outPos[1])
}
