package pipeline

import (
	"fmt"

	vec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/chazu/voronoimaker/pkg/seed"
)

// Parameter validation codes.
const (
	CodeUnknownMode  = "UNKNOWN_MODE"
	CodeOutOfRange   = "OUT_OF_RANGE"
	CodeEmptySeedSet = "EMPTY_SEED_SET"
)

// ValidationError reports a bad configuration value. It is always raised
// before any geometry work starts, so the caller can correct the field and
// retry. Geometry-dependent limits, like a wall thicker than the solid can
// hold, are not validated here; those surface from the stage that measures
// them, together with an achievable hint.
type ValidationError struct {
	Field  string
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s (%s)", e.Field, e.Reason, e.Code)
}

// Config is the immutable per-job configuration. It is threaded through
// every stage by value; stages never mutate it.
type Config struct {
	// Mode selects the seed distribution strategy.
	Mode seed.Mode
	// ShellThickness is the preserved outer wall thickness in mesh units.
	ShellThickness float64
	// Density is in (0, 1]; higher density yields more, smaller cells.
	Density float64
	// ReliefDepth is how deep grooves cut into the skin, in mesh units.
	ReliefDepth float64
	// Seeds is the explicit site list for multicenter mode.
	Seeds []vec3.T
	// RandomSeed makes surface and radial sampling reproducible.
	RandomSeed int64
	// Workers bounds the pool; non-positive selects NumCPU.
	Workers int
	// TieEpsilon overrides the partition tie tolerance; zero selects the
	// mesh-proportional default.
	TieEpsilon float64
	// MeshCells is the marching cubes resolution; zero selects the kernel
	// default.
	MeshCells int
}

// ValidateParameters checks the configuration before any geometry work.
// It returns a *ValidationError naming the first offending field, or nil.
func ValidateParameters(cfg Config) error {
	switch cfg.Mode {
	case seed.ModeSurface, seed.ModeRadial, seed.ModeMulticenter:
	default:
		return &ValidationError{
			Field:  "mode",
			Code:   CodeUnknownMode,
			Reason: fmt.Sprintf("unknown mode %q", cfg.Mode),
		}
	}

	if cfg.Density <= 0 || cfg.Density > 1 {
		return &ValidationError{
			Field:  "density",
			Code:   CodeOutOfRange,
			Reason: fmt.Sprintf("density %.4g outside (0, 1]", cfg.Density),
		}
	}

	if cfg.Mode == seed.ModeSurface && cfg.ReliefDepth == 0 {
		return &ValidationError{
			Field:  "reliefDepth",
			Code:   CodeOutOfRange,
			Reason: "must be nonzero in surface mode",
		}
	}
	if cfg.ReliefDepth <= 0 {
		return &ValidationError{
			Field:  "reliefDepth",
			Code:   CodeOutOfRange,
			Reason: fmt.Sprintf("relief depth %.4g must be positive", cfg.ReliefDepth),
		}
	}

	if cfg.ShellThickness <= 0 {
		return &ValidationError{
			Field:  "shellThickness",
			Code:   CodeOutOfRange,
			Reason: fmt.Sprintf("shell thickness %.4g must be positive", cfg.ShellThickness),
		}
	}

	if cfg.Mode == seed.ModeMulticenter && len(cfg.Seeds) == 0 {
		return &ValidationError{
			Field:  "seeds",
			Code:   CodeEmptySeedSet,
			Reason: "multicenter mode requires at least one seed point",
		}
	}

	return nil
}
