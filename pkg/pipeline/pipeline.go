// Package pipeline runs the full perforation job: seed generation,
// geodesic partition, shell offset, groove carving and export validation,
// in that order. Stages communicate only through immutable values, errors
// are surfaced per the taxonomy (terminal failures return no mesh,
// per-curve carve failures accumulate in the report), and cancellation is
// honored at every stage boundary.
package pipeline

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/chazu/voronoimaker/pkg/carve"
	"github.com/chazu/voronoimaker/pkg/kernel/sdfx"
	"github.com/chazu/voronoimaker/pkg/mesh"
	"github.com/chazu/voronoimaker/pkg/offset"
	"github.com/chazu/voronoimaker/pkg/pool"
	"github.com/chazu/voronoimaker/pkg/seed"
	"github.com/chazu/voronoimaker/pkg/validate"
	"github.com/chazu/voronoimaker/pkg/voronoi"
)

var log = logrus.WithField("component", "pipeline")

// Report is the per-job summary returned alongside the output mesh.
type Report struct {
	SkippedCurveIDs []int
	CellCount       int
	ElapsedStages   map[string]time.Duration
}

// Outcome bundles the final mesh with its report. Outcome is only returned
// on success; terminal failures return a nil Outcome and no partial mesh.
type Outcome struct {
	Mesh   *mesh.Mesh
	Report Report
}

// Run executes the whole job on m. The input mesh is never mutated.
// Cancellation is checked between stages, never mid-stage, so a canceled
// run leaves no caller-visible partial state.
func Run(ctx context.Context, m *mesh.Mesh, cfg Config) (*Outcome, error) {
	if err := ValidateParameters(cfg); err != nil {
		return nil, err
	}

	report := Report{
		SkippedCurveIDs: []int{},
		ElapsedStages:   make(map[string]time.Duration),
	}
	workers := pool.New(cfg.Workers)

	// Stage: seeds.
	start := time.Now()
	seeds, err := seed.Generate(m, seed.Config{
		Mode:       cfg.Mode,
		Density:    cfg.Density,
		RandomSeed: cfg.RandomSeed,
		Points:     cfg.Seeds,
	})
	if err != nil {
		if errors.Is(err, seed.ErrEmptySeedSet) {
			return nil, &ValidationError{
				Field:  "seeds",
				Code:   CodeEmptySeedSet,
				Reason: "multicenter mode requires at least one seed point",
			}
		}
		return nil, errors.Wrap(err, "seed stage")
	}
	finishStage(&report, "seeds", start, logrus.Fields{"count": len(seeds), "mode": cfg.Mode.String()})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage: partition.
	start = time.Now()
	field, curves, err := voronoi.Partition(ctx, m, seeds, voronoi.Options{
		TieEpsilon: cfg.TieEpsilon,
		Pool:       workers,
	})
	if err != nil {
		return nil, errors.Wrap(err, "partition stage")
	}
	report.CellCount = field.CellCount()
	finishStage(&report, "partition", start, logrus.Fields{"cells": report.CellCount, "curves": len(curves)})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage: offset. A *offset.Failure passes through unwrapped so the
	// caller keeps the achievable-thickness hint.
	start = time.Now()
	shell, err := offset.Compute(m, cfg.ShellThickness)
	if err != nil {
		return nil, err
	}
	finishStage(&report, "offset", start, logrus.Fields{"thickness": cfg.ShellThickness})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage: carve.
	start = time.Now()
	carved, err := carve.Carve(ctx, m, shell, curves, cfg.ReliefDepth, carve.Options{
		Density:   cfg.Density,
		Kernel:    sdfx.New(),
		Pool:      workers,
		MeshCells: cfg.MeshCells,
	})
	if err != nil {
		return nil, errors.Wrap(err, "carve stage")
	}
	report.SkippedCurveIDs = carved.SkippedCurveIDs
	finishStage(&report, "carve", start, logrus.Fields{"skipped": len(report.SkippedCurveIDs)})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage: validate. Sliver collapse is the only repair attempted; any
	// remaining violation is terminal and no mesh is emitted.
	start = time.Now()
	out, err := validate.CollapseSlivers(carved.Mesh, 0)
	if err != nil {
		return nil, errors.Wrap(err, "validate stage")
	}
	if err := validate.Check(out); err != nil {
		return nil, err
	}
	finishStage(&report, "validate", start, logrus.Fields{"faces": out.FaceCount()})

	return &Outcome{Mesh: out, Report: report}, nil
}

func finishStage(r *Report, name string, start time.Time, fields logrus.Fields) {
	elapsed := time.Since(start)
	r.ElapsedStages[name] = elapsed
	log.WithFields(fields).WithFields(logrus.Fields{
		"stage":   name,
		"elapsed": elapsed,
	}).Info("stage complete")
}
