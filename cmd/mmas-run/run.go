package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"mmas/internal/analysis"
	"mmas/internal/app"
	"mmas/internal/core"
	"mmas/internal/micro"
	"mmas/internal/render"
	"mmas/internal/store"
)

// errStagnant reports a pass in which no site had an unlike neighbour, so
// no further evolution is possible.
var errStagnant = errors.New("microstructure stopped evolving")

// runner drives a microstructure headlessly, sampling kinetics every MCS and
// writing checkpoints, snapshots and plots as configured.
type runner struct {
	m       *micro.Microstructure
	logger  *log.Logger
	workers int

	capture   *app.Capture
	palette   render.Palette
	snapshots *core.Interval

	db    *store.DB
	runID string
	every uint64

	series analysis.Series
}

// history seeds the kinetics series with checkpoints recorded by an earlier
// run.
func (r *runner) history(cps []store.Checkpoint) {
	for _, c := range cps {
		r.series.Samples = append(r.series.Samples, analysis.Sample{
			MCS:           float64(c.MCS),
			Grains:        c.Grains,
			MeanArea:      c.MeanArea,
			BoundaryPairs: c.BoundaryPairs,
		})
	}
}

// run advances the microstructure by mcs Monte Carlo steps.
func (r *runner) run(ctx context.Context, mcs uint64) error {
	e := r.m.Engine()
	target := e.MCS() + mcs
	if err := r.observe(); err != nil {
		return err
	}
	for e.MCS() < target {
		if err := ctx.Err(); err != nil {
			return err
		}
		before, mcsBefore := e.Attempts(), e.MCS()
		if err := r.step(ctx); err != nil {
			return err
		}
		if e.Attempts() == before {
			return errStagnant
		}
		if e.MCS() != mcsBefore {
			if err := r.observe(); err != nil {
				return err
			}
		}
		if r.snapshots.Due() {
			r.snapshot()
		}
	}
	return nil
}

// step performs one pass worth of attempts: a parallel sweep when workers
// are configured, otherwise one random attempt per site.
func (r *runner) step(ctx context.Context) error {
	if r.workers > 0 {
		return r.m.Engine().Sweep(ctx, r.workers)
	}
	r.m.Engine().Tick(r.m.Lattice().Len())
	return nil
}

// observe samples the current MCS and records a checkpoint on the
// configured cadence.
func (r *runner) observe() error {
	mcs := r.m.Engine().MCS()
	if n := len(r.series.Samples); n > 0 && r.series.Samples[n-1].MCS == float64(mcs) {
		return nil
	}
	smp := r.series.Record(float64(mcs), r.m.Lattice())
	r.logger.Debug("sample", "mcs", mcs, "grains", smp.Grains, "mean_area", smp.MeanArea, "boundary_pairs", smp.BoundaryPairs)
	if r.every == 0 || mcs%r.every != 0 {
		return nil
	}
	return r.checkpoint(smp)
}

func (r *runner) checkpoint(smp analysis.Sample) error {
	if r.db == nil {
		return nil
	}
	e := r.m.Engine()
	err := r.db.RecordCheckpoint(store.Checkpoint{
		RunID:         r.runID,
		MCS:           e.MCS(),
		Attempts:      e.Attempts(),
		Accepted:      e.Accepted(),
		Grains:        smp.Grains,
		MeanArea:      smp.MeanArea,
		BoundaryPairs: smp.BoundaryPairs,
		Snapshot:      r.m.Snapshot(),
	})
	if err != nil {
		return err
	}
	r.logger.Info("checkpoint", "run", r.runID, "mcs", e.MCS(), "grains", smp.Grains)
	return nil
}

// finish records a closing checkpoint regardless of cadence.
func (r *runner) finish() error {
	if n := len(r.series.Samples); n == 0 || r.series.Samples[n-1].MCS != float64(r.m.Engine().MCS()) {
		r.series.Record(float64(r.m.Engine().MCS()), r.m.Lattice())
	}
	return r.checkpoint(r.series.Samples[len(r.series.Samples)-1])
}

func (r *runner) snapshot() {
	if r.capture == nil {
		return
	}
	path, err := r.capture.PNG(r.m, r.palette)
	if err != nil {
		r.logger.Error("snapshot failed", "err", err)
		return
	}
	r.logger.Info("saved snapshot", "path", path, "mcs", r.m.Engine().MCS())
}

// report logs the final grain statistics and the fitted growth exponent.
func (r *runner) report() {
	st := analysis.Measure(r.m.Lattice())
	e := r.m.Engine()
	kv := []any{
		"mcs", e.MCS(),
		"grains", st.Grains,
		"labels", st.Labels,
		"mean_area", fmt.Sprintf("%.2f", st.MeanArea),
		"std_area", fmt.Sprintf("%.2f", st.StdArea),
		"max_area", st.MaxArea,
		"energy", e.TotalEnergy(),
	}
	if e.Attempts() > 0 {
		kv = append(kv, "acceptance", fmt.Sprintf("%.3f", float64(e.Accepted())/float64(e.Attempts())))
	}
	if n, err := analysis.GrowthExponent(r.series.Samples); err == nil {
		kv = append(kv, "growth_exponent", fmt.Sprintf("%.3f", n))
	}
	r.logger.Info("finished", kv...)
}
