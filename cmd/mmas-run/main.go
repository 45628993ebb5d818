// Command mmas-run generates a microstructure and evolves it without a
// window, writing snapshots, checkpoints and kinetics plots.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/juju/gnuflag"

	"mmas/internal/analysis"
	"mmas/internal/app"
	"mmas/internal/core"
	"mmas/internal/micro"
	"mmas/internal/render"
	"mmas/internal/store"
)

var (
	steps      = flag.Int("mcs", 100, "Monte Carlo steps to run")
	workers    = flag.Int("workers", 0, "parallel sweep workers (0 runs random serial attempts)")
	snapEvery  = flag.Int("snapshot", 0, "save a PNG snapshot every N seconds (0 disables)")
	colored    = flag.Bool("color", false, "colour grains in snapshots instead of grayscale")
	outDir     = flag.String("out", ".", "directory for snapshots and saved microstructures")
	save       = flag.Bool("save", false, "save the final microstructure as JSON")
	load       = flag.String("load", "", "load a microstructure JSON file instead of generating one")
	dbPath     = flag.String("db", "", "SQLite checkpoint database")
	every      = flag.Int("checkpoint", 10, "checkpoint every N MCS when --db is set")
	resume     = flag.String("resume", "", "resume a run from its latest checkpoint (requires --db)")
	note       = flag.String("note", "", "note stored with a new run")
	plotPath   = flag.String("plot", "", "write a kinetics plot (png, svg or pdf) to this path")
	listRuns   = flag.Bool("runs", false, "list runs recorded in --db and exit")
	highlight  = flag.String("highlight-boundaries", "", "write boundary-only copies of the PNG snapshots in this folder and exit")
	verbose    = flag.Bool("v", false, "log every sample")
	simConfig  = micro.DefaultConfig()
	startClock = time.Now()
)

func init() {
	flag.StringVar(highlight, "hb", "", "")
	flag.BoolVar(verbose, "verbose", false, "")
	simConfig.Bind(flag.CommandLine)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `
Usage: mmas-run [OPTION]...
Generate a polycrystalline microstructure and simulate grain growth with the
Monte Carlo Potts model.
`[1:])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse(true)

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "mmas-run"})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Fatal("mmas-run", "err", err)
	}
}

func run(ctx context.Context, logger *log.Logger) error {
	if *highlight != "" {
		n, err := render.HighlightDir(ctx, *highlight, runtime.NumCPU())
		if err != nil {
			return err
		}
		logger.Info("highlighted boundaries", "images", n, "dir", *highlight)
		return nil
	}

	var db *store.DB
	if *dbPath != "" {
		var err error
		if db, err = store.Open(*dbPath, logger); err != nil {
			return err
		}
		defer db.Close()
	}
	if *listRuns {
		return printRuns(db)
	}

	r := &runner{
		logger:    logger,
		workers:   *workers,
		capture:   app.NewCapture(*outDir),
		snapshots: core.NewInterval(time.Duration(*snapEvery) * time.Second),
		db:        db,
		every:     uint64(max(*every, 0)),
	}
	var stored []store.Color
	switch {
	case *resume != "":
		if db == nil {
			return errors.New("--resume requires --db")
		}
		cp, err := db.LatestCheckpoint(*resume)
		if err != nil {
			return err
		}
		history, err := db.Checkpoints(*resume)
		if err != nil {
			return err
		}
		if r.m, err = restore(cp.Snapshot); err != nil {
			return err
		}
		r.runID = *resume
		r.history(history)
		logger.Info("resumed run", "run", r.runID, "mcs", cp.MCS)
	case *load != "":
		snap, err := store.Load(*load)
		if err != nil {
			return err
		}
		stored = snap.GrainColors
		if r.m, err = restore(snap); err != nil {
			return err
		}
		logger.Info("loaded microstructure", "path", *load, "mcs", r.m.Engine().MCS())
	default:
		var err error
		if r.m, err = micro.New(simConfig); err != nil {
			return err
		}
		cfg := r.m.Config()
		logger.Info("generated microstructure",
			"cols", cfg.Cols(), "rows", cfg.Rows(), "method", cfg.Method,
			"orientations", r.m.OrientationCount(), "distinct_seeds", r.m.DistinctSeeds())
	}
	if db != nil && r.runID == "" {
		id, err := db.CreateRun(r.m.Snapshot(), *note)
		if err != nil {
			return err
		}
		r.runID = id
		logger.Info("created run", "run", id)
	}
	r.series.Name = fmt.Sprintf("T=%g", r.m.Engine().Params().Temperature)
	palettes := app.NewPalettes(r.m.Levels(), stored, simConfig.Seed)
	r.palette = palettes.Pick(*colored)
	if r.snapshots.Enabled() {
		r.snapshot()
	}

	started := time.Now()
	err := r.run(ctx, uint64(max(*steps, 0)))
	switch {
	case errors.Is(err, errStagnant):
		logger.Info("stopping early", "reason", err, "mcs", r.m.Engine().MCS())
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted", "mcs", r.m.Engine().MCS())
	case err != nil:
		return err
	}
	logger.Info("simulated", "elapsed", time.Since(started).Round(time.Millisecond), "since_start", time.Since(startClock).Round(time.Second))

	if err := r.finish(); err != nil {
		return err
	}
	r.report()
	if *save {
		path, err := r.capture.JSON(r.m, palettes.Color)
		if err != nil {
			return err
		}
		logger.Info("saved microstructure", "path", path)
	}
	if *plotPath != "" {
		if err := analysis.PlotKinetics(*plotPath, r.series); err != nil {
			return err
		}
		logger.Info("wrote kinetics plot", "path", *plotPath)
	}
	return nil
}

// restore rebuilds a saved microstructure and applies any parameter flags
// given on the command line.
func restore(snap *store.Snapshot) (*micro.Microstructure, error) {
	m, err := micro.Restore(snap)
	if err != nil {
		return nil, err
	}
	var keys []string
	flag.Visit(func(f *flag.Flag) {
		if key, ok := micro.OverrideFlags[f.Name]; ok {
			keys = append(keys, key)
		}
	})
	return m, m.Override(simConfig, keys...)
}

func printRuns(db *store.DB) error {
	if db == nil {
		return errors.New("--runs requires --db")
	}
	runs, err := db.Runs()
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %s  %dx%d  %s/%d  T=%g J=%g k=%g  %s\n",
			r.ID, r.CreatedAt, r.Cols, r.Rows, r.SeedMethod, r.Orientations,
			r.Params.Temperature, r.Params.GrainBoundaryEnergy, r.Params.BoltzConst, r.Note)
	}
	return nil
}
