// Command temperature-sweep grows microstructures across a grid of
// temperatures and seeds and compares their coarsening kinetics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	flag "github.com/juju/gnuflag"

	"mmas/internal/analysis"
	"mmas/internal/micro"
)

var (
	temps    = flag.String("temps", "0,0.25,0.5,0.75,1", "comma-separated temperatures")
	seeds    = flag.Int("seeds", 3, "seeds per temperature")
	steps    = flag.Int("mcs", 50, "Monte Carlo steps per scenario")
	workers  = flag.Int("workers", runtime.NumCPU(), "number of worker goroutines")
	plotPath = flag.String("plot", "", "write the averaged kinetics of every temperature to this path")
	base     = micro.DefaultConfig()
)

func init() {
	base.Width = 300
	base.CellSize = 3
	base.Bind(flag.CommandLine)
}

func main() {
	flag.Parse(true)
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "temperature-sweep"})

	ts, err := parseTemperatures(*temps)
	if err != nil {
		logger.Fatal("parse temperatures", "err", err)
	}
	if err := base.Validate(); err != nil {
		logger.Fatal("config", "err", err)
	}
	scs := scenarios(ts, max(*seeds, 1), base.Seed)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("sweeping", "scenarios", len(scs), "workers", *workers, "mcs", *steps,
		"lattice", fmt.Sprintf("%dx%d", base.Cols(), base.Rows()), "orientations", base.Orientations)
	start := time.Now()
	results, err := sweep(ctx, base, scs, uint64(max(*steps, 0)), *workers)
	if err != nil {
		logger.Fatal("sweep", "err", err)
	}

	for _, r := range results {
		fmt.Printf("%-18s mcs=%-4d grains=%-4d meanArea=%8.2f stdArea=%8.2f pairs=%-6d acceptance=%.3f\n",
			r.scenario, r.mcs, r.stats.Grains, r.stats.MeanArea, r.stats.StdArea, r.stats.BoundaryPairs, r.acceptance)
	}

	sums := summarize(results)
	fmt.Printf("\nPer temperature (elapsed %s):\n", time.Since(start).Round(time.Millisecond))
	series := make([]analysis.Series, len(sums))
	for i, s := range sums {
		fmt.Printf("T=%-6g runs=%d grains=%7.1f meanArea=%8.2f acceptance=%.3f exponent=%.3f\n",
			s.temperature, s.runs, s.grains, s.meanArea, s.acceptance, s.exponent)
		series[i] = s.series
	}

	if *plotPath != "" {
		if err := analysis.PlotKinetics(*plotPath, series...); err != nil {
			logger.Fatal("plot", "err", err)
		}
		logger.Info("wrote kinetics plot", "path", *plotPath)
	}
}
