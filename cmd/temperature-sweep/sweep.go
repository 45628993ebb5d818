package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"mmas/internal/analysis"
	"mmas/internal/micro"
)

type scenario struct {
	temperature float64
	seed        int64
}

func (s scenario) String() string {
	return fmt.Sprintf("T=%g seed=%d", s.temperature, s.seed)
}

type scenarioResult struct {
	scenario
	mcs        uint64
	stats      analysis.Stats
	acceptance float64
	series     analysis.Series
}

// summary aggregates the seeds of one temperature.
type summary struct {
	temperature float64
	runs        int
	grains      float64
	meanArea    float64
	acceptance  float64
	exponent    float64
	series      analysis.Series
}

func parseTemperatures(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		t, err := strconv.ParseFloat(field, 64)
		if err != nil || t < 0 || math.IsInf(t, 0) {
			return nil, fmt.Errorf("invalid temperature %q", field)
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, errors.New("no temperatures given")
	}
	return out, nil
}

func scenarios(temps []float64, seeds int, baseSeed int64) []scenario {
	var out []scenario
	for _, t := range temps {
		for i := 0; i < seeds; i++ {
			out = append(out, scenario{temperature: t, seed: baseSeed + int64(i)})
		}
	}
	return out
}

// runScenario grows one microstructure for steps MCS, one random attempt
// per site per pass, sampling the kinetics every MCS.
func runScenario(ctx context.Context, base micro.Config, sc scenario, steps uint64) (scenarioResult, error) {
	cfg := base
	cfg.Temperature = sc.temperature
	cfg.Seed = sc.seed
	m, err := micro.New(cfg)
	if err != nil {
		return scenarioResult{}, err
	}
	lat, e := m.Lattice(), m.Engine()
	res := scenarioResult{scenario: sc, series: analysis.Series{Name: sc.String()}}
	res.series.Record(0, lat)
	for e.MCS() < steps {
		if err := ctx.Err(); err != nil {
			return scenarioResult{}, err
		}
		before, mcs := e.Attempts(), e.MCS()
		e.Tick(lat.Len())
		if e.Attempts() == before {
			break
		}
		if e.MCS() != mcs {
			res.series.Record(float64(e.MCS()), lat)
		}
	}
	res.mcs = e.MCS()
	res.stats = analysis.Measure(lat)
	if e.Attempts() > 0 {
		res.acceptance = float64(e.Accepted()) / float64(e.Attempts())
	}
	return res, nil
}

// sweep runs every scenario on a pool of workers and returns the results
// ordered by temperature, then seed.
func sweep(ctx context.Context, base micro.Config, scs []scenario, steps uint64, workers int) ([]scenarioResult, error) {
	jobs := make(chan scenario)
	results := make(chan scenarioResult)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < max(workers, 1); i++ {
		g.Go(func() error {
			for sc := range jobs {
				res, err := runScenario(gctx, base, sc, steps)
				if err != nil {
					return fmt.Errorf("%s: %w", sc, err)
				}
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(jobs)
		for _, sc := range scs {
			select {
			case jobs <- sc:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
		close(results)
	}()

	var all []scenarioResult
	for res := range results {
		all = append(all, res)
	}
	if err := <-done; err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].temperature != all[j].temperature {
			return all[i].temperature < all[j].temperature
		}
		return all[i].seed < all[j].seed
	})
	return all, nil
}

// summarize groups sorted results by temperature.
func summarize(results []scenarioResult) []summary {
	var out []summary
	for start := 0; start < len(results); {
		end := start
		for end < len(results) && results[end].temperature == results[start].temperature {
			end++
		}
		group := results[start:end]
		s := summary{temperature: group[0].temperature, runs: len(group)}
		series := make([]analysis.Series, len(group))
		for i, r := range group {
			s.grains += float64(r.stats.Grains)
			s.meanArea += r.stats.MeanArea
			s.acceptance += r.acceptance
			series[i] = r.series
		}
		n := float64(len(group))
		s.grains /= n
		s.meanArea /= n
		s.acceptance /= n
		s.series = mergeSeries(fmt.Sprintf("T=%g", s.temperature), series)
		s.exponent = math.NaN()
		if exp, err := analysis.GrowthExponent(s.series.Samples); err == nil {
			s.exponent = exp
		}
		out = append(out, s)
		start = end
	}
	return out
}

// mergeSeries averages series sample by sample over their common length.
func mergeSeries(name string, series []analysis.Series) analysis.Series {
	out := analysis.Series{Name: name}
	if len(series) == 0 {
		return out
	}
	n := len(series[0].Samples)
	for _, s := range series[1:] {
		n = min(n, len(s.Samples))
	}
	for i := 0; i < n; i++ {
		var smp analysis.Sample
		var grains, pairs float64
		for _, s := range series {
			smp.MCS += s.Samples[i].MCS
			smp.MeanArea += s.Samples[i].MeanArea
			grains += float64(s.Samples[i].Grains)
			pairs += float64(s.Samples[i].BoundaryPairs)
		}
		k := float64(len(series))
		smp.MCS /= k
		smp.MeanArea /= k
		smp.Grains = int(math.Round(grains / k))
		smp.BoundaryPairs = int(math.Round(pairs / k))
		out.Samples = append(out.Samples, smp)
	}
	return out
}
