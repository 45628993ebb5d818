package analysis

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"mmas/internal/lattice"
)

// Sample is one point of a grain-growth trajectory.
type Sample struct {
	MCS           float64
	Grains        int
	MeanArea      float64
	BoundaryPairs int
}

// Series is a named trajectory.
type Series struct {
	Name    string
	Samples []Sample
}

// Record measures l and appends the result at the given MCS.
func (s *Series) Record(mcs float64, l *lattice.Lattice) Sample {
	st := Measure(l)
	smp := Sample{MCS: mcs, Grains: st.Grains, MeanArea: st.MeanArea, BoundaryPairs: st.BoundaryPairs}
	s.Samples = append(s.Samples, smp)
	return smp
}

// PlotKinetics draws mean grain area against MCS for every series and saves
// the figure to path. The extension selects the format.
func PlotKinetics(path string, series ...Series) error {
	p := plot.New()
	p.Title.Text = "Grain growth kinetics"
	p.X.Label.Text = "MCS"
	p.Y.Label.Text = "Mean grain area (cells)"
	p.Add(plotter.NewGrid())

	for i, s := range series {
		if len(s.Samples) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.Samples))
		for j, smp := range s.Samples {
			pts[j] = plotter.XY{X: smp.MCS, Y: smp.MeanArea}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("analysis: series %q: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		if s.Name != "" {
			p.Legend.Add(s.Name, line)
		}
	}
	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = 10
	p.Legend.YOffs = -10

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("analysis: save plot: %w", err)
	}
	return nil
}
