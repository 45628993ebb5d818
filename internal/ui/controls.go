package ui

import (
	"fmt"
	"math"
	"strconv"

	"mmas/internal/core"
)

// ProgressGroup names the parameter group shown as a read-only status block.
const ProgressGroup = "Progress"

// stepTarget returns the value one step away from current in direction,
// clamped to the control bounds. ok is false when the clamp leaves the value
// unchanged.
func stepTarget(ctrl core.ParameterControl, current float64, direction int) (target float64, ok bool) {
	if direction == 0 {
		return current, false
	}
	step := ctrl.Step
	switch {
	case ctrl.Type == core.ParamTypeInt:
		step = math.Round(step)
		if step <= 0 {
			step = 1
		}
	case step <= 0:
		step = 0.05
	}
	target = current + float64(direction)*step
	if ctrl.HasMin && target < ctrl.Min {
		target = ctrl.Min
	}
	if ctrl.HasMax && target > ctrl.Max {
		target = ctrl.Max
	}
	if ctrl.Type == core.ParamTypeInt {
		target = math.Round(target)
	}
	return target, math.Abs(target-current) >= 1e-9
}

// formatFloat prints value with a precision suited to the control step.
func formatFloat(ctrl core.ParameterControl, value float64) string {
	step := ctrl.Step
	if step <= 0 {
		step = 0.05
	}
	precision := 1
	switch {
	case step < 0.001:
		precision = 4
	case step < 0.01:
		precision = 3
	case step < 0.1:
		precision = 2
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// statusLines renders the progress group as "Label: value" lines, adding the
// acceptance ratio when both counters are present.
func statusLines(snap core.ParameterSnapshot) []string {
	var lines []string
	for _, g := range snap.Groups {
		if g.Name != ProgressGroup {
			continue
		}
		for _, p := range g.Params {
			lines = append(lines, p.Label+": "+p.Value)
		}
	}
	att, okA := snap.Lookup("attempts")
	acc, okB := snap.Lookup("accepted")
	if okA && okB {
		a, errA := strconv.ParseFloat(att.Value, 64)
		b, errB := strconv.ParseFloat(acc.Value, 64)
		if errA == nil && errB == nil && a > 0 {
			lines = append(lines, fmt.Sprintf("Acceptance: %.1f%%", 100*b/a))
		}
	}
	return lines
}

// Title formats the window title with the current Monte Carlo step.
func Title(sim core.Sim) string {
	title := "Microstructure Modeling & Simulation"
	provider, ok := sim.(core.ParameterProvider)
	if !ok {
		return title
	}
	if mcs, ok := provider.Parameters().Lookup("mcs"); ok {
		title += " | MCS " + mcs.Value
	}
	return title
}
