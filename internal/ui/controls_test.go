package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mmas/internal/core"
)

func TestStepTargetClampsFloat(t *testing.T) {
	ctrl := core.ParameterControl{Key: "temperature", Type: core.ParamTypeFloat, Step: 0.05, Min: 0, HasMin: true}

	got, ok := stepTarget(ctrl, 0.5, 1)
	assert.True(t, ok)
	assert.InDelta(t, 0.55, got, 1e-12)

	got, ok = stepTarget(ctrl, 0.02, -1)
	assert.True(t, ok)
	assert.Zero(t, got)

	_, ok = stepTarget(ctrl, 0, -1)
	assert.False(t, ok, "already at the minimum")
}

func TestStepTargetInt(t *testing.T) {
	ctrl := core.ParameterControl{Key: "batch", Type: core.ParamTypeInt, Step: 500, Min: 1, HasMin: true, Max: 2000, HasMax: true}

	got, ok := stepTarget(ctrl, 1000, 1)
	assert.True(t, ok)
	assert.Equal(t, 1500.0, got)

	got, ok = stepTarget(ctrl, 300, -1)
	assert.True(t, ok)
	assert.Equal(t, 1.0, got)

	_, ok = stepTarget(ctrl, 2000, 1)
	assert.False(t, ok)

	ctrl.Step = 0
	got, _ = stepTarget(ctrl, 10, 1)
	assert.Equal(t, 11.0, got)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.50", formatFloat(core.ParameterControl{Step: 0.05}, 0.5))
	assert.Equal(t, "1.0", formatFloat(core.ParameterControl{Step: 0.1}, 1))
	assert.Equal(t, "0.125", formatFloat(core.ParameterControl{Step: 0.005}, 0.125))
}

func TestStatusLines(t *testing.T) {
	snap := core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{Name: "Potts", Params: []core.Parameter{core.FloatParam("temperature", "Temperature", 0)}},
		{Name: ProgressGroup, Params: []core.Parameter{
			core.Uint64Param("mcs", "MCS", 4),
			core.Uint64Param("attempts", "Attempts", 400),
			core.Uint64Param("accepted", "Accepted", 100),
		}},
	}}
	assert.Equal(t, []string{"MCS: 4", "Attempts: 400", "Accepted: 100", "Acceptance: 25.0%"}, statusLines(snap))
	assert.Empty(t, statusLines(core.ParameterSnapshot{}))
}

type titledSim struct{ mcs uint64 }

func (s titledSim) Name() string    { return "titled" }
func (s titledSim) Size() core.Size { return core.Size{W: 1, H: 1} }
func (s titledSim) Reset(int64)     {}
func (s titledSim) Step()           {}
func (s titledSim) Cells() []int32  { return []int32{1} }
func (s titledSim) Levels() int     { return 1 }
func (s titledSim) Parameters() core.ParameterSnapshot {
	return core.ParameterSnapshot{Groups: []core.ParameterGroup{
		{Name: ProgressGroup, Params: []core.Parameter{core.Uint64Param("mcs", "MCS", s.mcs)}},
	}}
}

type bareSim struct{}

func (bareSim) Name() string    { return "bare" }
func (bareSim) Size() core.Size { return core.Size{W: 1, H: 1} }
func (bareSim) Reset(int64)     {}
func (bareSim) Step()           {}
func (bareSim) Cells() []int32  { return []int32{1} }
func (bareSim) Levels() int     { return 1 }

func TestTitle(t *testing.T) {
	assert.Equal(t, "Microstructure Modeling & Simulation | MCS 12", Title(titledSim{mcs: 12}))
	assert.Equal(t, "Microstructure Modeling & Simulation", Title(bareSim{}))
}
