package potts

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmas/internal/core"
	"mmas/internal/lattice"
	"mmas/internal/seeding"
	"mmas/internal/tessellate"
)

// grid builds a lattice from rows of labels, rows[y][x].
func grid(t *testing.T, rows [][]int32) *lattice.Lattice {
	t.Helper()
	l, err := lattice.New(len(rows[0]), len(rows))
	require.NoError(t, err)
	for y, row := range rows {
		for x, v := range row {
			l.Set(x, y, v)
		}
	}
	return l
}

func newEngine(t *testing.T, l *lattice.Lattice, p Params, seed int64) *Engine {
	t.Helper()
	e, err := New(l, p, core.NewRNG(seed))
	require.NoError(t, err)
	return e
}

func tessellated(t *testing.T, cols, rows, seeds int, seed int64) *lattice.Lattice {
	t.Helper()
	l, err := lattice.New(cols, rows)
	require.NoError(t, err)
	_, err = seeding.Place(l, seeds, seeding.Halton, core.NewRNG(seed))
	require.NoError(t, err)
	require.NoError(t, tessellate.Fill(l, tessellate.Scan))
	return l
}

func TestDifferentNeighborsInterior(t *testing.T) {
	e := newEngine(t, grid(t, [][]int32{
		{2, 3, 2},
		{1, 1, 1},
		{1, 1, 1},
	}), DefaultParams(), 1)

	unlike, labels := e.DifferentNeighbors(1, 1)
	assert.Equal(t, 3, unlike)
	assert.Equal(t, []int32{2, 3}, labels)
	assert.Equal(t, 6, e.DifferentNeighborsWith(1, 1, 2))
	assert.Equal(t, 8, e.DifferentNeighborsWith(1, 1, 9))
}

func TestDifferentNeighborsClipsAtEdges(t *testing.T) {
	e := newEngine(t, grid(t, [][]int32{
		{2, 1, 1},
		{1, 1, 1},
		{1, 1, 1},
	}), DefaultParams(), 1)

	unlike, labels := e.DifferentNeighbors(0, 0)
	assert.Equal(t, 3, unlike)
	assert.Equal(t, []int32{1}, labels)
	assert.Equal(t, -5.0, e.FreeEnergy(0, 0))
	assert.Equal(t, -8.0, e.FreeEnergyWith(0, 0, 1))

	unlike, labels = e.DifferentNeighbors(2, 2)
	assert.Zero(t, unlike)
	assert.Empty(t, labels)
}

func TestFreeEnergyScalesWithBoundaryEnergy(t *testing.T) {
	l := grid(t, [][]int32{
		{1, 1, 1},
		{1, 2, 1},
		{1, 1, 1},
	})
	e := newEngine(t, l, Params{GrainBoundaryEnergy: 0.5, BoltzConst: 1}, 1)
	assert.Equal(t, 0.0, e.FreeEnergy(1, 1))
	assert.Equal(t, -4.0, e.FreeEnergyWith(1, 1, 1))
	assert.Equal(t, 4.0, e.TotalEnergy())
}

func TestReorientUniformNeighbourhoodIsNoOp(t *testing.T) {
	l := grid(t, [][]int32{
		{4, 4, 4},
		{4, 4, 4},
		{4, 4, 4},
	})
	e := newEngine(t, l, Params{Temperature: 5, GrainBoundaryEnergy: 1, BoltzConst: 1}, 3)
	for i := 0; i < 100; i++ {
		require.Equal(t, NoOp, e.Reorient(1, 1))
	}
	assert.Zero(t, e.Attempts())
	assert.Zero(t, e.Accepted())
	assert.Equal(t, int32(4), l.At(1, 1))
}

func TestReorientAcceptsFavourableMove(t *testing.T) {
	l := grid(t, [][]int32{
		{1, 1, 1},
		{1, 2, 1},
		{1, 1, 1},
	})
	e := newEngine(t, l, DefaultParams(), 1)
	require.Equal(t, Accepted, e.Reorient(1, 1))
	assert.Equal(t, int32(1), l.At(1, 1))
	assert.Equal(t, uint64(1), e.Attempts())
	assert.Equal(t, uint64(1), e.Accepted())
}

func TestReorientZeroTemperatureRejectsUphill(t *testing.T) {
	l := grid(t, [][]int32{
		{1, 1, 2},
		{1, 1, 2},
		{1, 1, 2},
	})
	e := newEngine(t, l, DefaultParams(), 1)
	for i := 0; i < 50; i++ {
		require.Equal(t, Rejected, e.Reorient(1, 1))
	}
	assert.Equal(t, int32(1), l.At(1, 1))
	assert.Equal(t, uint64(50), e.Attempts())
	assert.Zero(t, e.Accepted())
}

func TestAcceptZeroTemperature(t *testing.T) {
	e := newEngine(t, grid(t, [][]int32{{1}}), DefaultParams(), 1)
	assert.True(t, e.Accept(0))
	assert.True(t, e.Accept(-3))
	assert.False(t, e.Accept(1e-9))
	assert.Equal(t, 0.0, e.AcceptProbability(2))
	assert.Equal(t, 1.0, e.AcceptProbability(0))
}

func TestAcceptanceRateMatchesBoltzmannFactor(t *testing.T) {
	p := Params{Temperature: 1, GrainBoundaryEnergy: 1, BoltzConst: 1}
	e := newEngine(t, grid(t, [][]int32{
		{1, 1, 2},
		{1, 1, 2},
		{1, 1, 2},
	}), p, 11)

	const trials = 20000
	want := math.Exp(-2)
	require.InDelta(t, want, e.AcceptProbability(2), 1e-12)

	accepted := 0
	for i := 0; i < trials; i++ {
		if e.Reorient(1, 1) == Accepted {
			accepted++
			e.Lattice().Set(1, 1, 1)
		}
	}
	rate := float64(accepted) / trials
	assert.InDelta(t, want, rate, 0.015)
	assert.Equal(t, uint64(trials), e.Attempts())
}

func TestHigherBoltzConstRaisesAcceptance(t *testing.T) {
	low := newEngine(t, grid(t, [][]int32{{1}}), Params{Temperature: 1, GrainBoundaryEnergy: 1, BoltzConst: 1}, 1)
	high := newEngine(t, grid(t, [][]int32{{1}}), Params{Temperature: 1, GrainBoundaryEnergy: 1, BoltzConst: 4}, 1)
	assert.Greater(t, high.AcceptProbability(2), low.AcceptProbability(2))
}

func TestTickZeroTemperatureNeverRaisesEnergy(t *testing.T) {
	l := tessellated(t, 40, 40, 30, 5)
	e := newEngine(t, l, DefaultParams(), 9)

	prev := BoundaryPairs(l)
	for i := 0; i < 40; i++ {
		e.Tick(400)
		cur := BoundaryPairs(l)
		require.LessOrEqual(t, cur, prev, "boundary grew at tick %d", i)
		prev = cur
	}
	assert.LessOrEqual(t, e.Accepted(), e.Attempts())
	assert.Zero(t, l.Unassigned())
}

func TestTickDeterministic(t *testing.T) {
	p := Params{Temperature: 0.8, GrainBoundaryEnergy: 1, BoltzConst: 1}
	a := newEngine(t, tessellated(t, 30, 20, 15, 2), p, 42)
	b := newEngine(t, tessellated(t, 30, 20, 15, 2), p, 42)

	a.Tick(5000)
	b.Tick(5000)
	require.True(t, slices.Equal(a.Lattice().Cells(), b.Lattice().Cells()))
	require.Equal(t, a.Attempts(), b.Attempts())
	require.Equal(t, a.Accepted(), b.Accepted())
}

func TestTickLabelsStayInRange(t *testing.T) {
	l := tessellated(t, 25, 25, 12, 8)
	n := int32(len(l.Seeds()))
	e := newEngine(t, l, Params{Temperature: 3, GrainBoundaryEnergy: 1, BoltzConst: 1}, 4)
	e.Tick(10000)
	for _, c := range l.Cells() {
		require.True(t, c >= 1 && c <= n, "label %d out of range", c)
	}
}

func TestReorientExhaustiveKeepsLastNonIncreasing(t *testing.T) {
	l := grid(t, [][]int32{
		{2, 2, 2},
		{1, 1, 1},
		{3, 3, 3},
	})
	// Temperature is ignored by this rule.
	e := newEngine(t, l, Params{Temperature: 100, GrainBoundaryEnergy: 1, BoltzConst: 1}, 1)
	require.Equal(t, Accepted, e.ReorientExhaustive(1, 1))
	assert.Equal(t, int32(3), l.At(1, 1))
	assert.Equal(t, uint64(1), e.Attempts())
	assert.Equal(t, uint64(1), e.Accepted())
}

func TestReorientExhaustiveRejectsUphill(t *testing.T) {
	l := grid(t, [][]int32{
		{1, 1, 2},
		{1, 1, 2},
		{1, 1, 2},
	})
	e := newEngine(t, l, Params{Temperature: 100, GrainBoundaryEnergy: 1, BoltzConst: 1}, 1)
	require.Equal(t, Rejected, e.ReorientExhaustive(1, 1))
	assert.Equal(t, int32(1), l.At(1, 1))
}

func TestSetVariantExhaustiveTick(t *testing.T) {
	l := tessellated(t, 20, 20, 10, 3)
	e := newEngine(t, l, DefaultParams(), 3)
	require.NoError(t, e.SetVariant(Exhaustive))
	require.ErrorIs(t, e.SetVariant("glauber"), ErrUnknownVariant)
	require.Equal(t, Exhaustive, e.Variant())

	prev := BoundaryPairs(l)
	e.Tick(2000)
	assert.LessOrEqual(t, BoundaryPairs(l), prev)
}

func TestMCS(t *testing.T) {
	l, err := lattice.New(10, 10)
	require.NoError(t, err)
	e := newEngine(t, l, DefaultParams(), 1)
	e.SetCounters(250, 10)
	assert.Equal(t, uint64(2), e.MCS())
	assert.Equal(t, uint64(10), e.Accepted())
}

func TestBoundaryPairs(t *testing.T) {
	l := grid(t, [][]int32{
		{1, 1},
		{1, 2},
	})
	// (1,1) touches all three other cells.
	assert.Equal(t, 3, BoundaryPairs(l))

	l = grid(t, [][]int32{
		{1, 1, 2},
		{1, 1, 2},
	})
	// Vertical interface of two rows: 2 horizontal plus 2 diagonal pairs.
	assert.Equal(t, 4, BoundaryPairs(l))
}

func TestSweepVisitsEverySiteOnce(t *testing.T) {
	l := grid(t, [][]int32{
		{1, 1, 2, 2, 2},
		{1, 1, 2, 2, 2},
		{1, 1, 2, 2, 2},
		{1, 1, 2, 2, 2},
	})
	e := newEngine(t, l, Params{Temperature: 0, GrainBoundaryEnergy: 1, BoltzConst: 1}, 7)
	require.NoError(t, e.Sweep(context.Background(), 2))
	// Sites deep inside a grain are no-ops and do not count.
	assert.LessOrEqual(t, e.Attempts(), uint64(l.Len()))
	assert.Positive(t, e.Attempts())
}

func TestSweepDeterministicForWorkerCount(t *testing.T) {
	p := Params{Temperature: 0.5, GrainBoundaryEnergy: 1, BoltzConst: 1}
	for _, workers := range []int{1, 3, 8} {
		a := newEngine(t, tessellated(t, 33, 21, 20, 6), p, 13)
		b := newEngine(t, tessellated(t, 33, 21, 20, 6), p, 13)
		for i := 0; i < 3; i++ {
			require.NoError(t, a.Sweep(context.Background(), workers))
			require.NoError(t, b.Sweep(context.Background(), workers))
		}
		require.True(t, slices.Equal(a.Lattice().Cells(), b.Lattice().Cells()), "workers=%d", workers)
		require.Equal(t, a.Attempts(), b.Attempts(), "workers=%d", workers)
	}
}

func TestSweepZeroTemperatureNeverRaisesEnergy(t *testing.T) {
	l := tessellated(t, 40, 30, 25, 12)
	e := newEngine(t, l, DefaultParams(), 12)
	prev := BoundaryPairs(l)
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Sweep(context.Background(), 4))
		cur := BoundaryPairs(l)
		require.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestSweepHonoursCancellation(t *testing.T) {
	l := tessellated(t, 20, 20, 10, 1)
	e := newEngine(t, l, DefaultParams(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, e.Sweep(ctx, 2), context.Canceled)
	assert.Zero(t, e.Attempts())
}

func TestParamsValidate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
	for _, p := range []Params{
		{Temperature: -1, GrainBoundaryEnergy: 1, BoltzConst: 1},
		{Temperature: math.NaN(), GrainBoundaryEnergy: 1, BoltzConst: 1},
		{Temperature: 0, GrainBoundaryEnergy: 0, BoltzConst: 1},
		{Temperature: 0, GrainBoundaryEnergy: 1, BoltzConst: 0},
		{Temperature: math.Inf(1), GrainBoundaryEnergy: 1, BoltzConst: 1},
	} {
		require.ErrorIs(t, p.Validate(), ErrParams, "%+v", p)
	}
	_, err := New(grid(t, [][]int32{{1}}), Params{}, core.NewRNG(1))
	require.ErrorIs(t, err, ErrParams)
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" Metropolis ")
	require.NoError(t, err)
	assert.Equal(t, Metropolis, v)
	_, err = ParseVariant("heatbath")
	require.ErrorIs(t, err, ErrUnknownVariant)
}
