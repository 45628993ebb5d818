package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmas/internal/core"
	"mmas/internal/lattice"
	"mmas/internal/potts"
	"mmas/internal/seeding"
	"mmas/internal/tessellate"
)

func sampleSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	l, err := lattice.New(12, 9)
	require.NoError(t, err)
	_, err = seeding.Place(l, 7, seeding.Latin, core.NewRNG(4))
	require.NoError(t, err)
	require.NoError(t, tessellate.Fill(l, tessellate.Scan))
	p := potts.Params{Temperature: 0.35, GrainBoundaryEnergy: 1.5, BoltzConst: 2}
	return Capture(l, 5, seeding.Latin, 7, p, 4321, 99)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	snap := sampleSnapshot(t)
	snap.GrainColors = make([]Color, snap.Orientations)
	for i := range snap.GrainColors {
		snap.GrainColors[i] = Color{uint8(i), uint8(2 * i), 200}
	}

	dir := t.TempDir()
	path, err := Save(dir, snap)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^mmas_[0-9a-f]{32}\.json$`), filepath.Base(path))

	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	want, err := snap.Lattice()
	require.NoError(t, err)
	gotLat, err := got.Lattice()
	require.NoError(t, err)
	require.True(t, want.Equal(gotLat))
	assert.Equal(t, snap.Params(), got.Params())
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := Save(dir, sampleSnapshot(t))
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "mmas_"))
}

func TestFileNamesAreUnique(t *testing.T) {
	assert.NotEqual(t, FileName(), FileName())
}

func TestDecodeRejectsMissingFields(t *testing.T) {
	data, err := Marshal(sampleSnapshot(t))
	require.NoError(t, err)

	for _, key := range []string{"grid", "seeds", "temperature", "seed_method", "cols"} {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(data, &doc))
		delete(doc, key)
		_, err := Unmarshal(jsonMarshal(t, doc))
		require.ErrorIs(t, err, ErrMissingField, key)
		assert.Contains(t, err.Error(), key)
	}
}

func TestDecodeRejectsMalformedSeedPair(t *testing.T) {
	data, err := Marshal(sampleSnapshot(t))
	require.NoError(t, err)

	cases := map[string]func(doc map[string]any){
		"short seed":      func(doc map[string]any) { doc["seeds"].([]any)[0] = []any{1} },
		"long seed":       func(doc map[string]any) { doc["seeds"].([]any)[0] = []any{1, 2, 99} },
		"fractional seed": func(doc map[string]any) { doc["seeds"].([]any)[0] = []any{1.5, 2} },
		"short color":     func(doc map[string]any) { doc["grain_colors"].([]any)[0] = []any{10, 20} },
		"long color":      func(doc map[string]any) { doc["grain_colors"].([]any)[0] = []any{10, 20, 30, 40} },
		"color range":     func(doc map[string]any) { doc["grain_colors"].([]any)[0] = []any{10, 256, 30} },
		"negative color":  func(doc map[string]any) { doc["grain_colors"].([]any)[0] = []any{-1, 20, 30} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			var doc map[string]any
			require.NoError(t, json.Unmarshal(data, &doc))
			colors := make([]any, len(doc["seeds"].([]any)))
			for i := range colors {
				colors[i] = []any{1, 2, 3}
			}
			doc["grain_colors"] = colors
			_, err := Unmarshal(jsonMarshal(t, doc))
			require.NoError(t, err, "unmodified document must load")

			mutate(doc)
			_, err = Unmarshal(jsonMarshal(t, doc))
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

// A document as written by the Python tool: float seed coordinates, no
// counters, and the requested orientation count for a Sobol run.
const legacySobol = `{"cols":3,"rows":2,"grid_cell_size":5,"orientations":3,"seed_method":"sobol",` +
	`"grid":[[1,1],[2,3],[4,4]],"seeds":[[0.0,0.0],[1.0,0.0],[1.0,1.0],[2.0,1.0]],` +
	`"grain_colors":[[12,34,56],[0,0,0],[255,255,255],[7,8,9]],` +
	`"temperature":0,"grain_boundary_energy":1.0,"boltz_const":1.0}`

func TestDecodeLegacyDocument(t *testing.T) {
	snap, err := Unmarshal([]byte(legacySobol))
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Orientations)
	assert.Equal(t, [][2]int{{0, 0}, {1, 0}, {1, 1}, {2, 1}}, snap.Seeds)
	assert.Equal(t, Color{12, 34, 56}, snap.GrainColors[0])
	assert.Zero(t, snap.Attempts)

	l, err := snap.Lattice()
	require.NoError(t, err)
	assert.Equal(t, int32(3), l.At(1, 1))
	assert.Equal(t, int32(4), l.At(2, 0))

	// The requested count must round up to exactly the stored seeds.
	for _, doc := range []string{
		strings.Replace(legacySobol, `"orientations":3`, `"orientations":5`, 1),
		strings.Replace(legacySobol, `"seed_method":"sobol"`, `"seed_method":"halton"`, 1),
	} {
		_, err := Unmarshal([]byte(doc))
		require.ErrorIs(t, err, ErrInvalid)
	}
}

func TestDecodeOptionalCounters(t *testing.T) {
	data, err := Marshal(sampleSnapshot(t))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	delete(doc, "attempts")
	delete(doc, "accepted")
	got, err := Unmarshal(jsonMarshal(t, doc))
	require.NoError(t, err)
	assert.Zero(t, got.Attempts)
	assert.Zero(t, got.Accepted)
}

func TestDecodeRejectsUnknownField(t *testing.T) {
	data, err := Marshal(sampleSnapshot(t))
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["colour_mode"] = "rainbow"
	_, err = Unmarshal(jsonMarshal(t, doc))
	require.Error(t, err)
}

func TestValidateRejectsInconsistentSnapshots(t *testing.T) {
	cases := map[string]func(s *Snapshot){
		"cols mismatch":        func(s *Snapshot) { s.Cols++ },
		"ragged column":        func(s *Snapshot) { s.Grid[2] = s.Grid[2][:3] },
		"label out of range":   func(s *Snapshot) { s.Grid[0][0] = int32(s.Orientations + 1) },
		"unassigned cell":      func(s *Snapshot) { s.Grid[1][1] = 0 },
		"seed out of bounds":   func(s *Snapshot) { s.Seeds[0] = [2]int{s.Cols, 0} },
		"orientation mismatch": func(s *Snapshot) { s.Orientations = 3 },
		"unknown method":       func(s *Snapshot) { s.SeedMethod = "poisson" },
		"negative temperature": func(s *Snapshot) { s.Temperature = -1 },
		"zero cell size":       func(s *Snapshot) { s.CellSize = 0 },
		"palette size":         func(s *Snapshot) { s.GrainColors = []Color{{1, 2, 3}} },
		"accepted > attempts":  func(s *Snapshot) { s.Accepted = s.Attempts + 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := sampleSnapshot(t)
			mutate(s)
			err := s.Validate()
			require.ErrorIs(t, err, ErrInvalid)

			data, mErr := Marshal(s)
			require.NoError(t, mErr)
			_, err = Unmarshal(data)
			require.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestSaveRefusesInvalidSnapshot(t *testing.T) {
	s := sampleSnapshot(t)
	s.Seeds = s.Seeds[:1]
	_, err := Save(t.TempDir(), s)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "runs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)
	require.NoError(t, db.MigrateUp())
}

func TestCheckpointLifecycle(t *testing.T) {
	db := openTestDB(t)
	snap := sampleSnapshot(t)

	runID, err := db.CreateRun(snap, "lifecycle")
	require.NoError(t, err)

	runs, err := db.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, snap.Cols, runs[0].Cols)
	assert.Equal(t, snap.Params(), runs[0].Params)
	assert.Equal(t, "lifecycle", runs[0].Note)

	_, err = db.LatestCheckpoint(runID)
	require.ErrorIs(t, err, ErrNoCheckpoint)

	later := *snap
	later.Attempts, later.Accepted = 2*snap.Attempts, snap.Accepted
	require.NoError(t, db.RecordCheckpoint(Checkpoint{RunID: runID, MCS: 40, Attempts: later.Attempts, Accepted: later.Accepted, Grains: 5, MeanArea: 21.6, BoundaryPairs: 70, Snapshot: &later}))
	require.NoError(t, db.RecordCheckpoint(Checkpoint{RunID: runID, MCS: 20, Attempts: snap.Attempts, Accepted: snap.Accepted, Grains: 7, MeanArea: 15.4, BoundaryPairs: 90, Snapshot: snap}))

	cps, err := db.Checkpoints(runID)
	require.NoError(t, err)
	require.Len(t, cps, 2)
	assert.Equal(t, uint64(20), cps[0].MCS)
	assert.Equal(t, uint64(40), cps[1].MCS)
	assert.Nil(t, cps[0].Snapshot)

	latest, err := db.LatestCheckpoint(runID)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), latest.MCS)
	assert.Equal(t, 5, latest.Grains)
	if diff := cmp.Diff(&later, latest.Snapshot); diff != "" {
		t.Fatalf("checkpoint snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordCheckpointRequiresRun(t *testing.T) {
	db := openTestDB(t)
	err := db.RecordCheckpoint(Checkpoint{RunID: "missing", MCS: 1, Snapshot: sampleSnapshot(t)})
	require.Error(t, err)
	err = db.RecordCheckpoint(Checkpoint{RunID: "missing", MCS: 1})
	require.ErrorIs(t, err, ErrInvalid)
}

func jsonMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
