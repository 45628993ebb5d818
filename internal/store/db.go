package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"mmas/internal/potts"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoCheckpoint indicates a run has no recorded checkpoint.
var ErrNoCheckpoint = errors.New("store: no checkpoint")

// DB is the checkpoint log of headless runs.
type DB struct {
	*sql.DB
	logger *log.Logger
}

// Run describes one simulation run.
type Run struct {
	ID           string
	CreatedAt    string
	Cols         int
	Rows         int
	Orientations int
	SeedMethod   string
	Params       potts.Params
	Note         string
}

// Checkpoint is a point on a run's trajectory. Snapshot is only populated by
// LatestCheckpoint.
type Checkpoint struct {
	RunID         string
	MCS           uint64
	Attempts      uint64
	Accepted      uint64
	Grains        int
	MeanArea      float64
	BoundaryPairs int
	Snapshot      *Snapshot
}

// connPragmas are applied by the driver to every pooled connection.
const connPragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

// OpenDB opens the database at path and applies connection pragmas without
// touching the schema.
func OpenDB(path string) (*DB, error) {
	dsn := path + "?" + connPragmas
	if strings.Contains(path, "?") {
		dsn = path + "&" + connPragmas
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{DB: db}, nil
}

// Open opens the database and migrates it to the latest schema.
func Open(path string, logger *log.Logger) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	db.logger = logger
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("store: %s: %w", pragma, err)
		}
	}
	return nil
}

// MigrateUp runs all pending migrations. Being at the latest version already
// is not an error.
func (db *DB) MigrateUp() error {
	m, err := db.newMigrate()
	if err != nil {
		return err
	}
	// Closing m would close the shared connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the applied schema version and dirty flag. A fresh
// database reports version 0.
func (db *DB) MigrateVersion() (uint, bool, error) {
	m, err := db.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (db *DB) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("store: open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("store: create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("store: create migrate instance: %w", err)
	}
	if db.logger != nil {
		m.Log = &migrateLogger{logger: db.logger}
	}
	return m, nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct {
	logger *log.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.logger.Debugf("migrate: "+strings.TrimSpace(format), v...)
}

func (l *migrateLogger) Verbose() bool {
	return l.logger.GetLevel() <= log.DebugLevel
}

// CreateRun registers a new run described by its initial snapshot and
// returns the generated run id.
func (db *DB) CreateRun(s *Snapshot, note string) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(`
		INSERT INTO runs (run_id, lattice_cols, lattice_rows, orientations, seed_method,
			temperature, grain_boundary_energy, boltz_const, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, s.Cols, s.Rows, s.Orientations, s.SeedMethod,
		s.Temperature, s.GrainBoundaryEnergy, s.BoltzConst, note)
	if err != nil {
		return "", fmt.Errorf("store: create run: %w", err)
	}
	return id, nil
}

// Runs lists all runs, newest first.
func (db *DB) Runs() ([]Run, error) {
	rows, err := db.Query(`
		SELECT run_id, created_at, lattice_cols, lattice_rows, orientations, seed_method,
			temperature, grain_boundary_energy, boltz_const, note
		FROM runs
		ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Cols, &r.Rows, &r.Orientations, &r.SeedMethod,
			&r.Params.Temperature, &r.Params.GrainBoundaryEnergy, &r.Params.BoltzConst, &r.Note); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RecordCheckpoint stores a checkpoint and its snapshot. Recording the same
// MCS twice replaces the earlier entry.
func (db *DB) RecordCheckpoint(c Checkpoint) error {
	if c.Snapshot == nil {
		return fmt.Errorf("%w: checkpoint without snapshot", ErrInvalid)
	}
	blob, err := Marshal(c.Snapshot)
	if err != nil {
		return fmt.Errorf("store: encode checkpoint: %w", err)
	}
	_, err = db.Exec(`
		INSERT OR REPLACE INTO checkpoints
			(run_id, mcs, attempts, accepted, grains, mean_area, boundary_pairs, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RunID, int64(c.MCS), int64(c.Attempts), int64(c.Accepted),
		c.Grains, c.MeanArea, c.BoundaryPairs, blob)
	if err != nil {
		return fmt.Errorf("store: record checkpoint: %w", err)
	}
	return nil
}

// Checkpoints returns the trajectory of a run ordered by MCS, without
// snapshots.
func (db *DB) Checkpoints(runID string) ([]Checkpoint, error) {
	rows, err := db.Query(`
		SELECT mcs, attempts, accepted, grains, mean_area, boundary_pairs
		FROM checkpoints
		WHERE run_id = ?
		ORDER BY mcs`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []Checkpoint
	for rows.Next() {
		var mcs, attempts, accepted int64
		c := Checkpoint{RunID: runID}
		if err := rows.Scan(&mcs, &attempts, &accepted, &c.Grains, &c.MeanArea, &c.BoundaryPairs); err != nil {
			return nil, fmt.Errorf("store: scan checkpoint: %w", err)
		}
		c.MCS, c.Attempts, c.Accepted = uint64(mcs), uint64(attempts), uint64(accepted)
		out = append(out, c)
	}
	return out, rows.Err()
}

// LatestCheckpoint returns the highest-MCS checkpoint of a run with its
// snapshot decoded, ready to resume.
func (db *DB) LatestCheckpoint(runID string) (*Checkpoint, error) {
	var (
		mcs, attempts, accepted int64
		blob                    []byte
	)
	c := &Checkpoint{RunID: runID}
	err := db.QueryRow(`
		SELECT mcs, attempts, accepted, grains, mean_area, boundary_pairs, snapshot
		FROM checkpoints
		WHERE run_id = ?
		ORDER BY mcs DESC
		LIMIT 1`, runID).Scan(&mcs, &attempts, &accepted, &c.Grains, &c.MeanArea, &c.BoundaryPairs, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for run %s", ErrNoCheckpoint, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest checkpoint: %w", err)
	}
	c.MCS, c.Attempts, c.Accepted = uint64(mcs), uint64(attempts), uint64(accepted)
	snap, err := Unmarshal(blob)
	if err != nil {
		return nil, fmt.Errorf("store: checkpoint %s@%d: %w", runID, c.MCS, err)
	}
	c.Snapshot = snap
	return c, nil
}
