// Package resultsdb stores finished simulation runs in SQLite: one row per
// run, one row per (result, tick) sample, and the reduced summary.
package resultsdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"agentsim.dev/internal/sim/kernel"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			label TEXT NOT NULL,
			n_agents INTEGER NOT NULL,
			n_steps INTEGER NOT NULL,
			dt REAL NOT NULL,
			seed INTEGER NOT NULL,
			pop_scale REAL NOT NULL,
			digest TEXT NOT NULL,
			recorded_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS series (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			tick INTEGER NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, name, tick)
		);`,
		`CREATE TABLE IF NOT EXISTS summary (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			key TEXT NOT NULL,
			value REAL NOT NULL,
			PRIMARY KEY (run_id, key)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_series_name ON series(name, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun persists a finalized simulation and returns the run id. Fails if
// the sim has not been finalized.
func (s *Store) SaveRun(sim *kernel.Sim) (int64, error) {
	if !sim.ResultsReady() {
		return 0, fmt.Errorf("resultsdb: sim has not been finalized")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(
		`INSERT INTO runs (label, n_agents, n_steps, dt, seed, pop_scale, digest, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sim.Pars.Label, sim.Pars.NAgents, sim.Pars.NPts, sim.Pars.DT,
		sim.Pars.Seed, sim.Pars.PopScale, sim.Digest(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	insSeries, err := tx.Prepare(`INSERT INTO series (run_id, name, tick, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer insSeries.Close()
	for _, r := range sim.Results.All() {
		for ti, v := range r.Values {
			if _, err := insSeries.Exec(runID, r.Name, ti, v); err != nil {
				return 0, err
			}
		}
	}

	keys := make([]string, 0, len(sim.Summary))
	for k := range sim.Summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := tx.Exec(`INSERT INTO summary (run_id, key, value) VALUES (?, ?, ?)`, runID, k, sim.Summary[k]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// RunInfo is one row of the runs table.
type RunInfo struct {
	ID         int64
	Label      string
	NAgents    int
	NSteps     int
	Seed       int64
	Digest     string
	RecordedAt string
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns() ([]RunInfo, error) {
	rows, err := s.db.Query(
		`SELECT id, label, n_agents, n_steps, seed, digest, recorded_at FROM runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.ID, &r.Label, &r.NAgents, &r.NSteps, &r.Seed, &r.Digest, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Series returns one result's time series for a run.
func (s *Store) Series(runID int64, name string) ([]float64, error) {
	rows, err := s.db.Query(
		`SELECT value FROM series WHERE run_id = ? AND name = ? ORDER BY tick`, runID, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Summary returns the reduced summary of a run.
func (s *Store) Summary(runID int64) (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT key, value FROM summary WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]float64{}
	for rows.Next() {
		var k string
		var v float64
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }
