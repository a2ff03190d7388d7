// Package runstore persists evaluation runs and their gate reports in
// SQLite, and tracks the best-scoring run across a search session.
package runstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS eval_runs (
	run_id       TEXT PRIMARY KEY,
	dataset      TEXT NOT NULL,
	created_at   TEXT NOT NULL,
	accuracy     REAL NOT NULL,
	macro_f1     REAL NOT NULL,
	passed       INTEGER NOT NULL,
	matrix_json  TEXT NOT NULL,
	config_json  TEXT,
	notes        TEXT
);

CREATE TABLE IF NOT EXISTS report_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	metric       TEXT NOT NULL,
	value        REAL NOT NULL,
	pass         INTEGER NOT NULL,
	created_at   TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES eval_runs(run_id)
);

CREATE TABLE IF NOT EXISTS best_run (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	run_id       TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES eval_runs(run_id)
);
`

// #endregion schema

// #region store-struct
// Store manages evaluation runs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection. Used by tests that need
// direct schema access.
func NewStoreWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other tooling.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region save-run
// SaveRun inserts a run with its report rows and advances the best-run
// pointer if this run's accuracy beats the stored best, all in one
// transaction. A missing RunID or CreatedAt is filled in.
func (s *Store) SaveRun(rec RunRecord, reports []ReportEntry) (RunRecord, error) {
	if rec.RunID == "" {
		rec.RunID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return RunRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO eval_runs (run_id, dataset, created_at, accuracy, macro_f1, passed, matrix_json, config_json, notes)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Dataset, rec.CreatedAt.Format(time.RFC3339Nano),
		rec.Accuracy, rec.MacroF1, boolToInt(rec.Passed), rec.MatrixJSON,
		nullIfEmpty(rec.ConfigJSON), nullIfEmpty(rec.Notes),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}

	for _, r := range reports {
		_, err = tx.Exec(
			`INSERT INTO report_log (run_id, metric, value, pass, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			rec.RunID, r.Metric, r.Value, boolToInt(r.Pass), rec.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return RunRecord{}, fmt.Errorf("insert report %s: %w", r.Metric, err)
		}
	}

	var bestAccuracy float64
	err = tx.QueryRow(
		`SELECT r.accuracy FROM best_run b JOIN eval_runs r ON r.run_id = b.run_id WHERE b.id = 1`,
	).Scan(&bestAccuracy)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		bestAccuracy = -1 // no best yet, any run wins
	case err != nil:
		return RunRecord{}, fmt.Errorf("read best: %w", err)
	}

	if rec.Accuracy > bestAccuracy {
		_, err = tx.Exec(
			`INSERT INTO best_run (id, run_id) VALUES (1, ?)
			 ON CONFLICT(id) DO UPDATE SET run_id = excluded.run_id`,
			rec.RunID,
		)
		if err != nil {
			return RunRecord{}, fmt.Errorf("set best: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return RunRecord{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// #endregion save-run

// #region get-run
// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (RunRecord, error) {
	return s.scanRun(s.db.QueryRow(
		`SELECT run_id, dataset, created_at, accuracy, macro_f1, passed, matrix_json, config_json, notes
		 FROM eval_runs WHERE run_id = ?`, id,
	))
}

// GetBest retrieves the run the best-run pointer names.
func (s *Store) GetBest() (RunRecord, error) {
	var runID string
	err := s.db.QueryRow(`SELECT run_id FROM best_run WHERE id = 1`).Scan(&runID)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get best: %w", err)
	}
	return s.GetRun(runID)
}

func (s *Store) scanRun(row *sql.Row) (RunRecord, error) {
	var rec RunRecord
	var createdStr string
	var passed int
	var configJSON, notes sql.NullString

	err := row.Scan(&rec.RunID, &rec.Dataset, &createdStr, &rec.Accuracy,
		&rec.MacroF1, &passed, &rec.MatrixJSON, &configJSON, &notes)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run: %w", err)
	}

	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	rec.Passed = passed != 0
	if configJSON.Valid {
		rec.ConfigJSON = configJSON.String
	}
	if notes.Valid {
		rec.Notes = notes.String
	}
	return rec, nil
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, dataset, created_at, accuracy, macro_f1, passed, matrix_json, config_json, notes
		 FROM eval_runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var createdStr string
		var passed int
		var configJSON, notes sql.NullString

		if err := rows.Scan(&rec.RunID, &rec.Dataset, &createdStr, &rec.Accuracy,
			&rec.MacroF1, &passed, &rec.MatrixJSON, &configJSON, &notes); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		rec.Passed = passed != 0
		if configJSON.Valid {
			rec.ConfigJSON = configJSON.String
		}
		if notes.Valid {
			rec.Notes = notes.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-runs

// #region reports
// Reports returns the report_log rows for a run in insertion order.
func (s *Store) Reports(runID string) ([]ReportRow, error) {
	rows, err := s.db.Query(
		`SELECT run_id, metric, value, pass, created_at FROM report_log
		 WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []ReportRow
	for rows.Next() {
		var r ReportRow
		var pass int
		var createdStr string
		if err := rows.Scan(&r.RunID, &r.Metric, &r.Value, &pass, &createdStr); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Pass = pass != 0
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// #endregion reports

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
