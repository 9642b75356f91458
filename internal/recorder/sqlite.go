package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/seenimoa/equitylens/pkg/models"
)

// SQLiteRecorder persists scan runs to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the dashboard can read while a scan writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_runs (
			id          TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			row_count   INTEGER NOT NULL,
			failed      INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON scan_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS scan_rows (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id            TEXT NOT NULL REFERENCES scan_runs(id),
			position          INTEGER NOT NULL,
			ticker            TEXT NOT NULL,
			name              TEXT,
			market_cap        REAL,
			daily_cross_date  TEXT,
			status            TEXT,
			hourly_cross_date TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rows_run ON scan_rows(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rows_ticker ON scan_rows(ticker)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordScan stores a run and its rows in one transaction.
func (r *SQLiteRecorder) RecordScan(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(`INSERT INTO scan_runs (id, started_at, finished_at, row_count, failed)
		VALUES (?,?,?,?,?)`,
		run.ID, run.Started.Unix(), run.Finished.Unix(), len(run.Rows), run.Failed,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO scan_rows
		(run_id, position, ticker, name, market_cap, daily_cross_date, status, hourly_cross_date)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range run.Rows {
		var mc sql.NullFloat64
		if row.MarketCap != nil {
			mc = sql.NullFloat64{Float64: *row.MarketCap, Valid: true}
		}
		if _, err := stmt.Exec(run.ID, i, row.Ticker, row.Name, mc,
			row.DailyCrossDate, row.Status, row.HourlyCrossDate); err != nil {
			return fmt.Errorf("insert row %s: %w", row.Ticker, err)
		}
	}
	return tx.Commit()
}

// LastRuns returns the most recent runs, newest first, with their rows.
func (r *SQLiteRecorder) LastRuns(limit int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, started_at, finished_at, failed
		FROM scan_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished int64
		if err := rows.Scan(&run.ID, &started, &finished, &run.Failed); err != nil {
			rows.Close()
			return nil, err
		}
		run.Started = time.Unix(started, 0).UTC()
		run.Finished = time.Unix(finished, 0).UTC()
		runs = append(runs, run)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if runs[i].Rows, err = r.rowsFor(runs[i].ID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

func (r *SQLiteRecorder) rowsFor(runID string) ([]models.ScanRow, error) {
	rows, err := r.db.Query(`SELECT ticker, name, market_cap, daily_cross_date, status, hourly_cross_date
		FROM scan_rows WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ScanRow
	for rows.Next() {
		var row models.ScanRow
		var mc sql.NullFloat64
		if err := rows.Scan(&row.Ticker, &row.Name, &mc, &row.DailyCrossDate, &row.Status, &row.HourlyCrossDate); err != nil {
			return nil, err
		}
		if mc.Valid {
			row.MarketCap = models.Float(mc.Float64)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
