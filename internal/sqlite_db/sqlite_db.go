// Package sqlite_db records training runs and their interval reports in an
// SQLite database.
package sqlite_db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	"id" TEXT PRIMARY KEY,
	"task" TEXT NOT NULL,
	"corpus" TEXT NOT NULL,
	"epochs" INTEGER NOT NULL,
	"started" DATETIME NOT NULL,
	"finished" DATETIME,
	"status" TEXT NOT NULL DEFAULT 'running'
);
CREATE TABLE IF NOT EXISTS reports (
	"id" INTEGER PRIMARY KEY AUTOINCREMENT,
	"run_id" TEXT NOT NULL REFERENCES runs(id),
	"epoch" INTEGER NOT NULL,
	"hits" INTEGER NOT NULL,
	"total" INTEGER NOT NULL,
	"accuracy" REAL NOT NULL,
	"improved" INTEGER NOT NULL,
	"elapsed_ms" INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_run_idx ON reports(run_id)
`

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// OpenDB opens (and creates if needed) the history database. The special
// name ":memory:" gives a private in-memory database.
func OpenDB(dataSourceName string) (*sql.DB, error) {
	if dataSourceName != ":memory:" {
		dir := filepath.Dir(dataSourceName)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps in-memory databases shared
	db.SetMaxOpenConns(1)
	if err := InitDB(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug().Str("path", dataSourceName).Msg("training history database initialized")
	return db, nil
}

// InitDB creates the tables unless they exist.
func InitDB(db *sql.DB) error {
	for _, s := range strings.Split(schemaSQL, ";") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("failed to create history tables: %w", err)
		}
	}
	return nil
}

// Run is one training invocation.
type Run struct {
	ID       string
	Task     string
	Corpus   string
	Epochs   int
	Started  time.Time
	Finished sql.NullTime
	Status   string
}

// Report is one interval report of a run.
type Report struct {
	RunID    string
	Epoch    int
	Hits     int
	Total    int
	Accuracy float64
	Improved bool
	Elapsed  time.Duration
}

// StartRun registers a new run and returns its identifier.
func StartRun(db *sql.DB, task, corpus string, epochs int) (string, error) {
	id := uuid.New().String()
	_, err := db.Exec(
		`INSERT INTO runs(id, task, corpus, epochs, started, status) VALUES (?, ?, ?, ?, ?, ?)`,
		id, task, corpus, epochs, time.Now().UTC(), StatusRunning,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

// FinishRun marks the run as finished or failed.
func FinishRun(db *sql.DB, runID string, failed bool) error {
	status := StatusFinished
	if failed {
		status = StatusFailed
	}
	res, err := db.Exec(
		`UPDATE runs SET finished = ?, status = ? WHERE id = ?`,
		time.Now().UTC(), status, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// SaveReport stores an interval report.
func SaveReport(db *sql.DB, r Report) error {
	improved := 0
	if r.Improved {
		improved = 1
	}
	_, err := db.Exec(
		`INSERT INTO reports(run_id, epoch, hits, total, accuracy, improved, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Epoch, r.Hits, r.Total, r.Accuracy, improved, r.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetRun retrieves a run by its identifier.
func GetRun(db *sql.DB, runID string) (*Run, error) {
	var run Run
	err := db.QueryRow(
		`SELECT id, task, corpus, epochs, started, finished, status FROM runs WHERE id = ?`, runID,
	).Scan(&run.ID, &run.Task, &run.Corpus, &run.Epochs, &run.Started, &run.Finished, &run.Status)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	return &run, nil
}

// GetReports lists the reports of a run in epoch order.
func GetReports(db *sql.DB, runID string) ([]Report, error) {
	rows, err := db.Query(
		`SELECT run_id, epoch, hits, total, accuracy, improved, elapsed_ms
		FROM reports WHERE run_id = ? ORDER BY epoch ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var r Report
		var improved int
		var elapsedMs int64
		if err := rows.Scan(&r.RunID, &r.Epoch, &r.Hits, &r.Total, &r.Accuracy, &improved, &elapsedMs); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Improved = improved != 0
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// BestAccuracy returns the highest accuracy reported for a task over all
// finished runs, or false when there is none.
func BestAccuracy(db *sql.DB, task string) (float64, bool, error) {
	var best sql.NullFloat64
	err := db.QueryRow(
		`SELECT MAX(r.accuracy) FROM reports r JOIN runs u ON r.run_id = u.id
		WHERE u.task = ? AND u.status = ?`, task, StatusFinished,
	).Scan(&best)
	if err != nil {
		return 0, false, fmt.Errorf("failed to query best accuracy: %w", err)
	}
	return best.Float64, best.Valid, nil
}
