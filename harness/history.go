package harness

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// History persists finished suite runs in SQLite, one row per case, so
// regressions can be spotted across runs.
type History struct {
	db *sql.DB
}

// HistoryEntry is one recorded case outcome.
type HistoryEntry struct {
	ID       int64
	Suite    string
	Case     string
	Passed   bool
	Failures string
	Steps    uint64
	RanAt    time.Time
}

// OpenHistory opens (and if needed initializes) a history database.
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS case_runs (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		suite     TEXT NOT NULL,
		case_name TEXT NOT NULL,
		passed    INTEGER NOT NULL,
		failures  TEXT NOT NULL,
		steps     INTEGER NOT NULL,
		ran_at    TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating case_runs table: %w", err)
	}

	return &History{db: db}, nil
}

// Close closes the underlying database.
func (h *History) Close() error {
	return h.db.Close()
}

// Record stores every case of a finished suite run.
func (h *History) Record(result *SuiteResult) error {
	for i := range result.Cases {
		c := &result.Cases[i]

		var failures []string
		for _, f := range c.Failures {
			failures = append(failures, f.String())
		}
		var steps uint64
		if c.Result != nil {
			steps = c.Result.Steps
		}

		_, err := h.db.Exec(
			"INSERT INTO case_runs (suite, case_name, passed, failures, steps, ran_at) VALUES (?, ?, ?, ?, ?, ?)",
			c.Suite, c.Case, c.Passed(), strings.Join(failures, "; "), steps,
			result.Started.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("recording case %q: %w", c.Case, err)
		}
	}
	return nil
}

// Recent returns the most recent case outcomes, newest first.
func (h *History) Recent(limit int) ([]HistoryEntry, error) {
	rows, err := h.db.Query(
		"SELECT id, suite, case_name, passed, failures, steps, ran_at FROM case_runs ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ranAt string
		if err := rows.Scan(&e.ID, &e.Suite, &e.Case, &e.Passed, &e.Failures, &e.Steps, &ranAt); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, ranAt); err == nil {
			e.RanAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
