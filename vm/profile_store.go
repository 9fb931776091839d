package vm

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

// ProfileStore persists profiler aggregates in DuckDB so profile runs can
// be compared across optimization levels and program revisions with plain
// SQL.
type ProfileStore struct {
	db *sql.DB
}

// OpenProfileStore opens (and if needed initializes) a profile database.
func OpenProfileStore(path string) (*ProfileStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("opening profile database: %w", err)
	}

	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS profile_run_seq`,
		`CREATE TABLE IF NOT EXISTS profile_runs (
			run_id       BIGINT PRIMARY KEY DEFAULT nextval('profile_run_seq'),
			program_hash VARCHAR NOT NULL,
			opt_level    INTEGER NOT NULL,
			total_steps  UBIGINT NOT NULL,
			recorded_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profile_ops (
			run_id     BIGINT NOT NULL,
			opcode     VARCHAR NOT NULL,
			executions UBIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profile_loops (
			run_id     BIGINT NOT NULL,
			open_index INTEGER NOT NULL,
			iterations UBIGINT NOT NULL,
			hot        BOOLEAN NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing profile schema: %w", err)
		}
	}

	return &ProfileStore{db: db}, nil
}

// Close closes the underlying database.
func (s *ProfileStore) Close() error {
	return s.db.Close()
}

// RecordRun stores one profiling run and returns its run id.
func (s *ProfileStore) RecordRun(prog *Program, stats ProfileStats) (int64, error) {
	var runID int64
	err := s.db.QueryRow(
		`INSERT INTO profile_runs (program_hash, opt_level, total_steps, recorded_at)
		 VALUES (?, ?, ?, ?) RETURNING run_id`,
		prog.HashString(), int(prog.Opt), stats.TotalSteps, time.Now().UTC(),
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("recording profile run: %w", err)
	}

	for _, op := range stats.Ops {
		if _, err := s.db.Exec(
			"INSERT INTO profile_ops (run_id, opcode, executions) VALUES (?, ?, ?)",
			runID, op.Code.String(), op.Executions,
		); err != nil {
			return 0, fmt.Errorf("recording op stats: %w", err)
		}
	}
	for _, loop := range stats.Loops {
		if _, err := s.db.Exec(
			"INSERT INTO profile_loops (run_id, open_index, iterations, hot) VALUES (?, ?, ?, ?)",
			runID, loop.OpenIndex, loop.Iterations, loop.Hot,
		); err != nil {
			return 0, fmt.Errorf("recording loop stats: %w", err)
		}
	}
	return runID, nil
}

// TopOpcodes returns the most-executed opcodes for a program across all
// recorded runs.
func (s *ProfileStore) TopOpcodes(programHash string, limit int) ([]OpStat, error) {
	rows, err := s.db.Query(
		`SELECT o.opcode, SUM(o.executions) AS total
		   FROM profile_ops o
		   JOIN profile_runs r ON r.run_id = o.run_id
		  WHERE r.program_hash = ?
		  GROUP BY o.opcode
		  ORDER BY total DESC
		  LIMIT ?`,
		programHash, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying top opcodes: %w", err)
	}
	defer rows.Close()

	var stats []OpStat
	for rows.Next() {
		var name string
		var total uint64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("scanning opcode row: %w", err)
		}
		stats = append(stats, OpStat{Code: opcodeByName(name), Executions: total})
	}
	return stats, rows.Err()
}

func opcodeByName(name string) Opcode {
	for _, op := range []Opcode{OpAdd, OpSet, OpMul, OpMove, OpPrint, OpRead, OpJumpZero, OpJumpNonZero} {
		if op.String() == name {
			return op
		}
	}
	return 0
}
