package vm

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/tapir/compiler"

	_ "modernc.org/sqlite"
)

// ErrProgramNotCached indicates no cached program for the requested
// source hash and optimization level.
var ErrProgramNotCached = errors.New("program not cached")

// ProgramCache persists compiled programs in SQLite, keyed by source hash
// and optimization level, so the harness and CLI skip re-optimizing
// unchanged sources.
type ProgramCache struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenProgramCache opens (and if needed initializes) a cache database.
func OpenProgramCache(path string) (*ProgramCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		hash  TEXT NOT NULL,
		opt   INTEGER NOT NULL,
		image BLOB NOT NULL,
		PRIMARY KEY (hash, opt)
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating programs table: %w", err)
	}

	return &ProgramCache{db: db}, nil
}

// Close closes the underlying database.
func (c *ProgramCache) Close() error {
	return c.db.Close()
}

// Put stores a program, replacing any previous image for the same key.
func (c *ProgramCache) Put(p *Program) error {
	image, err := MarshalProgram(p)
	if err != nil {
		return fmt.Errorf("encoding program: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO programs (hash, opt, image) VALUES (?, ?, ?)",
		p.HashString(), int(p.Opt), image,
	)
	if err != nil {
		return fmt.Errorf("storing program: %w", err)
	}
	return nil
}

// Get loads the cached program for (hash, opt), or ErrProgramNotCached.
func (c *ProgramCache) Get(hash string, opt compiler.OptLevel) (*Program, error) {
	var image []byte
	err := c.db.QueryRow(
		"SELECT image FROM programs WHERE hash = ? AND opt = ?",
		hash, int(opt),
	).Scan(&image)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProgramNotCached
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}
	return UnmarshalProgram(image)
}
