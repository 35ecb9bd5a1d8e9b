package snapshot

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jpalmerr/taskpulse/internal/task"
)

//go:embed schema.sql
var schemaSQL string

// Store persists task-list snapshots in a SQLite database.
//
// A snapshot is the full task sequence plus the peer address list; the live
// channel registry is never persisted. One row holds the latest state and
// every save replaces it, so restarts always restore the newest snapshot.
type Store struct {
	db *sql.DB
}

// Open creates or opens the snapshot database at the given path, creating
// missing parent directories first.
//
// The database is configured with WAL journaling, NORMAL synchronous mode,
// and a 5-second busy timeout, and the schema is applied idempotently.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// sqlite supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Save replaces the stored snapshot with the given state.
func (s *Store) Save(tasks []task.Task, peers []string) error {
	if tasks == nil {
		tasks = []task.Task{}
	}
	if peers == nil {
		peers = []string{}
	}

	tasksJSON, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("failed to encode tasks: %w", err)
	}
	peersJSON, err := json.Marshal(peers)
	if err != nil {
		return fmt.Errorf("failed to encode peers: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO snapshots (id, tasks, peers, saved_at) VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   tasks = excluded.tasks,
		   peers = excluded.peers,
		   saved_at = excluded.saved_at`,
		string(tasksJSON), string(peersJSON), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load returns the latest snapshot. A database that has never been saved to
// yields empty state, not an error. The tasks slice is never nil.
func (s *Store) Load() ([]task.Task, []string, error) {
	var tasksJSON, peersJSON string
	err := s.db.QueryRow(`SELECT tasks, peers FROM snapshots WHERE id = 1`).
		Scan(&tasksJSON, &peersJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return []task.Task{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	var tasks []task.Task
	if err := json.Unmarshal([]byte(tasksJSON), &tasks); err != nil {
		return nil, nil, fmt.Errorf("failed to decode snapshot tasks: %w", err)
	}
	var peers []string
	if err := json.Unmarshal([]byte(peersJSON), &peers); err != nil {
		return nil, nil, fmt.Errorf("failed to decode snapshot peers: %w", err)
	}

	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, peers, nil
}

// Close closes the database. Safe to call on a nil-db store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
