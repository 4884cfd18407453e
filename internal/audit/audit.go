// Package audit persists a log of RAG inputs and outputs for later
// review. It is deliberately separate from the retrieval core: the core
// emits records here but retrieval never depends on them.
package audit

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store manages the SQLite interaction log
type Store struct {
	db   *sql.DB
	path string
}

// Interaction is one logged call
type Interaction struct {
	ID       int64
	TS       time.Time
	Role     string
	Action   string
	Input    string
	Output   string
	Approved bool
	Reviewer string
}

// Open opens or creates the interaction log at the given path
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode=WAL&_pragma=synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Log records one interaction
func (s *Store) Log(role, action, input, output string) error {
	_, err := s.db.Exec(
		"INSERT INTO interactions (ts, role, action, input, output, approved, reviewer) VALUES (?, ?, ?, ?, ?, 0, '')",
		time.Now().UTC().Format(time.RFC3339), role, action, input, output,
	)
	if err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}
	return nil
}

// Approve marks an interaction as reviewed
func (s *Store) Approve(id int64, reviewer string) error {
	res, err := s.db.Exec("UPDATE interactions SET approved=1, reviewer=? WHERE id=?", reviewer, id)
	if err != nil {
		return fmt.Errorf("failed to approve interaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check approval: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("interaction not found: %d", id)
	}
	return nil
}

// Recent returns the newest interactions, most recent first
func (s *Store) Recent(limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		"SELECT id, ts, role, action, input, output, approved, reviewer FROM interactions ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer rows.Close()

	var out []Interaction
	for rows.Next() {
		var it Interaction
		var ts string
		var approved int
		if err := rows.Scan(&it.ID, &ts, &it.Role, &it.Action, &it.Input, &it.Output, &approved, &it.Reviewer); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			it.TS = t
		}
		it.Approved = approved != 0
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}

	return out, nil
}

// Count returns the total number of logged interactions
func (s *Store) Count() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM interactions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count interactions: %w", err)
	}
	return n, nil
}
