// Package sqlite persists the library in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrSnakeDoc/komiku/internal/library"
)

const schema = `CREATE TABLE IF NOT EXISTS library_state (
	name       TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// LibraryPersister stores the library as one row per name.
type LibraryPersister struct {
	db   *sql.DB
	name string
	now  func() time.Time
}

// Open opens (or creates) the database at path and prepares the schema.
func Open(path, name string) (*LibraryPersister, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("library name is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", cleanPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection keeps the pragmas below in effect for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create library schema: %w", err)
	}

	return &LibraryPersister{db: db, name: name, now: time.Now}, nil
}

// Close closes the database handle.
func (p *LibraryPersister) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Ping reports whether the database answers.
func (p *LibraryPersister) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *LibraryPersister) Load(ctx context.Context) (library.State, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM library_state WHERE name = ?`, p.name,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return library.State{}, library.ErrNotFound
		}
		return library.State{}, fmt.Errorf("load library %q: %w", p.name, err)
	}

	return library.Decode(payload)
}

func (p *LibraryPersister) Save(ctx context.Context, state library.State) error {
	payload, err := library.Encode(state)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO library_state (name, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		p.name, payload, p.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save library %q: %w", p.name, err)
	}
	return nil
}
