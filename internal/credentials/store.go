// Package credentials provides the SQLite-backed credential store that
// provider clients are bound to at load time
// (~/.local/share/toolroute/credentials.db by default).
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ShayCichocki/toolroute/internal/catalog"
)

// ErrNotFound is returned when no credentials are stored for a provider.
var ErrNotFound = errors.New("credentials not found")

// Record is one stored credential set.
type Record struct {
	ProviderID  string
	Credentials catalog.Credentials
	UpdatedAt   time.Time
}

// Store wraps an SQLite database holding provider credentials.
type Store struct {
	conn *sql.DB
	path string
	mu   sync.RWMutex
}

// DefaultPath returns the path to the user-level credential database.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "toolroute", "credentials.db")
}

// Open opens the credential database at path, creating parent directories.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	return &Store{conn: conn, path: path}, nil
}

// OpenMigrated opens path and applies pending migrations.
func OpenMigrated(path string) (*Store, error) {
	s, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.path
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var currentVersion int
	row := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Credentials},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}

		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}

	return nil
}

const migrationV1Credentials = `
CREATE TABLE IF NOT EXISTS credentials (
	provider_id TEXT PRIMARY KEY,
	token TEXT NOT NULL DEFAULT '',
	username TEXT NOT NULL DEFAULT '',
	password TEXT NOT NULL DEFAULT '',
	header TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL
);
`

// Put stores or replaces the credentials for a provider.
func (s *Store) Put(ctx context.Context, providerID string, creds catalog.Credentials) error {
	if providerID == "" {
		return fmt.Errorf("provider id cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO credentials (provider_id, token, username, password, header, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider_id) DO UPDATE SET
			token = excluded.token,
			username = excluded.username,
			password = excluded.password,
			header = excluded.header,
			updated_at = excluded.updated_at
	`, providerID, creds.Token, creds.Username, creds.Password, creds.Header, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("put credentials for %s: %w", providerID, err)
	}
	return nil
}

// Get returns the credentials stored for a provider, or ErrNotFound.
func (s *Store) Get(ctx context.Context, providerID string) (catalog.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c catalog.Credentials
	row := s.conn.QueryRowContext(ctx, `
		SELECT token, username, password, header FROM credentials WHERE provider_id = ?
	`, providerID)
	err := row.Scan(&c.Token, &c.Username, &c.Password, &c.Header)
	if err == sql.ErrNoRows {
		return catalog.Credentials{}, fmt.Errorf("%w: %s", ErrNotFound, providerID)
	}
	if err != nil {
		return catalog.Credentials{}, fmt.Errorf("get credentials for %s: %w", providerID, err)
	}
	return c, nil
}

// Delete removes the credentials for a provider. Deleting a missing entry returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.conn.ExecContext(ctx, `DELETE FROM credentials WHERE provider_id = ?`, providerID)
	if err != nil {
		return fmt.Errorf("delete credentials for %s: %w", providerID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, providerID)
	}
	return nil
}

// List returns every stored record ordered by provider id.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT provider_id, token, username, password, header, updated_at
		FROM credentials ORDER BY provider_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r         Record
			updatedAt string
		)
		if err := rows.Scan(&r.ProviderID, &r.Credentials.Token, &r.Credentials.Username,
			&r.Credentials.Password, &r.Credentials.Header, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan credentials: %w", err)
		}
		r.UpdatedAt, _ = parseTime(updatedAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Lookup returns the credentials for a provider, treating a missing entry as
// empty credentials. Providers that need no auth work without a stored row.
func (s *Store) Lookup(ctx context.Context, providerID string) (catalog.Credentials, error) {
	c, err := s.Get(ctx, providerID)
	if errors.Is(err, ErrNotFound) {
		return catalog.Credentials{}, nil
	}
	return c, err
}

// formatTime formats a time.Time for SQLite storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a time string from SQLite.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// Redact masks a secret for display, keeping only the last four characters.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
