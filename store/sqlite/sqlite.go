/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.Store (quotes and organization rates) using SQLite.
  In production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  generic.QuoteStore: Preventivo documents
  generic.RateStore:  Per-organization rate overrides

KEY TABLES:
  quotes:      One row per Preventivo, document kept as JSON text
  org_configs: One row per organization, overrides kept as JSON text

INDEXES:
  - idx_quotes_org_updated: Listing an organization's quotes (hot path)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/premi.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/premi-engine/generic"
)

// Store implements generic.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives as long as its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Quotes (Preventivi)
	CREATE TABLE IF NOT EXISTS quotes (
		id TEXT PRIMARY KEY,
		organization TEXT NOT NULL,
		name TEXT NOT NULL,
		data_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_quotes_org_updated
		ON quotes(organization, updated_at DESC);

	-- Organization rate overrides
	CREATE TABLE IF NOT EXISTS org_configs (
		organization TEXT PRIMARY KEY,
		overrides_json TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// QUOTE STORE
// =============================================================================

// SaveQuote inserts or replaces a quote. created_at survives the replace.
func (s *Store) SaveQuote(ctx context.Context, q generic.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO quotes (id, organization, name, data_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			organization = excluded.organization,
			name = excluded.name,
			data_json = excluded.data_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	createdAt, updatedAt := q.CreatedAt, q.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = now
	}
	data := string(q.Data)
	if data == "" {
		data = "{}"
	}
	_, err := s.db.ExecContext(ctx, query,
		q.ID, q.Organization, q.Name, data,
		formatTime(createdAt), formatTime(updatedAt),
	)
	return err
}

// GetQuote retrieves a quote by ID.
func (s *Store) GetQuote(ctx context.Context, id string) (*generic.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, organization, name, data_json, created_at, updated_at FROM quotes WHERE id = ?",
		id,
	)
	q, err := scanQuote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrQuoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuotes returns quotes, most recently updated first.
func (s *Store) ListQuotes(ctx context.Context, organization string) ([]generic.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, organization, name, data_json, created_at, updated_at FROM quotes"
	var args []any
	if organization != "" {
		query += " WHERE organization = ?"
		args = append(args, organization)
	}
	query += " ORDER BY updated_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []generic.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// DeleteQuote removes a quote.
func (s *Store) DeleteQuote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM quotes WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return generic.ErrQuoteNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuote(row scanner) (generic.Quote, error) {
	var q generic.Quote
	var data, createdAt, updatedAt string
	if err := row.Scan(&q.ID, &q.Organization, &q.Name, &data, &createdAt, &updatedAt); err != nil {
		return generic.Quote{}, err
	}
	q.Data = []byte(data)
	q.CreatedAt = parseTime(createdAt)
	q.UpdatedAt = parseTime(updatedAt)
	return q, nil
}

// =============================================================================
// RATE STORE
// =============================================================================

// SaveRates replaces an organization's overrides.
func (s *Store) SaveRates(ctx context.Context, r generic.OrgRates) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO org_configs (organization, overrides_json, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(organization) DO UPDATE SET
			overrides_json = excluded.overrides_json,
			updated_at = excluded.updated_at
	`

	updatedAt := r.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	overrides := string(r.Overrides)
	if overrides == "" {
		overrides = "{}"
	}
	_, err := s.db.ExecContext(ctx, query, r.Organization, overrides, formatTime(updatedAt))
	return err
}

// GetRates retrieves an organization's overrides.
func (s *Store) GetRates(ctx context.Context, organization string) (*generic.OrgRates, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var r generic.OrgRates
	var overrides, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT organization, overrides_json, updated_at FROM org_configs WHERE organization = ?",
		organization,
	).Scan(&r.Organization, &overrides, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.ErrOrganizationNotFound
	}
	if err != nil {
		return nil, err
	}
	r.Overrides = []byte(overrides)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// Reset clears all data. Used by tests and the demo reset endpoint.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM quotes; DELETE FROM org_configs;")
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

// timeLayout is fixed width so that text order is chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

var _ generic.Store = (*Store)(nil)
