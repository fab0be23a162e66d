// internal/kvstore/postgres.go
package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/jmoiron/sqlx"
)

const defaultTable = "kv_store"

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresStore keeps values in a two-column table.
type PostgresStore struct {
	db     *sqlx.DB
	table  string
	prefix string
}

// NewPostgresStore falls back to kv_store for an empty or unsafe table name.
func NewPostgresStore(db *sql.DB, table, prefix string) *PostgresStore {
	if !tableName.MatchString(table) {
		table = defaultTable
	}
	var xdb *sqlx.DB
	if db != nil {
		xdb = sqlx.NewDb(db, "postgres")
	}
	return &PostgresStore{db: xdb, table: table, prefix: prefix}
}

// EnsureTable creates the table if it does not exist.
func (s *PostgresStore) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (key TEXT PRIMARY KEY, value TEXT NOT NULL)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	query := fmt.Sprintf(`SELECT value FROM %s WHERE key = $1`, s.table)

	var value string
	err := s.db.GetContext(ctx, &value, query, s.prefix+key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(
		`INSERT INTO %s (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		s.table,
	)
	if _, err := s.db.ExecContext(ctx, query, s.prefix+key, value); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
