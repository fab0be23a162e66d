// internal/kvstore/mysql.go
package kvstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvEntry is one row of the MySQL store table.
type kvEntry struct {
	Key   string `gorm:"column:k;primaryKey;size:191"`
	Value string `gorm:"column:v;type:text;not null"`
}

// MySQLStore keeps values in a two-column table through gorm.
type MySQLStore struct {
	db     *gorm.DB
	table  string
	prefix string
}

// NewMySQLStore falls back to kv_store for an empty or unsafe table name.
func NewMySQLStore(db *gorm.DB, table, prefix string) *MySQLStore {
	if !tableName.MatchString(table) {
		table = defaultTable
	}
	return &MySQLStore{db: db, table: table, prefix: prefix}
}

// EnsureTable creates the table if it does not exist.
func (s *MySQLStore) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS `%s` (`k` VARCHAR(191) NOT NULL PRIMARY KEY, `v` TEXT NOT NULL)",
		s.table,
	)
	if err := s.db.WithContext(ctx).Exec(query).Error; err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	return nil
}

func (s *MySQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry kvEntry
	err := s.db.WithContext(ctx).Table(s.table).Where("`k` = ?", s.prefix+key).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("mysql get %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (s *MySQLStore) Set(ctx context.Context, key, value string) error {
	entry := kvEntry{Key: s.prefix + key, Value: value}
	err := s.db.WithContext(ctx).Table(s.table).
		Clauses(clause.OnConflict{DoUpdates: clause.AssignmentColumns([]string{"v"})}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("mysql set %s: %w", key, err)
	}
	return nil
}

func (s *MySQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
