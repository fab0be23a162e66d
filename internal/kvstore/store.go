// internal/kvstore/store.go
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stayease/internal/common/config"
	"stayease/internal/common/database"
	"stayease/internal/common/logger"
)

// Keys of the two persisted values.
const (
	KeyAuth     = "stayease_auth"
	KeyWishlist = "stayease_wishlist"
)

var ErrUnknownBackend = errors.New("unknown store backend")

// Operations reported by OpError.
const (
	OpGet = "get"
	OpSet = "set"
)

// OpError records a failed read or write of one key.
type OpError struct {
	Op  string
	Key string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Store is a durable string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MemoryStore keeps values in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Open builds the store selected by cfg.Store.Backend. The returned close
// function releases backend connections.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (Store, func() error, error) {
	log = log.WithFields(map[string]interface{}{"backend": cfg.Store.Backend})

	switch cfg.Store.Backend {
	case "", config.StoreBackendMemory:
		log.Info("using in-memory store", nil)
		return NewMemoryStore(), func() error { return nil }, nil

	case config.StoreBackendRedis:
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, nil, err
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, nil, err
		}
		log.Info("connected to redis store", map[string]interface{}{"address": cfg.Database.Redis.Address})
		return NewRedisStore(rc.Client, cfg.Store.KeyPrefix), rc.Close, nil

	case config.StoreBackendPostgres:
		pc, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		store := NewPostgresStore(pc.DB, cfg.Store.Table, cfg.Store.KeyPrefix)
		if err := store.EnsureTable(ctx); err != nil {
			pc.Close()
			return nil, nil, err
		}
		log.Info("connected to postgres store", map[string]interface{}{
			"host":  cfg.Database.Postgres.Host,
			"table": store.table,
		})
		return store, pc.Close, nil

	case config.StoreBackendMySQL:
		mc, err := database.NewMySQL(cfg.Database.MySQL)
		if err != nil {
			return nil, nil, err
		}
		store := NewMySQLStore(mc.DB, cfg.Store.Table, cfg.Store.KeyPrefix)
		if err := store.EnsureTable(ctx); err != nil {
			mc.Close()
			return nil, nil, err
		}
		log.Info("connected to mysql store", map[string]interface{}{
			"database": cfg.Database.MySQL.Database,
			"table":    store.table,
		})
		return store, mc.Close, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Store.Backend)
}
