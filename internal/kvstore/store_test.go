// internal/kvstore/store_test.go
package kvstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"regexp"
	"testing"

	"stayease/internal/common/config"
	"stayease/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Shared Contract
// ==========================

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, found, err := s.Get(ctx, KeyAuth)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, KeyAuth, "true"))
	require.NoError(t, s.Set(ctx, KeyWishlist, `["m1"]`))
	require.NoError(t, s.Set(ctx, KeyAuth, "false"))

	v, found, err := s.Get(ctx, KeyAuth)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "false", v)

	v, _, err = s.Get(ctx, KeyWishlist)
	require.NoError(t, err)
	assert.Equal(t, `["m1"]`, v)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "test:")
	exerciseStore(t, store)

	raw, err := mr.Get("test:" + KeyWishlist)
	require.NoError(t, err)
	assert.Equal(t, `["m1"]`, raw)
	assert.Zero(t, mr.TTL("test:"+KeyAuth))
	assert.NoError(t, store.Ping(context.Background()))
}

func TestRedisStore_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, "")

	mock.ExpectGet(KeyAuth).SetErr(stderrors.New("connection refused"))
	_, _, err := store.Get(context.Background(), KeyAuth)
	assert.Error(t, err)

	mock.ExpectSet(KeyAuth, "true", 0).SetErr(stderrors.New("READONLY"))
	assert.Error(t, store.Set(context.Background(), KeyAuth, "true"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// PostgreSQL
// ==========================

func TestPostgresStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresStore(db, "kv_store", "")
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS kv_store`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, store.EnsureTable(ctx))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs(KeyAuth).
		WillReturnError(sql.ErrNoRows)
	_, found, err := store.Get(ctx, KeyAuth)
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE`)).
		WithArgs(KeyAuth, "true").
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, store.Set(ctx, KeyAuth, "true"))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM kv_store WHERE key = $1`)).
		WithArgs(KeyAuth).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("true"))
	v, found, err := store.Get(ctx, KeyAuth)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", v)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO kv_store`)).
		WithArgs(KeyWishlist, "[]").
		WillReturnError(stderrors.New("disk full"))
	assert.Error(t, store.Set(ctx, KeyWishlist, "[]"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStore_TableName(t *testing.T) {
	assert.Equal(t, "kv_store", NewPostgresStore(nil, "", "").table)
	assert.Equal(t, "kv_store", NewPostgresStore(nil, "x; DROP TABLE y", "").table)
	assert.Equal(t, "stay_kv", NewPostgresStore(nil, "stay_kv", "").table)
}

// ==========================
// Open
// ==========================

func TestOpen(t *testing.T) {
	log := logger.NewTestLogger(t)
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, closeFn, err := Open(ctx, &config.Config{Store: config.StoreConfig{Backend: config.StoreBackendMemory}}, log)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
		assert.NoError(t, closeFn())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := &config.Config{
			Store:    config.StoreConfig{Backend: config.StoreBackendRedis, KeyPrefix: "se:"},
			Database: config.DatabaseConfig{Redis: config.RedisConfig{Address: mr.Addr()}},
		}
		s, closeFn, err := Open(ctx, cfg, log)
		require.NoError(t, err)
		defer closeFn()

		require.NoError(t, s.Set(ctx, KeyAuth, "true"))
		assert.True(t, mr.Exists("se:"+KeyAuth))
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, _, err := Open(ctx, &config.Config{Store: config.StoreConfig{Backend: "etcd"}}, log)
		assert.ErrorIs(t, err, ErrUnknownBackend)
	})
}
