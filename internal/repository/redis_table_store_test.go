package repository

import (
	"context"
	"testing"
	"time"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
	"SumReport/pkg/cache"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheTableStore_RoundTrip(t *testing.T) {
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	s := NewCacheTableStore(mem, time.Hour)
	ctx := context.Background()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, domrepo.ErrTableNotFound)

	tbl := &models.Table{BatchID: "b1", Rows: []models.FundRow{{Fund: "Alpha"}}}
	require.NoError(t, s.Save(ctx, tbl))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b1", got.BatchID)
	require.Len(t, got.Rows, 1)
	assert.Equal(t, "Alpha", got.Rows[0].Fund)
}

func TestCacheTableStore_Lock(t *testing.T) {
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })
	s := NewCacheTableStore(mem, 0)
	ctx := context.Background()

	ok, err := s.TryLock(ctx, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.TryLock(ctx, "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Unlock(ctx, "b"), cache.ErrLockNotHeld)
	require.NoError(t, s.Unlock(ctx, "a"))

	ok, err = s.TryLock(ctx, "b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCacheTableStore_RedisMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	s := NewCacheTableStore(cache.NewRedisCacheFromClient(db, "sumreport"), 0)

	mock.ExpectGet("sumreport:funds:table").RedisNil()

	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, domrepo.ErrTableNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
