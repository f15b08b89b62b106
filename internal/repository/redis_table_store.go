package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
	"SumReport/pkg/cache"
	applogger "SumReport/pkg/logger"
)

var (
	tableKey       = cache.GenerateKey("funds", "table")
	refreshLockKey = cache.GenerateKey("funds", "refresh", "lock")
)

// CacheTableStore implements TableStore on top of a cache.Service (Redis or layered).
type CacheTableStore struct {
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

// NewCacheTableStore creates a table store. ttl <= 0 keeps the table until overwritten.
func NewCacheTableStore(c cache.Service, ttl time.Duration) *CacheTableStore {
	return &CacheTableStore{cache: c, ttl: ttl}
}

// SetLogger injects a structured logger.
func (s *CacheTableStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CacheTableStore) Load(ctx context.Context) (*models.Table, error) {
	var t models.Table
	if err := s.cache.Get(ctx, tableKey, &t); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, domrepo.ErrTableNotFound
		}
		if s.l != nil {
			s.l.Error("table store load error", applogger.Error(err))
		}
		return nil, fmt.Errorf("load table: %w", err)
	}
	return &t, nil
}

func (s *CacheTableStore) Save(ctx context.Context, t *models.Table) error {
	if err := s.cache.Set(ctx, tableKey, t, s.ttl); err != nil {
		if s.l != nil {
			s.l.Error("table store save error",
				applogger.String("batch_id", t.BatchID),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("save table: %w", err)
	}
	if s.l != nil {
		s.l.Debug("table stored",
			applogger.String("batch_id", t.BatchID),
			applogger.Int("rows", len(t.Rows)),
		)
	}
	return nil
}

func (s *CacheTableStore) TryLock(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.cache.TryLock(ctx, refreshLockKey, owner, ttl)
	if err != nil {
		return false, fmt.Errorf("acquire refresh lock: %w", err)
	}
	return ok, nil
}

func (s *CacheTableStore) Unlock(ctx context.Context, owner string) error {
	if err := s.cache.Unlock(ctx, refreshLockKey, owner); err != nil {
		return fmt.Errorf("release refresh lock: %w", err)
	}
	return nil
}
