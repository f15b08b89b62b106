package repository

import (
	"context"
	"errors"
	"time"

	"SumReport/internal/domain/models"
)

// ErrTableNotFound is returned when no fund table has been stored yet.
var ErrTableNotFound = errors.New("fund table not found")

// Report is one summary report file found in the report directory.
type Report struct {
	Path string
	Name string
	Fund string
}

// ReportSource lists and reads summary reports.
type ReportSource interface {
	List(ctx context.Context) ([]Report, error)
	Read(ctx context.Context, r Report) (string, error)
}

// TableStore persists the current fund table and serialises refreshes.
type TableStore interface {
	Load(ctx context.Context) (*models.Table, error)
	Save(ctx context.Context, t *models.Table) error
	// TryLock acquires the refresh lock for owner. It reports false when held by someone else.
	TryLock(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, owner string) error
}

type SnapshotStore interface {
	Init(ctx context.Context) error // ensure tables
	Write(ctx context.Context, snaps []models.Snapshot) error
	History(ctx context.Context, fund string, from, to time.Time, limit int) ([]models.Snapshot, error)
	Health(ctx context.Context) error
	Close() error
}

type EventPublisher interface {
	PublishTableEvent(ctx context.Context, ev models.TableEvent) error
	Close() error
}

// Notifier pushes table changes to live clients.
type Notifier interface {
	NotifyTable(t *models.Table)
}

type Metrics interface {
	RecordFit(method string, ok bool)
	RecordScenario(source string)
	RecordRefresh(seconds float64, rows, failed int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
