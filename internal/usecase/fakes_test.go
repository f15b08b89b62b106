package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
)

const reportText = `Portfolio characteristics
Eff. Dur 5.1234
Coupon rate (%) 3.25
Yield to maturity (duration weighted) 4.75
`

type memSource struct {
	reports []domrepo.Report
	texts   map[string]string
	listErr error
	onRead  func(r domrepo.Report)
}

func (s *memSource) List(ctx context.Context) ([]domrepo.Report, error) {
	return s.reports, s.listErr
}

func (s *memSource) Read(ctx context.Context, r domrepo.Report) (string, error) {
	if s.onRead != nil {
		s.onRead(r)
	}
	text, ok := s.texts[r.Name]
	if !ok {
		return "", errors.New("unreadable")
	}
	return text, nil
}

type memStore struct {
	mu      sync.Mutex
	table   *models.Table
	owner   string
	saves   int
	saveErr error
}

func (s *memStore) Load(ctx context.Context) (*models.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil, domrepo.ErrTableNotFound
	}
	cp := *s.table
	cp.Rows = append([]models.FundRow(nil), s.table.Rows...)
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, t *models.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	cp := *t
	cp.Rows = append([]models.FundRow(nil), t.Rows...)
	s.table = &cp
	s.saves++
	return nil
}

func (s *memStore) TryLock(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != "" {
		return false, nil
	}
	s.owner = owner
	return true, nil
}

func (s *memStore) Unlock(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != owner {
		return errors.New("not owner")
	}
	s.owner = ""
	return nil
}

type memSnapshots struct {
	written  []models.Snapshot
	writeErr error
	history  []models.Snapshot
}

func (s *memSnapshots) Init(ctx context.Context) error { return nil }
func (s *memSnapshots) Write(ctx context.Context, snaps []models.Snapshot) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.written = append(s.written, snaps...)
	return nil
}
func (s *memSnapshots) History(ctx context.Context, fund string, from, to time.Time, limit int) ([]models.Snapshot, error) {
	return s.history, nil
}
func (s *memSnapshots) Health(ctx context.Context) error { return nil }
func (s *memSnapshots) Close() error                     { return nil }

type memEvents struct {
	events []models.TableEvent
}

func (p *memEvents) PublishTableEvent(ctx context.Context, ev models.TableEvent) error {
	p.events = append(p.events, ev)
	return nil
}
func (p *memEvents) Close() error { return nil }

type memNotifier struct {
	tables []*models.Table
}

func (n *memNotifier) NotifyTable(t *models.Table) { n.tables = append(n.tables, t) }

type countingMetrics struct {
	mu        sync.Mutex
	fits      map[string]int
	scenarios map[string]int
	errors    map[string]int
	refreshes int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{fits: map[string]int{}, scenarios: map[string]int{}, errors: map[string]int{}}
}

func (m *countingMetrics) RecordFit(method string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.fits[method]++
	} else {
		m.fits[method+":error"]++
	}
}
func (m *countingMetrics) RecordScenario(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[source]++
}
func (m *countingMetrics) RecordRefresh(seconds float64, rows, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes++
}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}
func (m *countingMetrics) RecordLatency(op string, seconds float64) {}
