package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
	applogger "SumReport/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrRefreshInProgress = errors.New("fund table refresh already in progress")
	ErrFundNotFound      = errors.New("fund not found")
	ErrHistoryDisabled   = errors.New("snapshot history is not configured")
)

// FundTableConfig tunes refreshes.
type FundTableConfig struct {
	Workers int
	LockTTL time.Duration
	Timeout time.Duration
}

// FundTable maintains the fund table: refresh from reports, edits, history.
type FundTable struct {
	source    domrepo.ReportSource
	builder   *ReportBuilder
	store     domrepo.TableStore
	snapshots domrepo.SnapshotStore
	events    domrepo.EventPublisher
	notifier  domrepo.Notifier
	metrics   domrepo.Metrics
	l         *applogger.Logger
	cfg       FundTableConfig
	newID     func() string
	now       func() time.Time

	// mu serialises read-modify-write of the stored table within this process.
	mu sync.Mutex

	// edits holds rows committed while a refresh is building; nil otherwise.
	edits map[string]models.FundRow
}

type FundTableOption func(*FundTable)

func WithSnapshots(s domrepo.SnapshotStore) FundTableOption {
	return func(t *FundTable) { t.snapshots = s }
}

func WithEvents(p domrepo.EventPublisher) FundTableOption {
	return func(t *FundTable) { t.events = p }
}

func WithNotifier(n domrepo.Notifier) FundTableOption {
	return func(t *FundTable) { t.notifier = n }
}

func WithTableMetrics(m domrepo.Metrics) FundTableOption {
	return func(t *FundTable) { t.metrics = m }
}

func WithTableLogger(l *applogger.Logger) FundTableOption {
	return func(t *FundTable) { t.l = l }
}

func NewFundTable(source domrepo.ReportSource, builder *ReportBuilder, store domrepo.TableStore, cfg FundTableConfig, opts ...FundTableOption) *FundTable {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}
	t := &FundTable{
		source:  source,
		builder: builder,
		store:   store,
		cfg:     cfg,
		newID:   uuid.NewString,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type buildResult struct {
	row models.FundRow
	err *models.RowError
}

// Refresh rebuilds the table from the report directory. Files that fail are
// listed in Table.Errors and do not abort the refresh.
func (t *FundTable) Refresh(ctx context.Context) (*models.Table, error) {
	owner := t.newID()
	ok, err := t.store.TryLock(ctx, owner, t.cfg.LockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRefreshInProgress
	}
	defer func() {
		// The request context may be done already; release with a fresh one.
		uctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := t.store.Unlock(uctx, owner); err != nil && t.l != nil {
			t.l.Warn("refresh lock release failed", applogger.Error(err))
		}
	}()

	t.mu.Lock()
	t.edits = map[string]models.FundRow{}
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.edits = nil
		t.mu.Unlock()
	}()

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	start := t.now()
	reports, err := t.source.List(ctx)
	if err != nil {
		t.recordError("scan")
		return nil, fmt.Errorf("list reports: %w", err)
	}

	results := t.buildAll(ctx, reports)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	tbl := &models.Table{
		BatchID:   t.newID(),
		Rows:      make([]models.FundRow, 0, len(results)),
		UpdatedAt: t.now().UTC(),
	}
	for _, r := range results {
		if r.err != nil {
			tbl.Errors = append(tbl.Errors, *r.err)
			continue
		}
		tbl.Rows = append(tbl.Rows, r.row)
	}

	t.mu.Lock()
	mergeEdits(tbl, t.edits)
	err = t.store.Save(ctx, tbl)
	t.mu.Unlock()
	if err != nil {
		t.recordError("store")
		return nil, err
	}
	t.publish(ctx, tbl, models.EventTableRefreshed, tbl.Rows)

	elapsed := t.now().Sub(start)
	if t.metrics != nil {
		t.metrics.RecordRefresh(elapsed.Seconds(), len(tbl.Rows), len(tbl.Errors))
	}
	if t.l != nil {
		t.l.Info("fund table refreshed",
			applogger.String("batch_id", tbl.BatchID),
			applogger.Int("rows", len(tbl.Rows)),
			applogger.Int("failed", len(tbl.Errors)),
			applogger.Duration("duration_ms", elapsed),
		)
	}
	return tbl, nil
}

// buildAll builds one row per report with a bounded worker set. Results keep
// the report order.
func (t *FundTable) buildAll(ctx context.Context, reports []domrepo.Report) []buildResult {
	results := make([]buildResult, len(reports))
	workers := t.cfg.Workers
	if workers > len(reports) {
		workers = len(reports)
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = t.buildOne(ctx, reports[i])
			}
		}()
	}

feed:
	for i := range reports {
		select {
		case idx <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(idx)
	wg.Wait()
	return results
}

func (t *FundTable) buildOne(ctx context.Context, r domrepo.Report) buildResult {
	fail := func(err error) buildResult {
		if t.l != nil {
			t.l.Warn("report skipped",
				applogger.String("file", r.Name),
				applogger.String("fund", r.Fund),
				applogger.Error(err),
			)
		}
		t.recordError("report")
		return buildResult{err: &models.RowError{Fund: r.Fund, Source: r.Name, Message: err.Error()}}
	}

	if r.Fund == "" {
		return fail(fmt.Errorf("no fund name in file name %q", r.Name))
	}
	text, err := t.source.Read(ctx, r)
	if err != nil {
		return fail(err)
	}
	row, err := t.builder.Build(ctx, BuildParams{Fund: r.Fund, Source: r.Name, Text: text})
	if err != nil {
		return fail(err)
	}
	return buildResult{row: row}
}

// Stored returns the last stored table.
func (t *FundTable) Stored(ctx context.Context) (*models.Table, error) {
	return t.store.Load(ctx)
}

// UpdateRow applies patch to the fund's row and recomputes its scenarios.
func (t *FundTable) UpdateRow(ctx context.Context, patch models.RowPatch) (models.FundRow, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tbl, err := t.store.Load(ctx)
	if err != nil {
		return models.FundRow{}, err
	}
	old, i := tbl.Row(patch.Fund)
	if i < 0 {
		return models.FundRow{}, fmt.Errorf("%w: %s", ErrFundNotFound, patch.Fund)
	}

	kf := old.KeyFigures
	rul := old.RealizedUnlevered
	if patch.ModifiedDuration != nil {
		kf.ModifiedDuration = *patch.ModifiedDuration
	}
	if patch.EffectiveYield != nil {
		kf.EffectiveYield = *patch.EffectiveYield
	}
	if patch.Coupon != nil {
		kf.Coupon = *patch.Coupon
	}
	if patch.RUL != nil {
		rul = *patch.RUL
	}

	p := ScenarioParams{Fund: old.Fund, Source: SourceEdit, RUL: rul, KeyFigures: kf}
	if len(old.Hedge.Weight) > 0 {
		hedge := old.Hedge
		p.Hedge = &hedge
	}
	row := t.builder.Compute(ctx, p)
	if p.Hedge != nil {
		row.Warnings = append(fallbackWarnings(old.Warnings), row.Warnings...)
	}

	tbl.Rows[i] = row
	if err := t.saveChange(ctx, tbl, row); err != nil {
		return models.FundRow{}, err
	}
	return row, nil
}

// Upsert replaces or appends row. A missing table is created.
func (t *FundTable) Upsert(ctx context.Context, row models.FundRow) (*models.Table, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tbl, err := t.store.Load(ctx)
	switch {
	case errors.Is(err, domrepo.ErrTableNotFound):
		tbl = &models.Table{}
	case err != nil:
		return nil, err
	}

	if _, i := tbl.Row(row.Fund); i >= 0 {
		tbl.Rows[i] = row
	} else {
		tbl.Rows = append(tbl.Rows, row)
	}
	if err := t.saveChange(ctx, tbl, row); err != nil {
		return nil, err
	}
	return tbl, nil
}

// History returns snapshots of fund between from and to, newest first.
func (t *FundTable) History(ctx context.Context, fund string, from, to time.Time, limit int) ([]models.Snapshot, error) {
	if t.snapshots == nil {
		return nil, ErrHistoryDisabled
	}
	snaps, err := t.snapshots.History(ctx, fund, from, to, limit)
	if err != nil {
		t.recordError("history")
		return nil, err
	}
	return snaps, nil
}

// saveChange stores a single-row change. Callers hold t.mu.
func (t *FundTable) saveChange(ctx context.Context, tbl *models.Table, row models.FundRow) error {
	tbl.BatchID = t.newID()
	tbl.UpdatedAt = t.now().UTC()
	if err := t.store.Save(ctx, tbl); err != nil {
		t.recordError("store")
		return err
	}
	if t.edits != nil {
		t.edits[row.Fund] = row
	}
	t.publish(ctx, tbl, models.EventRowUpdated, []models.FundRow{row})
	return nil
}

// publish writes snapshots, emits the table event and notifies live clients.
// Failures are logged; the stored table stays authoritative.
func (t *FundTable) publish(ctx context.Context, tbl *models.Table, eventType string, rows []models.FundRow) {
	if t.snapshots != nil && len(rows) > 0 {
		snaps := make([]models.Snapshot, len(rows))
		for i, r := range rows {
			snaps[i] = models.Snapshot{BatchID: tbl.BatchID, Timestamp: tbl.UpdatedAt, Row: r}
		}
		if err := t.snapshots.Write(ctx, snaps); err != nil {
			t.recordError("snapshot")
			if t.l != nil {
				t.l.Error("snapshot write failed", applogger.String("batch_id", tbl.BatchID), applogger.Error(err))
			}
		}
	}
	if t.events != nil {
		ev := models.TableEvent{Type: eventType, BatchID: tbl.BatchID, Rows: rows, At: tbl.UpdatedAt}
		if err := t.events.PublishTableEvent(ctx, ev); err != nil {
			t.recordError("event")
			if t.l != nil {
				t.l.Error("table event publish failed", applogger.String("type", eventType), applogger.Error(err))
			}
		}
	}
	if t.notifier != nil {
		t.notifier.NotifyTable(tbl)
	}
}

func (t *FundTable) recordError(kind string) {
	if t.metrics != nil {
		t.metrics.RecordError(kind)
	}
}

// mergeEdits carries rows edited during a refresh into the rebuilt table.
// An edit is newer than the scan, so it replaces the rebuilt row.
func mergeEdits(tbl *models.Table, edits map[string]models.FundRow) {
	funds := make([]string, 0, len(edits))
	for fund := range edits {
		funds = append(funds, fund)
	}
	sort.Strings(funds)
	for _, fund := range funds {
		row := edits[fund]
		if _, i := tbl.Row(fund); i >= 0 {
			tbl.Rows[i] = row
		} else {
			tbl.Rows = append(tbl.Rows, row)
		}
	}
}

func fallbackWarnings(ws []models.Warning) []models.Warning {
	var out []models.Warning
	for _, w := range ws {
		if w.Code == models.WarnWeightFallback {
			out = append(out, w)
		}
	}
	return out
}
