package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
	"SumReport/internal/services/keyfigures"
	"SumReport/internal/services/scenario"
	applogger "SumReport/pkg/logger"
)

// Row sources, used as metric labels and FundRow.Source fallback.
const (
	SourceReport = "report"
	SourceAPI    = "api"
	SourceKafka  = "kafka"
	SourceEdit   = "edit"
)

// ReportBuilder turns key figures into a fund row: hedge resolution,
// horizon return and rate-shock scenarios.
type ReportBuilder struct {
	weights scenario.WeightSource
	costs   map[models.Currency]float64
	rul     map[string]float64
	metrics domrepo.Metrics
	l       *applogger.Logger
	now     func() time.Time
}

type ReportBuilderOption func(*ReportBuilder)

// WithHedgeCosts overrides the default per-currency hedge costs.
func WithHedgeCosts(costs map[models.Currency]float64) ReportBuilderOption {
	return func(b *ReportBuilder) {
		if len(costs) > 0 {
			b.costs = costs
		}
	}
}

// WithFundRUL sets the configured RUL per fund, used when a build gets none.
func WithFundRUL(rul map[string]float64) ReportBuilderOption {
	return func(b *ReportBuilder) { b.rul = rul }
}

func WithBuilderMetrics(m domrepo.Metrics) ReportBuilderOption {
	return func(b *ReportBuilder) { b.metrics = m }
}

func WithBuilderLogger(l *applogger.Logger) ReportBuilderOption {
	return func(b *ReportBuilder) { b.l = l }
}

func NewReportBuilder(weights scenario.WeightSource, opts ...ReportBuilderOption) *ReportBuilder {
	b := &ReportBuilder{
		weights: weights,
		costs:   scenario.DefaultHedgeCosts(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildParams describes one summary report. A nil RUL uses the configured value.
type BuildParams struct {
	Fund   string
	Source string
	Text   string
	RUL    *float64
}

// ScenarioParams computes a row from known key figures. Costs and Weights
// override the configured ones when set. Hedge, when set, is used as is.
type ScenarioParams struct {
	Fund       string
	Source     string
	RUL        float64
	KeyFigures models.KeyFigures
	Costs      map[models.Currency]float64
	Weights    map[models.Currency]float64
	Hedge      *models.HedgeConfig
}

// Build extracts key figures from report text and computes the fund row.
func (b *ReportBuilder) Build(ctx context.Context, p BuildParams) (models.FundRow, error) {
	kf, err := keyfigures.Extract(p.Text)
	if err != nil {
		if b.metrics != nil {
			b.metrics.RecordError("extract")
		}
		return models.FundRow{}, fmt.Errorf("extract %s: %w", p.Source, err)
	}
	rul := b.RULFor(p.Fund)
	if p.RUL != nil {
		rul = *p.RUL
	}
	source := p.Source
	if source == "" {
		source = SourceReport
	}
	return b.compute(ctx, ScenarioParams{Fund: p.Fund, Source: source, RUL: rul, KeyFigures: kf}, SourceReport), nil
}

// Compute builds a fund row from given key figures.
func (b *ReportBuilder) Compute(ctx context.Context, p ScenarioParams) models.FundRow {
	label := p.Source
	if label == "" {
		label = SourceAPI
		p.Source = SourceAPI
	}
	return b.compute(ctx, p, label)
}

// RULFor returns the configured RUL of fund, matched case-insensitively, or 0.
func (b *ReportBuilder) RULFor(fund string) float64 {
	key := strings.ToLower(strings.TrimSpace(fund))
	for name, v := range b.rul {
		if strings.ToLower(name) == key {
			return v
		}
	}
	return 0
}

func (b *ReportBuilder) compute(ctx context.Context, p ScenarioParams, label string) models.FundRow {
	var (
		hedge    models.HedgeConfig
		warnings []models.Warning
	)
	switch {
	case p.Hedge != nil:
		hedge = *p.Hedge
		warnings = scenario.CheckHedge(hedge)
	default:
		costs := b.costs
		if len(p.Costs) > 0 {
			costs = p.Costs
		}
		src := b.weights
		if len(p.Weights) > 0 {
			src = scenario.StaticWeights{Default: p.Weights}
		}
		hedge, warnings = scenario.ResolveHedge(ctx, src, p.Fund, costs)
	}

	for _, w := range warnings {
		if b.l != nil {
			b.l.Warn("fund row warning",
				applogger.String("fund", p.Fund),
				applogger.String("code", string(w.Code)),
				applogger.String("detail", w.Message),
			)
		}
	}
	if b.metrics != nil {
		b.metrics.RecordScenario(label)
	}

	return models.FundRow{
		Fund:              p.Fund,
		Scenarios:         scenario.Compute(p.RUL, p.KeyFigures, hedge),
		KeyFigures:        p.KeyFigures,
		RealizedUnlevered: p.RUL,
		Hedge:             hedge,
		Warnings:          warnings,
		Source:            p.Source,
		UpdatedAt:         b.now().UTC(),
	}
}
