package usecase

import (
	"context"
	"errors"
	"testing"

	"SumReport/internal/domain/models"
	"SumReport/internal/services/keyfigures"
	"SumReport/internal/services/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usdOnly() scenario.StaticWeights {
	return scenario.StaticWeights{Default: map[models.Currency]float64{models.USD: 1}}
}

func TestReportBuilder_Build(t *testing.T) {
	m := newCountingMetrics()
	b := NewReportBuilder(usdOnly(), WithBuilderMetrics(m), WithFundRUL(map[string]float64{"alpha": 1000}))

	row, err := b.Build(context.Background(), BuildParams{Fund: "Alpha", Source: "Summary-Alpha.txt", Text: reportText})
	require.NoError(t, err)

	assert.Equal(t, "Alpha", row.Fund)
	assert.Equal(t, "Summary-Alpha.txt", row.Source)
	assert.Equal(t, 1000.0, row.RealizedUnlevered)
	assert.InDelta(t, 5.1234, row.KeyFigures.ModifiedDuration, 1e-12)

	// 4.75 + 1000*(5.1234-1)/100000 - 0.025
	wantHz := 4.75 + 1000*(5.1234-1)/100000 - 0.025
	assert.InDelta(t, wantHz, row.Scenarios.HorizonReturn, 1e-12)
	assert.InDelta(t, wantHz+5.1234/100, row.Scenarios.Up100, 1e-12)
	assert.Empty(t, row.Warnings)
	assert.Equal(t, 1, m.scenarios[SourceReport])
}

func TestReportBuilder_BuildExplicitRUL(t *testing.T) {
	b := NewReportBuilder(usdOnly(), WithFundRUL(map[string]float64{"Alpha": 1000}))
	rul := 0.0
	row, err := b.Build(context.Background(), BuildParams{Fund: "Alpha", Text: reportText, RUL: &rul})
	require.NoError(t, err)
	assert.Equal(t, 0.0, row.RealizedUnlevered)
	assert.Equal(t, SourceReport, row.Source)
}

func TestReportBuilder_BuildMissingFigure(t *testing.T) {
	m := newCountingMetrics()
	b := NewReportBuilder(usdOnly(), WithBuilderMetrics(m))
	_, err := b.Build(context.Background(), BuildParams{Fund: "Alpha", Text: "nothing here"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, keyfigures.ErrMissingFigure))
	assert.Equal(t, 1, m.errors["extract"])
}

func TestReportBuilder_ComputeFallbackWarning(t *testing.T) {
	b := NewReportBuilder(scenario.StaticWeights{})
	row := b.Compute(context.Background(), ScenarioParams{
		Fund:       "Gamma",
		KeyFigures: models.KeyFigures{ModifiedDuration: 5, EffectiveYield: 0.03},
	})
	require.NotEmpty(t, row.Warnings)
	assert.Equal(t, models.WarnWeightFallback, row.Warnings[0].Code)
	assert.Equal(t, SourceAPI, row.Source)
	assert.InDelta(t, 0.005, row.Scenarios.HorizonReturn, 1e-12)
}

func TestReportBuilder_ComputeOverrides(t *testing.T) {
	b := NewReportBuilder(usdOnly())
	row := b.Compute(context.Background(), ScenarioParams{
		Fund:       "Alpha",
		KeyFigures: models.KeyFigures{ModifiedDuration: 5, EffectiveYield: 0.03},
		Costs:      map[models.Currency]float64{models.GBP: 0.02},
		Weights:    map[models.Currency]float64{models.GBP: 1},
	})
	assert.InDelta(t, 0.01, row.Scenarios.HorizonReturn, 1e-12)
	assert.Empty(t, row.Warnings)
}

func TestReportBuilder_ComputeWithHedge(t *testing.T) {
	b := NewReportBuilder(usdOnly())
	hedge := models.HedgeConfig{
		Cost:   map[models.Currency]float64{models.USD: 0.025},
		Weight: map[models.Currency]float64{models.USD: 0.5},
	}
	row := b.Compute(context.Background(), ScenarioParams{Fund: "Alpha", Hedge: &hedge})
	require.Len(t, row.Warnings, 1)
	assert.Equal(t, models.WarnWeightSum, row.Warnings[0].Code)
}

func TestReportBuilder_RULFor(t *testing.T) {
	b := NewReportBuilder(nil, WithFundRUL(map[string]float64{"Alpha Fund": 12}))
	assert.Equal(t, 12.0, b.RULFor(" alpha fund "))
	assert.Equal(t, 0.0, b.RULFor("beta"))
}
