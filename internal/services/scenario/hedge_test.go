package scenario

import (
	"context"
	"errors"
	"testing"

	"SumReport/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSource struct{}

func (failingSource) Weights(context.Context, string) (map[models.Currency]float64, error) {
	return nil, errors.New("lookup down")
}

func codes(ws []models.Warning) []models.WarningCode {
	out := make([]models.WarningCode, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

func TestResolveHedgeFallbackIsReported(t *testing.T) {
	for name, src := range map[string]WeightSource{
		"nil source":     nil,
		"failing source": failingSource{},
		"unknown fund":   StaticWeights{ByFund: map[string]map[models.Currency]float64{"Other": {models.EUR: 1}}},
	} {
		t.Run(name, func(t *testing.T) {
			hedge, warnings := ResolveHedge(context.Background(), src, "Global Bond", nil)

			assert.Equal(t, FallbackWeights(), hedge.Weight)
			assert.Equal(t, DefaultHedgeCosts(), hedge.Cost)
			require.Len(t, warnings, 1)
			assert.Equal(t, models.WarnWeightFallback, warnings[0].Code)
			assert.Contains(t, warnings[0].Message, "Global Bond")
			assert.InDelta(t, 0.025, WeightedHedgeCost(hedge), 1e-12)
		})
	}
}

func TestResolveHedgeStaticWeights(t *testing.T) {
	src := StaticWeights{ByFund: map[string]map[models.Currency]float64{
		"Global Bond": {models.USD: 0.6, models.EUR: 0.4},
	}}

	hedge, warnings := ResolveHedge(context.Background(), src, "global bond ", nil)
	assert.Empty(t, warnings)
	assert.InDelta(t, 0.6, hedge.Weight[models.USD], 1e-12)
	assert.InDelta(t, 0.025*0.6, WeightedHedgeCost(hedge), 1e-12)
}

func TestResolveHedgeDefaultWeights(t *testing.T) {
	src := StaticWeights{Default: map[models.Currency]float64{models.GBP: 1}}

	hedge, warnings := ResolveHedge(context.Background(), src, "Any", map[models.Currency]float64{models.GBP: 0.01})
	assert.Empty(t, warnings)
	assert.InDelta(t, 0.01, WeightedHedgeCost(hedge), 1e-12)
}

func TestCheckHedge(t *testing.T) {
	hedge := models.HedgeConfig{
		Cost:   map[models.Currency]float64{models.USD: 0.025, "JPY": 0.01},
		Weight: map[models.Currency]float64{models.USD: 0.5, "CHF": 0.2},
	}
	warnings := CheckHedge(hedge)
	assert.Equal(t, []models.WarningCode{models.WarnWeightSum, models.WarnUnknownCurrency}, codes(warnings))
	assert.Contains(t, warnings[1].Message, "CHF, JPY")
}

func TestResolveHedgeCopiesMaps(t *testing.T) {
	costs := DefaultHedgeCosts()
	hedge, _ := ResolveHedge(context.Background(), nil, "X", costs)
	hedge.Cost[models.USD] = 1
	assert.InDelta(t, 0.025, costs[models.USD], 1e-12)
}
