package scenario

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"SumReport/internal/domain/models"
)

var ErrNoWeights = errors.New("scenario: no hedge weights")

// weightSumTolerance is how far the weights may drift from 1 before a warning.
const weightSumTolerance = 1e-6

// DefaultHedgeCosts returns the standard hedge cost rates.
func DefaultHedgeCosts() map[models.Currency]float64 {
	return map[models.Currency]float64{
		models.USD: 0.025,
		models.GBP: 0.02,
		models.EUR: 0,
	}
}

// FallbackWeights is the allocation assumed when no weights are known: 100% USD.
func FallbackWeights() map[models.Currency]float64 {
	return map[models.Currency]float64{
		models.USD: 1,
		models.GBP: 0,
		models.EUR: 0,
	}
}

// WeightSource looks up the currency allocation of a fund.
type WeightSource interface {
	Weights(ctx context.Context, fund string) (map[models.Currency]float64, error)
}

// StaticWeights serves weights from configuration. Fund names match
// case-insensitively; Default applies to funds without an entry.
type StaticWeights struct {
	ByFund  map[string]map[models.Currency]float64
	Default map[models.Currency]float64
}

func (s StaticWeights) Weights(_ context.Context, fund string) (map[models.Currency]float64, error) {
	key := strings.ToLower(strings.TrimSpace(fund))
	for name, w := range s.ByFund {
		if strings.ToLower(name) == key && len(w) > 0 {
			return w, nil
		}
	}
	if len(s.Default) > 0 {
		return s.Default, nil
	}
	return nil, fmt.Errorf("fund %q: %w", fund, ErrNoWeights)
}

// ResolveHedge combines costs with the fund's weights. A failed lookup falls
// back to FallbackWeights and reports a WEIGHT_FALLBACK warning.
func ResolveHedge(ctx context.Context, src WeightSource, fund string, costs map[models.Currency]float64) (models.HedgeConfig, []models.Warning) {
	var warnings []models.Warning
	if costs == nil {
		costs = DefaultHedgeCosts()
	}

	var (
		weights map[models.Currency]float64
		err     error
	)
	if src == nil {
		err = ErrNoWeights
	} else {
		weights, err = src.Weights(ctx, fund)
	}
	if err != nil || len(weights) == 0 {
		reason := "no weight data"
		if err != nil {
			reason = err.Error()
		}
		warnings = append(warnings, models.Warning{
			Code:    models.WarnWeightFallback,
			Message: fmt.Sprintf("no hedge weights for %q (%s): defaulting to 100%% USD", fund, reason),
		})
		weights = FallbackWeights()
	}

	hedge := models.HedgeConfig{Cost: copyRates(costs), Weight: copyRates(weights)}
	return hedge, append(warnings, CheckHedge(hedge)...)
}

// CheckHedge reports weights that do not sum to 1 and currencies that are
// ignored by the cost sum.
func CheckHedge(hedge models.HedgeConfig) []models.Warning {
	var warnings []models.Warning

	var sum float64
	for _, w := range hedge.Weight {
		sum += w
	}
	if math.Abs(sum-1) > weightSumTolerance {
		warnings = append(warnings, models.Warning{
			Code:    models.WarnWeightSum,
			Message: fmt.Sprintf("hedge weights sum to %.4f, expected 1", sum),
		})
	}

	seen := map[models.Currency]bool{}
	var ignored []string
	for _, m := range []map[models.Currency]float64{hedge.Cost, hedge.Weight} {
		for c := range m {
			if !c.IsHedgeCurrency() && !seen[c] {
				seen[c] = true
				ignored = append(ignored, string(c))
			}
		}
	}
	if len(ignored) > 0 {
		sort.Strings(ignored)
		warnings = append(warnings, models.Warning{
			Code:    models.WarnUnknownCurrency,
			Message: fmt.Sprintf("currencies ignored in hedge cost: %s", strings.Join(ignored, ", ")),
		})
	}
	return warnings
}

func copyRates(in map[models.Currency]float64) map[models.Currency]float64 {
	out := make(map[models.Currency]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
