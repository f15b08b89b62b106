package models

import "strings"

// Currency is an ISO 4217 code used for hedge cost and weight lookups.
type Currency string

const (
	USD Currency = "USD"
	GBP Currency = "GBP"
	EUR Currency = "EUR"
)

// HedgeCurrencies are the only currencies that contribute to the weighted hedge cost.
var HedgeCurrencies = []Currency{USD, GBP, EUR}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(s string) Currency {
	return Currency(strings.ToUpper(strings.TrimSpace(s)))
}

// IsHedgeCurrency reports whether c takes part in the hedge cost sum.
func (c Currency) IsHedgeCurrency() bool {
	for _, h := range HedgeCurrencies {
		if c == h {
			return true
		}
	}
	return false
}

// HedgeConfig holds per-currency hedge cost rates and portfolio weights.
// Weights are expected, not enforced, to sum to 1.
type HedgeConfig struct {
	Cost   map[Currency]float64 `json:"cost"`
	Weight map[Currency]float64 `json:"weight"`
}

// KeyFigures are the bond figures extracted from a summary report.
type KeyFigures struct {
	ModifiedDuration float64 `json:"modified_duration"`
	EffectiveYield   float64 `json:"effective_yield"`
	Coupon           float64 `json:"coupon"`
}

// Scenario labels as shown in the fund table.
const (
	LabelHorizonReturn = "hz return"
	Label100bpUp       = "100bp up"
	Label50bpUp        = "50bp up"
	Label50bpDown      = "50bp down"
	Label100bpDown     = "100bp down"
)

// ScenarioLabels lists the shock labels in display order.
var ScenarioLabels = []string{Label100bpUp, Label50bpUp, Label50bpDown, Label100bpDown}

// ScenarioSet is the base horizon return plus the four rate-shock projections.
type ScenarioSet struct {
	HorizonReturn float64 `json:"hz return"`
	Up100         float64 `json:"100bp up"`
	Up50          float64 `json:"50bp up"`
	Down50        float64 `json:"50bp down"`
	Down100       float64 `json:"100bp down"`
}

// Values returns the shocks keyed by label.
func (s ScenarioSet) Values() map[string]float64 {
	return map[string]float64{
		Label100bpUp:   s.Up100,
		Label50bpUp:    s.Up50,
		Label50bpDown:  s.Down50,
		Label100bpDown: s.Down100,
	}
}
