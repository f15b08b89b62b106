package scenario

import "SumReport/internal/domain/models"

// rulScale converts the realized-unlevered figure to the yield unit.
const rulScale = 100000

// HorizonReturn is effective yield plus the RUL contribution minus the
// weighted hedge cost.
func HorizonReturn(rul, effectiveYield, modifiedDuration float64, hedge models.HedgeConfig) float64 {
	return effectiveYield + rul*(modifiedDuration-1)/rulScale - WeightedHedgeCost(hedge)
}

// WeightedHedgeCost sums cost*weight over USD, GBP and EUR only. Currencies
// missing from either map contribute nothing.
func WeightedHedgeCost(hedge models.HedgeConfig) float64 {
	var sum float64
	for _, c := range models.HedgeCurrencies {
		sum += hedge.Cost[c] * hedge.Weight[c]
	}
	return sum
}

// Scenarios shocks hz by ±100bp (dur/100) and ±50bp (dur/50).
func Scenarios(hz, modifiedDuration float64) models.ScenarioSet {
	return models.ScenarioSet{
		HorizonReturn: hz,
		Up100:         hz + modifiedDuration/100,
		Up50:          hz + modifiedDuration/50,
		Down50:        hz - modifiedDuration/50,
		Down100:       hz - modifiedDuration/100,
	}
}

// Compute returns the horizon return and its scenarios for one set of key figures.
func Compute(rul float64, kf models.KeyFigures, hedge models.HedgeConfig) models.ScenarioSet {
	hz := HorizonReturn(rul, kf.EffectiveYield, kf.ModifiedDuration, hedge)
	return Scenarios(hz, kf.ModifiedDuration)
}
