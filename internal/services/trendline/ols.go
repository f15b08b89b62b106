package trendline

import (
	"fmt"
	"math"

	"SumReport/internal/domain/models"
	applogger "SumReport/pkg/logger"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

func (f *Fitter) ols(x, y models.Series) (models.FitResult, error) {
	if isConstant(x) {
		return models.FitResult{}, &DegenerateInputError{Method: MethodOLS}
	}
	intercept, slope := stat.LinearRegression(x, y, nil, false)
	st := regressionStats(x, y, intercept, slope)

	if f.l != nil {
		f.l.Debug("ols fit",
			applogger.Float64("slope", slope),
			applogger.Float64("intercept", intercept),
			applogger.Float64("r_squared", st.RSquared),
			applogger.Float64("p_value", st.PValue),
			applogger.Float64("std_err", st.StdErr),
		)
	}

	xs := linspace(x)
	ys := make(models.Series, len(xs))
	for i, v := range xs {
		ys[i] = intercept + slope*v
	}
	return models.FitResult{
		PredictedX: xs,
		PredictedY: ys,
		Summary:    fmt.Sprintf("Slope: %.2f \nIntercept: %.2f", slope, intercept),
		Stats:      st,
	}, nil
}

// regressionStats follows scipy's linregress conventions: a constant y gives
// r=0 and p=1, an exact fit gives a zero standard error.
func regressionStats(x, y models.Series, intercept, slope float64) *models.FitStats {
	n := len(x)
	xMean := stat.Mean(x, nil)
	yMean := stat.Mean(y, nil)

	var sxx, syy, sse float64
	for i := range x {
		dx, dy := x[i]-xMean, y[i]-yMean
		sxx += dx * dx
		syy += dy * dy
		r := y[i] - (intercept + slope*x[i])
		sse += r * r
	}

	st := &models.FitStats{Slope: slope, Intercept: intercept}
	if syy > 0 {
		st.RSquared = math.Max(0, math.Min(1, 1-sse/syy))
	}

	df := float64(n - 2)
	if df > 0 {
		st.StdErr = math.Sqrt(sse / df / sxx)
	}
	switch {
	case st.StdErr > 0:
		t := slope / st.StdErr
		st.PValue = 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.CDF(-math.Abs(t))
	case slope == 0:
		st.PValue = 1
	default:
		st.PValue = 0
	}
	return st
}
