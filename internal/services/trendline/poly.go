package trendline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"SumReport/internal/domain/models"
	applogger "SumReport/pkg/logger"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// polyModel is a polynomial in the normalised variable t = (x-center)/scale.
type polyModel struct {
	coef   []float64 // ascending powers
	center float64
	scale  float64
}

func (p polyModel) eval(x float64) float64 {
	t := (x - p.center) / p.scale
	v := 0.0
	for i := len(p.coef) - 1; i >= 0; i-- {
		v = v*t + p.coef[i]
	}
	return v
}

func fitPoly(x, y models.Series, degree int) (polyModel, error) {
	center := stat.Mean(x, nil)
	scale := math.Max(math.Abs(floats.Max(x)-center), math.Abs(floats.Min(x)-center))
	if scale == 0 {
		scale = 1
	}

	n, cols := len(x), degree+1
	vander := mat.NewDense(n, cols, nil)
	for i, v := range x {
		t := (v - center) / scale
		p := 1.0
		for j := 0; j < cols; j++ {
			vander.Set(i, j, p)
			p *= t
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(vander, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return polyModel{}, fmt.Errorf("poly degree %d: %w", degree, err)
		}
	}
	out := make([]float64, cols)
	for j := range out {
		out[j] = coef.AtVec(j)
		if math.IsNaN(out[j]) || math.IsInf(out[j], 0) {
			return polyModel{}, fmt.Errorf("poly degree %d: non-finite coefficient", degree)
		}
	}
	return polyModel{coef: out, center: center, scale: scale}, nil
}

func meanSquaredError(p polyModel, x, y models.Series) float64 {
	var sum float64
	for i := range x {
		d := p.eval(x[i]) - y[i]
		sum += d * d
	}
	return sum / float64(len(x))
}

func (f *Fitter) poly(x, y models.Series) (models.FitResult, error) {
	if isConstant(x) {
		return models.FitResult{}, &DegenerateInputError{Method: MethodPoly}
	}
	maxDegree := min(MaxPolyDegree, distinctCount(x)-1)

	// A higher degree must beat the current best by more than rounding noise,
	// so ties keep the lower degree.
	yVar := stat.Variance(y, nil)
	bestDegree, bestMSE := 0, math.Inf(1)
	for degree := 1; degree <= maxDegree; degree++ {
		p, err := fitPoly(x, y, degree)
		if err != nil {
			if bestDegree == 0 {
				return models.FitResult{}, err
			}
			break
		}
		mse := meanSquaredError(p, x, y)
		if bestDegree == 0 || mse < bestMSE-math.Max(bestMSE*1e-9, yVar*1e-12) {
			bestDegree, bestMSE = degree, mse
		}
	}

	best, err := fitPoly(x, y, bestDegree)
	if err != nil {
		return models.FitResult{}, err
	}

	yMean := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i := range x {
		r := y[i] - best.eval(x[i])
		d := y[i] - yMean
		ssRes += r * r
		ssTot += d * d
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = math.Max(0, math.Min(1, 1-ssRes/ssTot))
	}

	if f.l != nil {
		f.l.Debug("poly fit",
			applogger.Int("degree", bestDegree),
			applogger.Float64("mse", bestMSE),
			applogger.Float64("r_squared", r2),
		)
	}

	xs := linspace(x)
	ys := make(models.Series, len(xs))
	for i, v := range xs {
		ys[i] = best.eval(v)
	}
	return models.FitResult{
		PredictedX: xs,
		PredictedY: ys,
		Summary:    fmt.Sprintf("Best degree: %d \nR^2: %.2f", bestDegree, r2),
		Stats:      &models.FitStats{Degree: bestDegree, MSE: bestMSE, RSquared: r2},
	}, nil
}

func distinctCount(x models.Series) int {
	s := append(models.Series(nil), x...)
	sort.Float64s(s)
	n := 1
	for i := 1; i < len(s); i++ {
		if s[i] != s[i-1] {
			n++
		}
	}
	return n
}
