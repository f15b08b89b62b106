package trendline

import (
	"SumReport/internal/domain/models"
	applogger "SumReport/pkg/logger"

	"gonum.org/v1/gonum/floats"
)

const (
	// PredictionPoints is the number of evenly spaced points produced by ols and poly.
	PredictionPoints = 100
	// MovingAverageWindow is the fixed smoothing window.
	MovingAverageWindow = 10
	// MaxPolyDegree bounds the polynomial degree search.
	MaxPolyDegree = 5
)

// Fitter computes trendlines. It holds no per-call state and is safe for concurrent use.
type Fitter struct {
	l *applogger.Logger
}

// Option configures Fitter.
type Option func(*Fitter)

// WithLogger logs fit statistics at debug level.
func WithLogger(l *applogger.Logger) Option {
	return func(f *Fitter) { f.l = l }
}

// NewFitter creates a Fitter.
func NewFitter(opts ...Option) *Fitter {
	f := &Fitter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FitByName parses the method name, aligns the series and fits.
func (f *Fitter) FitByName(x, y models.Series, name string) (models.FitResult, error) {
	m, err := ParseMethod(name)
	if err != nil {
		return models.FitResult{}, err
	}
	return f.Fit(x, y, m)
}

// Fit aligns x and y (non-finite values dropped, truncated to the shorter
// series) and fits with method m.
func (f *Fitter) Fit(x, y models.Series, m Method) (models.FitResult, error) {
	ax, ay := Align(x, y)
	if len(x) != len(y) && f.l != nil {
		f.l.Debug("trendline series truncated",
			applogger.Int("x_len", len(x)),
			applogger.Int("y_len", len(y)),
			applogger.Int("aligned_len", len(ax)),
		)
	}
	return f.FitAligned(ax, ay, m)
}

// FitAligned fits series that are already finite and of equal length.
func (f *Fitter) FitAligned(x, y models.Series, m Method) (models.FitResult, error) {
	if len(x) == 0 {
		return models.FitResult{}, &EmptyInputError{Axis: "x"}
	}
	if len(y) == 0 {
		return models.FitResult{}, &EmptyInputError{Axis: "y"}
	}
	if len(x) != len(y) {
		return models.FitResult{}, &LengthMismatchError{X: len(x), Y: len(y)}
	}

	var (
		res models.FitResult
		err error
	)
	switch m {
	case MethodOLS:
		res, err = f.ols(x, y)
	case MethodPoly:
		res, err = f.poly(x, y)
	case MethodMovingAverage:
		res, err = movingAverage(x, y, MovingAverageWindow)
	default:
		return models.FitResult{}, &InvalidMethodError{Method: m.String()}
	}
	if err != nil {
		return models.FitResult{}, err
	}
	res.Method = m.String()
	return res, nil
}

// linspace returns PredictionPoints values over [min x, max x], both ends included exactly.
func linspace(x models.Series) models.Series {
	lo, hi := floats.Min(x), floats.Max(x)
	out := floats.Span(make([]float64, PredictionPoints), lo, hi)
	out[0], out[len(out)-1] = lo, hi
	return out
}

func isConstant(x models.Series) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
