package trendline

import (
	"errors"
	"math"
	"testing"

	"SumReport/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(from, to int) models.Series {
	out := make(models.Series, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, float64(i))
	}
	return out
}

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Method
	}{
		{"lower ols", "ols", MethodOLS},
		{"upper ols", "OLS", MethodOLS},
		{"mixed poly", "Poly", MethodPoly},
		{"moving average padded", "  Moving Average ", MethodMovingAverage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMethod(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMethodInvalid(t *testing.T) {
	_, err := ParseMethod("bogus")
	require.Error(t, err)

	var ime *InvalidMethodError
	require.True(t, errors.As(err, &ime))
	assert.Equal(t, "bogus", ime.Method)
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestFitByNameInvalidMethod(t *testing.T) {
	res, err := NewFitter().FitByName(seq(1, 10), seq(1, 10), "bogus")
	assert.ErrorIs(t, err, ErrInvalidMethod)
	assert.Empty(t, res.PredictedX)
	assert.Empty(t, res.Summary)
}

func TestFitAlignedUnknownMethodValue(t *testing.T) {
	_, err := NewFitter().FitAligned(seq(1, 3), seq(1, 3), Method(42))
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestOLSExactLine(t *testing.T) {
	x := seq(1, 10)
	y := make(models.Series, len(x))
	for i, v := range x {
		y[i] = 2*v + 1
	}

	res, err := NewFitter().Fit(x, y, MethodOLS)
	require.NoError(t, err)

	require.Len(t, res.PredictedX, PredictionPoints)
	require.Len(t, res.PredictedY, PredictionPoints)
	assert.Equal(t, 1.0, res.PredictedX[0])
	assert.Equal(t, 10.0, res.PredictedX[PredictionPoints-1])
	assert.InDelta(t, 3.0, res.PredictedY[0], 1e-9)
	assert.InDelta(t, 21.0, res.PredictedY[PredictionPoints-1], 1e-9)
	assert.Equal(t, "Slope: 2.00 \nIntercept: 1.00", res.Summary)
	assert.Equal(t, "ols", res.Method)

	require.NotNil(t, res.Stats)
	assert.InDelta(t, 2.0, res.Stats.Slope, 1e-9)
	assert.InDelta(t, 1.0, res.Stats.Intercept, 1e-9)
	assert.InDelta(t, 1.0, res.Stats.RSquared, 1e-9)
	assert.InDelta(t, 0.0, res.Stats.PValue, 1e-9)
}

func TestOLSNoisyStats(t *testing.T) {
	x := models.Series{1, 2, 3, 4, 5, 6, 7, 8}
	y := models.Series{2.1, 3.9, 6.2, 7.8, 10.1, 12.2, 13.8, 16.1}

	res, err := NewFitter().Fit(x, y, MethodOLS)
	require.NoError(t, err)
	require.NotNil(t, res.Stats)

	assert.InDelta(t, 1.9976190476, res.Stats.Slope, 1e-8)
	assert.InDelta(t, 0.0357142857, res.Stats.Intercept, 1e-8)
	assert.InDelta(t, 0.9988392866, res.Stats.RSquared, 1e-8)
	assert.InDelta(t, 0.0278004443, res.Stats.StdErr, 1e-8)
	assert.Less(t, res.Stats.PValue, 1e-6)
	assert.Equal(t, "Slope: 2.00 \nIntercept: 0.04", res.Summary)
}

func TestOLSConstantY(t *testing.T) {
	res, err := NewFitter().Fit(seq(1, 5), models.Series{3, 3, 3, 3, 3}, MethodOLS)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Stats.RSquared)
	assert.Equal(t, 1.0, res.Stats.PValue)
	assert.InDelta(t, 3.0, res.Stats.Intercept, 1e-12)
}

func TestOLSPredictionSpansRange(t *testing.T) {
	x := models.Series{5, -3, 12, 0.5, 7}
	y := models.Series{1, 2, 3, 4, 5}

	res, err := NewFitter().Fit(x, y, MethodOLS)
	require.NoError(t, err)
	require.Len(t, res.PredictedX, PredictionPoints)
	assert.Equal(t, -3.0, res.PredictedX[0])
	assert.Equal(t, 12.0, res.PredictedX[PredictionPoints-1])
	for i := 1; i < len(res.PredictedX); i++ {
		assert.Greater(t, res.PredictedX[i], res.PredictedX[i-1])
	}
}

func TestDegenerateX(t *testing.T) {
	x := models.Series{2, 2, 2, 2}
	y := models.Series{1, 2, 3, 4}
	for _, m := range []Method{MethodOLS, MethodPoly} {
		t.Run(m.String(), func(t *testing.T) {
			_, err := NewFitter().Fit(x, y, m)
			assert.ErrorIs(t, err, ErrDegenerateInput)
		})
	}
}

func TestPolyPicksQuadratic(t *testing.T) {
	x := seq(-5, 5)
	y := make(models.Series, len(x))
	for i, v := range x {
		y[i] = 0.5*v*v - v + 2
	}

	res, err := NewFitter().Fit(x, y, MethodPoly)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Stats.Degree)
	assert.Equal(t, "Best degree: 2 \nR^2: 1.00", res.Summary)
	require.Len(t, res.PredictedX, PredictionPoints)
	assert.Len(t, res.PredictedY, PredictionPoints)
	assert.InDelta(t, 19.5, res.PredictedY[0], 1e-6)
	assert.InDelta(t, 9.5, res.PredictedY[PredictionPoints-1], 1e-6)
}

func TestPolyLinearKeepsLowestDegree(t *testing.T) {
	x := seq(0, 20)
	y := make(models.Series, len(x))
	for i, v := range x {
		y[i] = 3*v - 4
	}

	res, err := NewFitter().Fit(x, y, MethodPoly)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Degree)
}

func TestPolyDeterministic(t *testing.T) {
	x := models.Series{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	y := models.Series{1.2, 0.7, 2.9, 3.1, 6.4, 5.2, 9.8, 8.1, 12.5, 11.9}
	f := NewFitter()

	first, err := f.Fit(x, y, MethodPoly)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := f.Fit(x, y, MethodPoly)
		require.NoError(t, err)
		assert.Equal(t, first.Stats.Degree, again.Stats.Degree)
		assert.Equal(t, first.Summary, again.Summary)
	}
	assert.GreaterOrEqual(t, first.Stats.Degree, 1)
	assert.LessOrEqual(t, first.Stats.Degree, MaxPolyDegree)
}

func TestPolyDegreeBoundedByPoints(t *testing.T) {
	res, err := NewFitter().Fit(models.Series{1, 2, 3}, models.Series{1, 4, 9}, MethodPoly)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Stats.Degree, 2)
	assert.False(t, math.IsNaN(res.Stats.RSquared))
}

func TestMovingAverage(t *testing.T) {
	x := seq(1, 20)
	res, err := NewFitter().Fit(x, x, MethodMovingAverage)
	require.NoError(t, err)

	require.Len(t, res.PredictedY, len(x)-9)
	require.Len(t, res.PredictedX, len(res.PredictedY))
	assert.InDelta(t, 5.5, res.PredictedY[0], 1e-12)
	assert.InDelta(t, 15.5, res.PredictedY[len(res.PredictedY)-1], 1e-12)
	assert.Equal(t, x[:11], res.PredictedX)
	assert.Equal(t, "Moving Average: \n  10 points", res.Summary)
}

func TestMovingAverageWindowMeans(t *testing.T) {
	y := models.Series{4, 8, 15, 16, 23, 42, 4, 8, 15, 16, 23, 42}
	x := seq(1, len(y))
	res, err := NewFitter().Fit(x, y, MethodMovingAverage)
	require.NoError(t, err)
	require.Len(t, res.PredictedY, 3)
	for i, got := range res.PredictedY {
		var sum float64
		for _, v := range y[i : i+10] {
			sum += v
		}
		assert.InDelta(t, sum/10, got, 1e-12)
	}
}

func TestMovingAverageTooShort(t *testing.T) {
	_, err := NewFitter().Fit(seq(1, 9), seq(1, 9), MethodMovingAverage)
	var ide *InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 10, ide.Need)
	assert.Equal(t, 9, ide.Got)
}

func TestFitTruncatesMismatchedLengths(t *testing.T) {
	x := seq(1, 10)
	y := models.Series{2, 4, 6, 8, 10, 12, 14, 16}

	res, err := NewFitter().Fit(x, y, MethodOLS)
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.PredictedX[0])
	assert.Equal(t, 8.0, res.PredictedX[PredictionPoints-1])
	assert.InDelta(t, 2.0, res.Stats.Slope, 1e-9)
}

func TestFitEmptyInput(t *testing.T) {
	f := NewFitter()

	_, err := f.Fit(nil, seq(1, 3), MethodOLS)
	var eie *EmptyInputError
	require.True(t, errors.As(err, &eie))

	_, err = f.Fit(seq(1, 3), models.Series{math.NaN(), math.NaN()}, MethodOLS)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestFitAlignedLengthMismatch(t *testing.T) {
	_, err := NewFitter().FitAligned(seq(1, 10), seq(1, 8), MethodOLS)
	var lme *LengthMismatchError
	require.True(t, errors.As(err, &lme))
	assert.Equal(t, 10, lme.X)
	assert.Equal(t, 8, lme.Y)
}
