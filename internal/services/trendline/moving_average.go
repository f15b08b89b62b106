package trendline

import (
	"fmt"

	"SumReport/internal/domain/models"

	"gonum.org/v1/gonum/floats"
)

// movingAverage uses full windows only, so the output is window-1 points
// shorter than y. The x axis is the head of the original x.
func movingAverage(x, y models.Series, window int) (models.FitResult, error) {
	if len(y) < window {
		return models.FitResult{}, &InsufficientDataError{Need: window, Got: len(y)}
	}
	ys := make(models.Series, len(y)-window+1)
	for i := range ys {
		ys[i] = floats.Sum(y[i:i+window]) / float64(window)
	}
	xs := append(models.Series(nil), x[:len(ys)]...)
	return models.FitResult{
		PredictedX: xs,
		PredictedY: ys,
		Summary:    fmt.Sprintf("Moving Average: \n  %d points", window),
		Stats:      &models.FitStats{Window: window},
	}, nil
}
