package trendline

import (
	"math"

	"SumReport/internal/domain/models"
)

// Align drops non-finite values from each series and truncates both to the
// shorter length. Inputs are not modified.
func Align(x, y models.Series) (models.Series, models.Series) {
	fx, fy := finite(x), finite(y)
	n := min(len(fx), len(fy))
	return fx[:n], fy[:n]
}

// AlignMany aligns one x series against several y series. Every series is
// truncated to the shortest length found after filtering.
func AlignMany(x models.Series, ys []models.Series) (models.Series, []models.Series) {
	fx := finite(x)
	n := len(fx)
	out := make([]models.Series, len(ys))
	for i, y := range ys {
		out[i] = finite(y)
		n = min(n, len(out[i]))
	}
	for i := range out {
		out[i] = out[i][:n]
	}
	return fx[:n], out
}

// ScalePercent returns y multiplied by 100.
func ScalePercent(y models.Series) models.Series {
	out := make(models.Series, len(y))
	for i, v := range y {
		out[i] = v * 100
	}
	return out
}

func finite(s models.Series) models.Series {
	out := make(models.Series, 0, len(s))
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
