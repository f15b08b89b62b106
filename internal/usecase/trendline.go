package usecase

import (
	"context"
	"fmt"
	"time"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
	"SumReport/internal/services/trendline"
)

// TrendlineService fits one trendline per y series against a shared x.
type TrendlineService struct {
	fitter  *trendline.Fitter
	metrics domrepo.Metrics
}

func NewTrendlineService(fitter *trendline.Fitter, metrics domrepo.Metrics) *TrendlineService {
	return &TrendlineService{fitter: fitter, metrics: metrics}
}

type FitParams struct {
	X      models.Series
	Ys     []models.Series
	Method string
	// Percent scales y values by 100 before fitting.
	Percent bool
}

// Fit aligns all series to a common length and fits each y. The first
// failing series aborts with its index in the error.
func (s *TrendlineService) Fit(ctx context.Context, p FitParams) ([]models.FitResult, error) {
	m, err := trendline.ParseMethod(p.Method)
	if err != nil {
		s.record(p.Method, false)
		return nil, err
	}
	if len(p.Ys) == 0 {
		s.record(m.String(), false)
		return nil, &trendline.EmptyInputError{Axis: "y"}
	}

	start := time.Now()
	x, ys := trendline.AlignMany(p.X, p.Ys)
	out := make([]models.FitResult, 0, len(ys))
	for i, y := range ys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Percent {
			y = trendline.ScalePercent(y)
		}
		res, err := s.fitter.FitAligned(x, y, m)
		if err != nil {
			s.record(m.String(), false)
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
		s.record(m.String(), true)
		out = append(out, res)
	}
	if s.metrics != nil {
		s.metrics.RecordLatency("trendline_fit", time.Since(start).Seconds())
	}
	return out, nil
}

func (s *TrendlineService) record(method string, ok bool) {
	if s.metrics != nil {
		s.metrics.RecordFit(method, ok)
	}
}
