package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"SumReport/internal/domain/models"
	domrepo "SumReport/internal/domain/repository"
	"SumReport/internal/service/export"
	"SumReport/internal/service/metrics"
	"SumReport/internal/services/trendline"
	"SumReport/internal/usecase"
	xhttp "SumReport/pkg/http"
	xlogger "SumReport/pkg/logger"
	"SumReport/pkg/queue"
	"SumReport/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	historyLookback = 90 * 24 * time.Hour
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var registerOnce sync.Once

func registerValidations() {
	registerOnce.Do(func() {
		_ = xhttp.RegisterValidation("method", func(v string) bool {
			_, err := trendline.ParseMethod(v)
			return err == nil
		}, "%s must be one of: ols, poly, moving average")
	})
}

// ReportEchoHandler serves the trendline, scenario and fund table endpoints.
type ReportEchoHandler struct {
	logger  *xlogger.Logger
	trends  *usecase.TrendlineService
	builder *usecase.ReportBuilder
	table   *usecase.FundTable
	jobs    queue.Publisher
	refresh time.Duration
}

// NewReportEchoHandler creates the handler. jobs may be nil; async refreshes
// then run in a background goroutine bounded by refreshTimeout.
func NewReportEchoHandler(logger *xlogger.Logger, trends *usecase.TrendlineService, builder *usecase.ReportBuilder,
	table *usecase.FundTable, jobs queue.Publisher, refreshTimeout time.Duration) *ReportEchoHandler {
	registerValidations()
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	if refreshTimeout <= 0 {
		refreshTimeout = 5 * time.Minute
	}
	return &ReportEchoHandler{logger: logger, trends: trends, builder: builder, table: table, jobs: jobs, refresh: refreshTimeout}
}

func (h *ReportEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/trendline", h.Trendline)
	g.POST("/scenarios", h.Scenario)
	g.GET("/funds", h.Funds)
	g.POST("/funds/refresh", h.Refresh)
	g.GET("/funds/export.xlsx", h.Export)
	g.PUT("/funds/:fund", h.UpdateRow)
	g.GET("/funds/:fund/history", h.History)
}

func (h *ReportEchoHandler) Trendline(c echo.Context) error {
	defer metrics.Observe("trendline", time.Now())
	req := &models.TrendlineRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.Fail("trendline", "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}

	ys := make([]models.Series, len(req.Ys))
	for i, y := range req.Ys {
		ys[i] = y
	}
	res, err := h.trends.Fit(c.Request().Context(), usecase.FitParams{
		X:       req.X,
		Ys:      ys,
		Method:  req.Method,
		Percent: req.Percent,
	})
	if err != nil {
		return h.fail(c, "trendline", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ReportEchoHandler) Scenario(c echo.Context) error {
	defer metrics.Observe("scenarios", time.Now())
	req := &models.ScenarioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.Fail("scenarios", "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}

	row := h.builder.Compute(c.Request().Context(), usecase.ScenarioParams{
		Fund: req.Fund,
		RUL:  req.RUL,
		KeyFigures: models.KeyFigures{
			ModifiedDuration: req.ModifiedDuration,
			EffectiveYield:   req.EffectiveYield,
			Coupon:           req.Coupon,
		},
		Costs:   currencyMap(req.Costs),
		Weights: currencyMap(req.Weights),
	})
	return xhttp.SuccessResponse(c, row)
}

func (h *ReportEchoHandler) Funds(c echo.Context) error {
	defer metrics.Observe("funds", time.Now())
	tbl, err := h.table.Stored(c.Request().Context())
	if err != nil {
		return h.fail(c, "funds", err)
	}
	return xhttp.SuccessResponse(c, tbl)
}

func (h *ReportEchoHandler) Refresh(c echo.Context) error {
	defer metrics.Observe("refresh", time.Now())
	req := &models.RefreshRequest{}
	if err := echo.QueryParamsBinder(c).Bool("async", &req.Async).BindError(); err != nil {
		metrics.Fail("refresh", "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_BIND",
			Field:   "async",
			Message: "async must be a boolean",
		}})
	}

	if !req.Async {
		tbl, err := h.table.Refresh(c.Request().Context())
		if err != nil {
			return h.fail(c, "refresh", err)
		}
		return xhttp.SuccessResponse(c, tbl)
	}

	if h.jobs != nil {
		payload := usecase.RefreshRequest{RequestedBy: c.RealIP()}
		if err := h.jobs.PublishMessage(c.Request().Context(), usecase.JobTypeTableRefresh, payload); err != nil {
			return h.fail(c, "refresh", err)
		}
		return xhttp.AcceptedResponse(c, map[string]interface{}{"queued": true})
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.refresh)
		defer cancel()
		if _, err := h.table.Refresh(ctx); err != nil {
			h.logger.Error("background refresh failed", xlogger.Error(err))
		}
	}()
	return xhttp.AcceptedResponse(c, map[string]interface{}{"queued": false})
}

func (h *ReportEchoHandler) UpdateRow(c echo.Context) error {
	defer metrics.Observe("update_row", time.Now())
	req := &models.RowPatch{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.Fail("update_row", "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}
	row, err := h.table.UpdateRow(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "update_row", err)
	}
	return xhttp.SuccessResponse(c, row)
}

func (h *ReportEchoHandler) History(c echo.Context) error {
	defer metrics.Observe("history", time.Now())
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		metrics.Fail("history", "ERR_VALIDATION")
		return xhttp.BadRequestResponse(c, verr)
	}

	var from, to time.Time
	for _, b := range []struct {
		field, raw string
		dst        *time.Time
	}{{"from", req.From, &from}, {"to", req.To, &to}} {
		if b.raw == "" {
			continue
		}
		t, ok := util.ParseTime(b.raw)
		if !ok {
			metrics.Fail("history", "ERR_VALIDATION")
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Code:    "ERR_TIME",
				Field:   b.field,
				Message: b.field + " must be RFC3339, YYYY-MM-DD or unix seconds",
			}})
		}
		*b.dst = t
	}
	from, to = util.NormalizeRange(from, to, time.Now().UTC(), historyLookback)

	snaps, err := h.table.History(c.Request().Context(), req.Fund, from, to, req.Limit)
	if err != nil {
		return h.fail(c, "history", err)
	}
	return xhttp.ListResponse(c, snaps, int64(len(snaps)))
}

func (h *ReportEchoHandler) Export(c echo.Context) error {
	defer metrics.Observe("export", time.Now())
	tbl, err := h.table.Stored(c.Request().Context())
	if err != nil {
		return h.fail(c, "export", err)
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, tbl); err != nil {
		return h.fail(c, "export", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="funds.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ReportEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := toAppError(err)
	metrics.Fail(endpoint, appErr.Code)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(endpoint+" failed", xlogger.Error(err))
	} else {
		h.logger.Debug(endpoint+" rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain errors to HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var (
		invalid  *trendline.InvalidMethodError
		empty    *trendline.EmptyInputError
		mismatch *trendline.LengthMismatchError
		short    *trendline.InsufficientDataError
	)
	switch {
	case errors.As(err, &invalid):
		return xhttp.NewAppError("ERR_INVALID_METHOD", "method", err.Error(), http.StatusBadRequest).WithError(err)
	case errors.As(err, &empty):
		return xhttp.UnprocessableError("ERR_EMPTY_INPUT", empty.Axis, err.Error()).WithError(err)
	case errors.As(err, &mismatch):
		return xhttp.UnprocessableError("ERR_LENGTH_MISMATCH", "", err.Error()).WithError(err)
	case errors.As(err, &short):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", "", err.Error()).
			WithParam("need", short.Need).WithParam("got", short.Got).WithError(err)
	case errors.Is(err, trendline.ErrDegenerateInput):
		return xhttp.UnprocessableError("ERR_DEGENERATE_INPUT", "x", err.Error()).WithError(err)
	case errors.Is(err, domrepo.ErrTableNotFound):
		return xhttp.NotFoundError("no fund table stored yet, run a refresh").WithError(err)
	case errors.Is(err, usecase.ErrFundNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrRefreshInProgress):
		return xhttp.ConflictError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrHistoryDisabled), errors.Is(err, queue.ErrNotRunning):
		return xhttp.UnavailableError(err.Error()).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.UnavailableError("operation timed out").WithError(err)
	}
	return xhttp.InternalError("internal error").WithError(err)
}

func currencyMap(in map[string]float64) map[models.Currency]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[models.Currency]float64, len(in))
	for k, v := range in {
		out[models.NormalizeCurrency(k)] = v
	}
	return out
}
