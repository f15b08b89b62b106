package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"SumReport/internal/domain/models"
	"SumReport/internal/repository"
	"SumReport/internal/services/scenario"
	"SumReport/internal/services/trendline"
	"SumReport/internal/usecase"
	"SumReport/pkg/cache"
	xhttp "SumReport/pkg/http"
	"SumReport/pkg/queue"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const reportText = `Portfolio characteristics
Eff. Dur 5.1234
Coupon rate (%) 3.25
Yield to maturity (duration weighted) 4.75
`

type apiFixture struct {
	e     *echo.Echo
	dir   string
	table *usecase.FundTable
	jobs  *recordingJobs
}

type recordingJobs struct {
	types []string
	err   error
}

func (r *recordingJobs) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	r.types = append(r.types, msgType)
	return r.err
}

func newAPIFixture(t *testing.T, withQueue bool) *apiFixture {
	t.Helper()
	dir := t.TempDir()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	weights := scenario.StaticWeights{Default: map[models.Currency]float64{models.USD: 1}}
	builder := usecase.NewReportBuilder(weights)
	table := usecase.NewFundTable(repository.NewDirReportSource(dir, nil), builder,
		repository.NewCacheTableStore(mem, 0), usecase.FundTableConfig{Workers: 2})
	trends := usecase.NewTrendlineService(trendline.NewFitter(), nil)

	f := &apiFixture{e: echo.New(), dir: dir, table: table}
	var jobs queue.Publisher
	if withQueue {
		f.jobs = &recordingJobs{}
		jobs = f.jobs
	}
	NewReportEchoHandler(nil, trends, builder, table, jobs, time.Minute).RegisterRoutes(f.e)
	NewDashboardHandler(nil, table).RegisterRoutes(f.e)
	return f
}

func (f *apiFixture) addReport(t *testing.T, fund, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "Summary-"+fund+"-Q2.txt"), []byte(text), 0o644))
}

func (f *apiFixture) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) xhttp.APIResponse {
	t.Helper()
	resp := xhttp.APIResponse{Data: data}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestTrendline_OLS(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodPost, "/api/trendline", `{"x":[1,2,3,4],"ys":[[2,4,6,8]]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res []models.FitResult
	resp := decode(t, rec, &res)
	assert.Equal(t, http.StatusOK, resp.Status)
	require.Len(t, res, 1)
	assert.Contains(t, res[0].Summary, "Slope: 2.00")
	assert.Len(t, res[0].PredictedY, 100)
}

func TestTrendline_InvalidMethodIsValidationError(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodPost, "/api/trendline", `{"x":[1,2],"ys":[[1,2]],"method":"spline"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var errs []xhttp.ValidationError
	decode(t, rec, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_METHOD", errs[0].Code)
	assert.Equal(t, "method", errs[0].Field)
}

func TestTrendline_InsufficientData(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodPost, "/api/trendline", `{"x":[1,2,3],"ys":[[1,2,3]],"method":"Moving Average"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errs []xhttp.AppError
	decode(t, rec, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_INSUFFICIENT_DATA", errs[0].Code)
}

func TestScenario(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodPost, "/api/scenarios",
		`{"fund":"Alpha","rul":0,"modified_duration":5,"effective_yield":0.03,"coupon":0.02}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var row models.FundRow
	decode(t, rec, &row)
	assert.InDelta(t, 0.005, row.Scenarios.HorizonReturn, 1e-12)
	assert.InDelta(t, 0.055, row.Scenarios.Up100, 1e-12)
}

func TestScenario_BadCurrency(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodPost, "/api/scenarios", `{"modified_duration":5,"weights":{"XXXX":1}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFunds_NotFoundThenRefresh(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodGet, "/api/funds", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.addReport(t, "Alpha", reportText)
	f.addReport(t, "Beta", "garbage")
	rec = f.do(http.MethodPost, "/api/funds/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tbl models.Table
	decode(t, rec, &tbl)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "Alpha", tbl.Rows[0].Fund)
	require.Len(t, tbl.Errors, 1)
	assert.Equal(t, "Beta", tbl.Errors[0].Fund)

	rec = f.do(http.MethodGet, "/api/funds", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefresh_AsyncQueued(t *testing.T) {
	f := newAPIFixture(t, true)
	rec := f.do(http.MethodPost, "/api/funds/refresh?async=true", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{usecase.JobTypeTableRefresh}, f.jobs.types)
}

func TestRefresh_BadAsync(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodPost, "/api/funds/refresh?async=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateRow(t *testing.T) {
	f := newAPIFixture(t, false)
	f.addReport(t, "Alpha", reportText)
	_, err := f.table.Refresh(context.Background())
	require.NoError(t, err)

	rec := f.do(http.MethodPut, "/api/funds/Alpha", `{"modified_duration":6}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var row models.FundRow
	decode(t, rec, &row)
	assert.Equal(t, 6.0, row.KeyFigures.ModifiedDuration)

	rec = f.do(http.MethodPut, "/api/funds/Nope", `{"coupon":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPut, "/api/funds/Alpha", `{"modified_duration":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory_Disabled(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodGet, "/api/funds/Alpha/history?from=2024-01-01", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHistory_BadTime(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodGet, "/api/funds/Alpha/history?from=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	f := newAPIFixture(t, false)
	f.addReport(t, "Alpha", reportText)
	_, err := f.table.Refresh(context.Background())
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/api/funds/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get(echo.HeaderContentType))

	wb, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	v, err := wb.GetCellValue("Funds", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Alpha", v)
}

func TestDashboard(t *testing.T) {
	f := newAPIFixture(t, false)
	rec := f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No data yet")

	f.addReport(t, "Alpha", reportText)
	_, err := f.table.Refresh(context.Background())
	require.NoError(t, err)

	rec = f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<table>")
	assert.Contains(t, body, "<td>Alpha</td>")
	assert.Contains(t, body, "5.1234")
}
