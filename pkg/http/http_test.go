package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name   string    `json:"name" validate:"required"`
	Kind   string    `json:"kind" default:"linear" validate:"sample_kind"`
	Values []float64 `json:"values" validate:"required,min=2"`
	Limit  int       `json:"limit" default:"10" validate:"gte=1,lte=100"`
}

func init() {
	_ = RegisterValidation("sample_kind", func(v string) bool {
		return v == "linear" || v == "flat"
	}, "%s must be linear or flat")
}

func newContext(method, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReadAndValidateRequestDefaults(t *testing.T) {
	c, _ := newContext(http.MethodPost, `{"name":"a","values":[1,2]}`)

	var req sampleRequest
	require.Nil(t, ReadAndValidateRequest(c, &req))
	assert.Equal(t, "linear", req.Kind)
	assert.Equal(t, 10, req.Limit)
}

func TestReadAndValidateRequestErrors(t *testing.T) {
	c, _ := newContext(http.MethodPost, `{"kind":"cubic","values":[1],"limit":500}`)

	var req sampleRequest
	out := ReadAndValidateRequest(c, &req)
	errs, ok := out.([]ValidationError)
	require.True(t, ok)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "ERR_REQUIRED", byField["name"].Code)
	assert.Equal(t, "kind must be linear or flat", byField["kind"].Message)
	assert.Equal(t, "values must contain at least 2 items", byField["values"].Message)
	assert.Equal(t, "100", byField["limit"].Params["max"])
}

func TestReadAndValidateRequestBindError(t *testing.T) {
	c, _ := newContext(http.MethodPost, `{"values":`)

	errs, ok := ReadAndValidateRequest(c, &sampleRequest{}).([]ValidationError)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_BIND", errs[0].Code)
}

func TestAppErrorResponse(t *testing.T) {
	c, rec := newContext(http.MethodGet, "")
	err := ConflictError("refresh already running").WithError(errors.New("locked"))

	require.NoError(t, AppErrorResponse(c, err))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Status int        `json:"status"`
		Data   []AppError `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusConflict, body.Status)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ERR_CONFLICT", body.Data[0].Code)
}

func TestAppErrorResponseUnknown(t *testing.T) {
	c, rec := newContext(http.MethodGet, "")
	require.NoError(t, AppErrorResponse(c, errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClientBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/funds/refresh", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("async"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(APIResponse{Status: http.StatusAccepted, Message: "Accepted"})
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	var out APIResponse
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      http.MethodPost,
		URL:         "/api/funds/refresh",
		QueryParams: map[string][]string{"async": {"true"}},
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, out.Status)
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusConflict)
	}))
	defer srv.Close()

	err := NewClient(WithBaseURL(srv.URL)).SendAndParse(context.Background(), &RequestOptions{
		Method: http.MethodGet,
		URL:    "api/funds",
	}, nil)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusConflict, se.Code)
	assert.Contains(t, se.Error(), "busy")
}
