package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/coworking-reservation/internal/apperror"
	"github.com/iliyamo/coworking-reservation/internal/logger"
)

func TestParseDate(t *testing.T) {
	d, err := parseDate(" 2026-10-17 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("10-17-2026")
	assert.ErrorIs(t, err, apperror.ErrValidation)
	_, err = parseDate("")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestParseFolio(t *testing.T) {
	folio, err := parseFolio("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), folio)

	for _, raw := range []string{"0", "-1", "x", ""} {
		_, err := parseFolio(raw)
		assert.ErrorIs(t, err, apperror.ErrValidation, raw)
	}
}

func TestFailMapsKinds(t *testing.T) {
	h := &Handler{Log: logger.Discard()}
	e := echo.New()

	tests := []struct {
		err    error
		status int
		body   string
	}{
		{apperror.Validation("bad"), http.StatusBadRequest, `{"error":"bad","kind":"validation"}`},
		{apperror.NotFound("gone"), http.StatusNotFound, `{"error":"gone","kind":"not_found"}`},
		{apperror.Conflict("taken"), http.StatusConflict, `{"error":"taken","kind":"conflict"}`},
		{apperror.Duplicate("twice"), http.StatusConflict, `{"error":"twice","kind":"duplicate"}`},
		{apperror.InvalidState("cancelled"), http.StatusConflict, `{"error":"cancelled","kind":"invalid_state"}`},
		{apperror.Infrastructure("query", errors.New("disk I/O error")), http.StatusInternalServerError, `{"error":"query: disk I/O error","kind":"infrastructure"}`},
		{errors.New("raw driver text"), http.StatusInternalServerError, `{"error":"raw driver text","kind":"infrastructure"}`},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, h.fail(c, tt.err))
		assert.Equal(t, tt.status, rec.Code)
		assert.JSONEq(t, tt.body, rec.Body.String())
	}
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestHealthReportsStore(t *testing.T) {
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	require.NoError(t, Health(pingerFunc(func(context.Context) error { return nil }))(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/healthz", nil), rec)
	require.NoError(t, Health(pingerFunc(func(context.Context) error { return errors.New("closed") }))(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unavailable","db":"closed"}`, rec.Body.String())
}
