package router

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/coworking-reservation/internal/database"
	"github.com/iliyamo/coworking-reservation/internal/handler"
	"github.com/iliyamo/coworking-reservation/internal/logger"
	"github.com/iliyamo/coworking-reservation/internal/policy"
	"github.com/iliyamo/coworking-reservation/internal/repository"
	"github.com/iliyamo/coworking-reservation/internal/service"
)

// Wednesday; 2026-10-17 is a Saturday and 2026-10-18 a Sunday.
var today = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type api struct {
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(context.Background(), db, database.SQLite))
	t.Cleanup(func() { _ = db.Close() })

	pol := policy.Policy{AdvanceDays: 2, CancellationLeadDays: 2, Location: time.UTC}
	engine := service.New(repository.NewStore(db, database.SQLite), pol, policy.FixedClock(today), nil, logger.Discard())

	e := echo.New()
	RegisterRoutes(e, db)
	RegisterAPI(e, handler.New(engine, logger.Discard()))
	return &api{e: e}
}

func (a *api) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (a *api) seed(t *testing.T) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/clients", map[string]any{"given_names": "Ana", "surnames": "Pérez"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/v1/clients", map[string]any{"given_names": "Luis", "surnames": "Garza"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = a.do(t, http.MethodPost, "/v1/rooms", map[string]any{"name": "Sala A", "capacity": 10})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestClientsAndRooms(t *testing.T) {
	a := newAPI(t)
	a.seed(t)

	rec := a.do(t, http.MethodGet, "/v1/clients", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	clients := decodeList(t, rec)
	require.Len(t, clients, 2)
	assert.Equal(t, "C0002", clients[0]["id"], "Garza sorts before Pérez")

	rec = a.do(t, http.MethodGet, "/v1/clients/c0001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ana", decode(t, rec)["given_names"])

	rec = a.do(t, http.MethodGet, "/v1/clients/C0404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["kind"])

	rec = a.do(t, http.MethodPost, "/v1/clients", map[string]any{"given_names": " ana ", "surnames": "PÉREZ"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "duplicate", decode(t, rec)["kind"])

	rec = a.do(t, http.MethodPost, "/v1/rooms", map[string]any{"name": " Sala A ", "capacity": 3})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/rooms", map[string]any{"name": "Sala B", "capacity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode(t, rec)["kind"])

	rec = a.do(t, http.MethodGet, "/v1/rooms/S0001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 10, decode(t, rec)["capacity"])

	rec = a.do(t, http.MethodGet, "/v1/rooms", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 1)
}

func TestReservationLifecycle(t *testing.T) {
	a := newAPI(t)
	a.seed(t)

	create := map[string]any{"event_name": "Taller", "client_id": "C0001", "room_id": "S0001", "date": "2026-10-17", "shift": "M"}
	rec := a.do(t, http.MethodPost, "/v1/reservations", create)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode(t, rec)
	assert.EqualValues(t, 1, res["folio"])
	assert.Equal(t, "2026-10-17", res["date"])
	assert.Equal(t, "MORNING", res["shift"])
	assert.Equal(t, "ACTIVE", res["status"])

	create["client_id"] = "C0002"
	rec = a.do(t, http.MethodPost, "/v1/reservations", create)
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "conflict", body["kind"])
	assert.Equal(t, "room already booked for that date/shift", body["error"])

	rec = a.do(t, http.MethodGet, "/v1/availability?date=2026-10-17&shift=morning", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["rooms"])

	rec = a.do(t, http.MethodPatch, "/v1/reservations/1", map[string]any{"event_name": "Taller de Go"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Taller de Go", decode(t, rec)["event_name"])

	rec = a.do(t, http.MethodPost, "/v1/reservations/1/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CANCELLED", decode(t, rec)["status"])

	rec = a.do(t, http.MethodPatch, "/v1/reservations/1", map[string]any{"event_name": "Otro"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decode(t, rec)["kind"])

	rec = a.do(t, http.MethodGet, "/v1/reservations/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CANCELLED", decode(t, rec)["status"])

	rec = a.do(t, http.MethodGet, "/v1/availability?date=2026-10-17&shift=M", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rooms := decode(t, rec)["rooms"].([]any)
	require.Len(t, rooms, 1)
	assert.Equal(t, "S0001", rooms[0].(map[string]any)["id"])
}

func TestReservationErrors(t *testing.T) {
	a := newAPI(t)
	a.seed(t)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		kind   string
	}{
		{"bad date", map[string]any{"event_name": "x", "client_id": "C0001", "room_id": "S0001", "date": "10-17-2026", "shift": "M"}, http.StatusBadRequest, "validation"},
		{"unknown client", map[string]any{"event_name": "x", "client_id": "C0404", "room_id": "S0001", "date": "2026-10-17", "shift": "M"}, http.StatusNotFound, "not_found"},
		{"unknown shift", map[string]any{"event_name": "x", "client_id": "C0001", "room_id": "S0001", "date": "2026-10-17", "shift": "Q"}, http.StatusBadRequest, "validation"},
		{"too soon", map[string]any{"event_name": "x", "client_id": "C0001", "room_id": "S0001", "date": "2026-10-15", "shift": "M"}, http.StatusBadRequest, "validation"},
		{"sunday", map[string]any{"event_name": "x", "client_id": "C0001", "room_id": "S0001", "date": "2026-10-18", "shift": "M"}, http.StatusBadRequest, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodPost, "/v1/reservations", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.kind, decode(t, rec)["kind"])
		})
	}

	rec := a.do(t, http.MethodGet, "/v1/reservations/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = a.do(t, http.MethodGet, "/v1/reservations/77", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/reservations/77/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/reservations", map[string]any{"event_name": "x", "client_id": "C0001", "room_id": "S0001", "date": "2026-10-16", "shift": "N"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/reservations/1/cancel", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "exactly two days ahead can be cancelled")
}

func TestListReservations(t *testing.T) {
	a := newAPI(t)
	a.seed(t)
	for _, r := range []map[string]any{
		{"event_name": "Noche", "client_id": "C0001", "room_id": "S0001", "date": "2026-10-17", "shift": "N"},
		{"event_name": "Lunes", "client_id": "C0002", "room_id": "S0001", "date": "2026-10-19", "shift": "M"},
		{"event_name": "Mañana", "client_id": "C0002", "room_id": "S0001", "date": "2026-10-17", "shift": "M"},
	} {
		rec := a.do(t, http.MethodPost, "/v1/reservations", r)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := a.do(t, http.MethodGet, "/v1/reservations?from=2026-10-16&to=2026-10-19", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var folios []float64
	for _, r := range decodeList(t, rec) {
		folios = append(folios, r["folio"].(float64))
	}
	assert.Equal(t, []float64{1, 3, 2}, folios)

	rec = a.do(t, http.MethodGet, "/v1/reservations?date=2026-10-17", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeList(t, rec)
	require.Len(t, list, 2)
	assert.Equal(t, "Mañana", list[0]["event_name"])

	rec = a.do(t, http.MethodGet, "/v1/reservations?from=2026-10-19&to=2026-10-16", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = a.do(t, http.MethodGet, "/v1/reservations?from=2026-10-19", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDailyReport(t *testing.T) {
	a := newAPI(t)
	a.seed(t)
	rec := a.do(t, http.MethodPost, "/v1/reservations", map[string]any{"event_name": "Taller", "client_id": "C0001", "room_id": "S0001", "date": "2026-10-17", "shift": "A"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/reports/daily?date=2026-10-17", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "RESERVATIONS ON 10-17-2026", body["title"])
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "Pérez, Ana", rows[0].(map[string]any)["client"])
	assert.Equal(t, "Afternoon", rows[0].(map[string]any)["shift"])

	rec = a.do(t, http.MethodGet, "/v1/reports/daily?date=2026-10-17&format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "report_10172026.csv")
	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "Taller", "Pérez, Ana", "Sala A", "Afternoon", "10"}, records[1])

	rec = a.do(t, http.MethodGet, "/v1/reports/daily?date=2026-10-17&format=xlsx", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Reservations", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Taller", v)

	rec = a.do(t, http.MethodGet, "/v1/reports/daily", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-10-14", decode(t, rec)["date"], "no date means today")

	rec = a.do(t, http.MethodGet, "/v1/reports/daily?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
