package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekslot/internal/config"
	"weekslot/internal/grid"
	"weekslot/internal/mode"
	"weekslot/internal/selection"
)

func testServer(t *testing.T) (*Server, *selection.Store, *mode.Controller) {
	t.Helper()
	cfg := config.DefaultConfig()
	store := selection.NewStore()
	modes := mode.NewController()
	analyzer := grid.NewAnalyzer(grid.Params{Locale: "en", Location: time.UTC})
	return NewServer(cfg, store, analyzer, modes), store, modes
}

func addSlot(t *testing.T, store *selection.Store, key string, sh, eh int) {
	t.Helper()
	d, err := time.Parse("20060102", key)
	require.NoError(t, err)
	require.True(t, store.Add(&selection.Slot{
		Date:      d,
		StartHour: sh,
		EndHour:   eh,
		Column:    grid.Column{DateKey: key, Date: d},
	}))
}

func TestHealth(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSlotsJSON(t *testing.T) {
	srv, store, modes := testServer(t)
	modes.Activate()
	addSlot(t, store, "20260901", 14, 15)
	addSlot(t, store, "20260831", 9, 10)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slots", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var resp slotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.SelectionMode)
	require.Len(t, resp.Slots, 2)
	// Store order is chronological regardless of insertion order.
	assert.Equal(t, "2026-08-31", resp.Slots[0].Date)
	assert.Equal(t, "20260831", resp.Slots[0].DateKey)
	assert.Equal(t, "09:00", resp.Slots[0].Start)
	assert.Equal(t, "10:00", resp.Slots[0].End)
	assert.Equal(t, "August 31 (Mon) 9-10", resp.Slots[0].Label)
	assert.Equal(t, "2026-09-01", resp.Slots[1].Date)
}

func TestSlotsJSONEmpty(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/slots", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp slotsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.SelectionMode)
	assert.Empty(t, resp.Slots)
	assert.Zero(t, resp.VisibleDays)
}

func TestSlotsTextPlain(t *testing.T) {
	srv, store, _ := testServer(t)
	addSlot(t, store, "20260831", 9, 10)
	addSlot(t, store, "20260901", 14, 15)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slots.txt", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "August 31 (Mon) 9-10\nSeptember 1 (Tue) 14-15", rec.Body.String())
}

func TestSlotsRejectsPost(t *testing.T) {
	srv, _, _ := testServer(t)

	for _, path := range []string{"/api/slots", "/slots.txt"} {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, path)
	}
}
