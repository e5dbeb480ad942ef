package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/studyabroad/internal/model"
)

func TestHealthHandler_Health_OK(t *testing.T) {
	started := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHealthHandler(&mockHealthChecker{}, started)
	h.now = func() time.Time { return started.Add(90 * time.Second) }

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	decodeBody(t, w, &body)
	if body["status"] != "ok" || body["uptime_seconds"] != float64(90) {
		t.Errorf("body = %v", body)
	}
}

func TestHealthHandler_Health_DatabaseDown(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{pingErr: errors.New("connection refused")}, time.Now())

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body map[string]any
	decodeBody(t, w, &body)
	if body["status"] != "unavailable" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestHealthHandler_DBTime(t *testing.T) {
	dbNow := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	h := NewHealthHandler(&mockHealthChecker{now: dbNow}, time.Now())

	w := httptest.NewRecorder()
	h.DBTime(w, httptest.NewRequest(http.MethodGet, "/db-time", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		DBTime time.Time `json:"db_time"`
	}
	decodeBody(t, w, &body)
	if !body.DBTime.Equal(dbNow) {
		t.Errorf("db_time = %v, want %v", body.DBTime, dbNow)
	}
}

func TestHealthHandler_DBTime_Error(t *testing.T) {
	h := NewHealthHandler(&mockHealthChecker{nowErr: errors.New("timeout")}, time.Now())

	w := httptest.NewRecorder()
	h.DBTime(w, httptest.NewRequest(http.MethodGet, "/db-time", nil))

	if strings.Contains(w.Body.String(), "timeout") {
		t.Errorf("internal error detail leaked: %s", w.Body.String())
	}
	assertErrorCode(t, w, http.StatusInternalServerError, model.ErrCodeInternal)
}
