package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"zettanote/internal/platform/database/dbtest"
)

func TestHealthCheckHidesErrors(t *testing.T) {
	db := dbtest.New(t)
	h := NewHealthHandler(db, nil)

	rr := httptest.NewRecorder()
	h.Check(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	db.Close()

	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req = req.WithContext(logger.WithContext(req.Context()))

	rr = httptest.NewRecorder()
	h.Check(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "degraded" || body.Checks["database"] != "unhealthy" {
		t.Errorf("body = %+v, want degraded with database unhealthy", body)
	}
	if strings.Contains(rr.Body.String(), "closed") {
		t.Errorf("response leaks driver error: %s", rr.Body.String())
	}
	if !strings.Contains(logs.String(), "database is closed") {
		t.Errorf("driver error was not logged: %q", logs.String())
	}
}
