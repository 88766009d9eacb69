package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"greenguile/internal/models"
	"greenguile/internal/service"
)

func getWithAuth(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, withHeaders(httptest.NewRequest(http.MethodGet, path, nil), authHeader("valid")))
	return w
}

func TestLogsHandler_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	logs := &mockEventLog{resp: []models.DeviceEvent{
		{EventID: "e1", OccurredAt: now, Type: models.EventActivate, Description: "System activated"},
		{EventID: "e2", OccurredAt: now.Add(time.Second), Type: models.EventCycle, Description: "Played spring_robin"},
	}}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 99}, EventLog: logs}, Config{})

	if w := getWithAuth(r, "/api/v1/logs?from=notatime"); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	q := fmt.Sprintf("/api/v1/logs?from=%s&to=%s&type=cycle",
		now.Format(time.RFC3339), now.Add(2*time.Second).Format(time.RFC3339))
	w := getWithAuth(r, q)
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                  `json:"count"`
		Events []models.DeviceEvent `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastType != "cycle" || !logs.lastFrom.Equal(now) {
		t.Fatalf("filter passed: type=%q from=%v", logs.lastType, logs.lastFrom)
	}
}

func TestLogsHandler_DateOnlyToCoversDay(t *testing.T) {
	logs := &mockEventLog{}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: logs}, Config{})

	if w := getWithAuth(r, "/api/v1/logs?to=2025-08-31"); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	want := time.Date(2025, 8, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
	if !logs.lastTo.Equal(want) {
		t.Fatalf("to = %v, want %v", logs.lastTo, want)
	}
}

func TestLogsHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrInvalidTimeRange, http.StatusBadRequest},
		{fmt.Errorf("%w: START", service.ErrInvalidEventType), http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: &mockEventLog{err: tc.err}}, Config{})
		if w := getWithAuth(r, "/api/v1/logs"); w.Code != tc.code {
			t.Fatalf("%v: status=%d, want %d", tc.err, w.Code, tc.code)
		}
	}
}

func TestLogsHandler_RequiresToken(t *testing.T) {
	r := newTestRouter(&service.Service{Authorization: &mockAuth{}, EventLog: &mockEventLog{}}, Config{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d", w.Code)
	}
}
