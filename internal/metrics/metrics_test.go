package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndHandler(t *testing.T) {
	m := New()
	m.CycleDone(ResultPlayed)
	m.CycleDone(ResultPlayed)
	m.CycleDone(ResultNoPatterns)
	m.CommandSeen("STATUS")
	m.SetActive(true)

	if got := testutil.ToFloat64(m.Cycles.WithLabelValues(ResultPlayed)); got != 2 {
		t.Fatalf("played = %v", got)
	}
	if got := testutil.ToFloat64(m.Active); got != 1 {
		t.Fatalf("active = %v", got)
	}

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `greenguile_commands_total{command="STATUS"} 1`) {
		t.Fatalf("missing command counter in:\n%s", w.Body.String())
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.CycleDone(ResultFailed)
	m.CommandSeen("ACTIVATE")
	m.SetActive(false)
}
