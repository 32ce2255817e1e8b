package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"incidentops/src/contracts"
)

func event(stage, status string, items int, ms int64) contracts.StageEvent {
	return contracts.StageEvent{RunID: "r", Stage: stage, Status: status, ItemCount: items, DurationMS: ms}
}

func TestRecorder_CountsTransitions(t *testing.T) {
	r := NewRecorder()

	r.ObserveStage(event("monitor", contracts.StageStarted, 0, 0))
	r.ObserveStage(event("monitor", contracts.StageCompleted, 4, 12))
	r.ObserveStage(event("triage", contracts.StageStarted, 0, 0))
	r.ObserveStage(event("triage", contracts.StageFailed, 0, 3))

	tests := []struct {
		stage, status string
		want          float64
	}{
		{"monitor", contracts.StageStarted, 1},
		{"monitor", contracts.StageCompleted, 1},
		{"triage", contracts.StageFailed, 1},
		{"triage", contracts.StageCompleted, 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(r.StageTransitions.WithLabelValues(tt.stage, tt.status))
		if got != tt.want {
			t.Errorf("transitions{%s,%s} = %v, want %v", tt.stage, tt.status, got, tt.want)
		}
	}

	if got := testutil.ToFloat64(r.StageItems.WithLabelValues("monitor")); got != 4 {
		t.Errorf("stage_items{monitor} = %v, want 4", got)
	}
	if n := testutil.CollectAndCount(r.StageDuration); n != 2 {
		t.Errorf("duration series = %d, want 2", n)
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveStage(event("audit", contracts.StageCompleted, 1, 5))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, name := range []string{
		"incidentops_stage_transitions_total",
		"incidentops_stage_items",
		"incidentops_stage_duration_seconds",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
