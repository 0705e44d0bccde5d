package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesLabeledCounters(t *testing.T) {
	IncBridgeCall("recommend_stack", "fallback")
	IncBridgeCall("recommend_stack", "fallback")
	IncBridgeFailure("recommend_stack", "spawn")
	AddPayloadFilesSwept(3)

	out := Render()

	for _, want := range []string{
		`bridge_calls_total{operation="recommend_stack",source="fallback"}`,
		`bridge_engine_failures_total{operation="recommend_stack",kind="spawn"}`,
		"# TYPE payload_files_swept_total counter",
		`engine_duration_ms_bucket{le="+Inf"}`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected per-bucket counts: %v", snap.counts)
	}
}
