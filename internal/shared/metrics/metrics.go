package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	bridgeCalls    = newCounterVec("operation", "source")
	bridgeFailures = newCounterVec("operation", "kind")

	payloadFilesSwept atomic.Uint64

	engineDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncBridgeCall counts a completed bridge call by operation and result source.
func IncBridgeCall(operation, source string) {
	bridgeCalls.inc(operation, source)
}

// IncBridgeFailure counts an engine failure that forced a fallback.
func IncBridgeFailure(operation, kind string) {
	bridgeFailures.inc(operation, kind)
}

// AddPayloadFilesSwept counts stale payload files removed by the sweeper.
func AddPayloadFilesSwept(n int) {
	if n > 0 {
		payloadFilesSwept.Add(uint64(n))
	}
}

// ObserveEngineDurationMs records an engine run duration in milliseconds.
func ObserveEngineDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	engineDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounterVec(&buf, "bridge_calls_total", "Bridge calls by operation and result source", bridgeCalls)
	writeCounterVec(&buf, "bridge_engine_failures_total", "Engine failures that forced a fallback", bridgeFailures)
	writeCounter(&buf, "payload_files_swept_total", "Stale payload files removed by the sweeper", payloadFilesSwept.Load())
	writeHistogram(&buf, "engine_duration_ms", "Engine process duration in milliseconds", engineDuration.Snapshot())
	return buf.String()
}

type counterVec struct {
	labels []string
	mu     sync.Mutex
	values map[string]*atomic.Uint64
}

func newCounterVec(labels ...string) *counterVec {
	return &counterVec{labels: labels, values: make(map[string]*atomic.Uint64)}
}

func (v *counterVec) inc(values ...string) {
	key := strings.Join(values, "\x00")
	v.mu.Lock()
	counter, ok := v.values[key]
	if !ok {
		counter = new(atomic.Uint64)
		v.values[key] = counter
	}
	v.mu.Unlock()
	counter.Add(1)
}

func (v *counterVec) snapshot() map[string]uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make(map[string]uint64, len(v.values))
	for k, c := range v.values {
		out[k] = c.Load()
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeCounterVec(buf *bytes.Buffer, name, help string, vec *counterVec) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	snap := vec.snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values := strings.Split(key, "\x00")
		pairs := make([]string, 0, len(vec.labels))
		for i, label := range vec.labels {
			val := ""
			if i < len(values) {
				val = values[i]
			}
			pairs = append(pairs, fmt.Sprintf("%s=%q", label, val))
		}
		fmt.Fprintf(buf, "%s{%s} %d\n", name, strings.Join(pairs, ","), snap[key])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
