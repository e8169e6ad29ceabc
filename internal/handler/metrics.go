package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/vocali/transcription-api/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	for _, k := range snap.RequestKeys() {
		s := snap.Requests[k]
		writeMetric(w, "vocali_requests_total{handler=%q,status=\"%d\"} %d\n", k.Handler, k.Status, s.Count)
		writeMetric(w, "vocali_request_duration_seconds_sum{handler=%q,status=\"%d\"} %.6f\n", k.Handler, k.Status, float64(s.TotalNs)/1e9)
	}
	for _, source := range sortedKeys(snap.TranscriptionsCreated) {
		writeMetric(w, "vocali_transcriptions_created_total{source=%q} %d\n", source, snap.TranscriptionsCreated[source])
	}
	for _, status := range sortedKeys(snap.SpeechJobs) {
		writeMetric(w, "vocali_speech_jobs_total{status=%q} %d\n", status, snap.SpeechJobs[status])
	}
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
