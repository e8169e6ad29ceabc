// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Request metrics, one observation per handled request.
	ObserveRequest(handler string, status int, duration time.Duration)

	// Domain metrics
	IncTranscriptionCreated(source string) // source: "api" or "speech"
	IncSpeechJob(status string)            // status: "done" or "failed"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
