package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// ObserveRequest is a no-op.
func (n *NoopRecorder) ObserveRequest(handler string, status int, duration time.Duration) {}

// IncTranscriptionCreated is a no-op.
func (n *NoopRecorder) IncTranscriptionCreated(source string) {}

// IncSpeechJob is a no-op.
func (n *NoopRecorder) IncSpeechJob(status string) {}
