package metrics

import (
	"sort"
	"sync"
	"time"
)

// RequestKey identifies a request counter.
type RequestKey struct {
	Handler string
	Status  int
}

// RequestStats aggregates observations for one RequestKey.
type RequestStats struct {
	Count   uint64
	TotalNs int64
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Requests              map[RequestKey]RequestStats
	TranscriptionsCreated map[string]uint64
	SpeechJobs            map[string]uint64
}

// RequestKeys returns the request keys sorted by handler then status.
func (s Snapshot) RequestKeys() []RequestKey {
	keys := make([]RequestKey, 0, len(s.Requests))
	for k := range s.Requests {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Handler != keys[j].Handler {
			return keys[i].Handler < keys[j].Handler
		}
		return keys[i].Status < keys[j].Status
	})
	return keys
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	mu                    sync.Mutex
	requests              map[RequestKey]RequestStats
	transcriptionsCreated map[string]uint64
	speechJobs            map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		requests:              make(map[RequestKey]RequestStats),
		transcriptionsCreated: make(map[string]uint64),
		speechJobs:            make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Requests:              make(map[RequestKey]RequestStats, len(m.requests)),
		TranscriptionsCreated: make(map[string]uint64, len(m.transcriptionsCreated)),
		SpeechJobs:            make(map[string]uint64, len(m.speechJobs)),
	}
	for k, v := range m.requests {
		snap.Requests[k] = v
	}
	for k, v := range m.transcriptionsCreated {
		snap.TranscriptionsCreated[k] = v
	}
	for k, v := range m.speechJobs {
		snap.SpeechJobs[k] = v
	}
	return snap
}

// ObserveRequest records one handled request.
func (m *InMemoryRecorder) ObserveRequest(handler string, status int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := RequestKey{Handler: handler, Status: status}
	s := m.requests[k]
	s.Count++
	s.TotalNs += duration.Nanoseconds()
	m.requests[k] = s
}

// IncTranscriptionCreated increments the created counter for source.
func (m *InMemoryRecorder) IncTranscriptionCreated(source string) {
	m.mu.Lock()
	m.transcriptionsCreated[source]++
	m.mu.Unlock()
}

// IncSpeechJob increments the batch job counter for status.
func (m *InMemoryRecorder) IncSpeechJob(status string) {
	m.mu.Lock()
	m.speechJobs[status]++
	m.mu.Unlock()
}
