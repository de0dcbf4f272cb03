// Package metadata tracks per-request timing for a single forwarded
// connection: when the request started, when the response finished, and how
// many response packets were captured in between.
package metadata

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RequestMetadata is mutated from the forward and backward goroutines of a
// single connection pair; all access goes through the embedded mutex.
type RequestMetadata struct {
	mu sync.Mutex

	ID                  uuid.UUID
	RequestStartMicros  int64
	ResponseEndMicros   int64
	ResponsePacketCount int32
}

// New creates a RequestMetadata with a fresh id and zeroed timestamps.
func New() *RequestMetadata {
	return &RequestMetadata{ID: uuid.New()}
}

// TagRequestStart records the current time as the request start, in
// microseconds since the Unix epoch.
func (m *RequestMetadata) TagRequestStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestStartMicros = time.Now().UnixMicro()
}

// TagResponseEnd records the current time as the response end.
func (m *RequestMetadata) TagResponseEnd() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponseEndMicros = time.Now().UnixMicro()
}

// IncrementPacketCount counts one more captured response packet.
func (m *RequestMetadata) IncrementPacketCount() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResponsePacketCount++
}

// DurationMillis returns the request/response round trip in milliseconds.
// Both timestamps are true microseconds, so the conversion is a plain
// divide-by-1000 (the source mixes seconds and nanoseconds before this
// division, which over- and under-counts depending on the subsecond part).
func (m *RequestMetadata) DurationMillis() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return float64(m.ResponseEndMicros-m.RequestStartMicros) / 1000.0
}

// PacketCount returns the current captured response packet count.
func (m *RequestMetadata) PacketCount() int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ResponsePacketCount
}
