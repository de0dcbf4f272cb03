// Package metrics provides collection and reporting of proxy metrics
package metrics

import (
	"sync/atomic"
)

// Collector holds all proxy-wide metrics, updated by the acceptor and
// direction workers and read by the Prometheus exporter and /status endpoint.
type Collector struct {
	BindingsActive    atomic.Int64
	ConnectionsActive atomic.Int64
	ConnectionsTotal  atomic.Uint64

	BytesForwarded  atomic.Uint64 // client -> upstream
	BytesReturned   atomic.Uint64 // upstream -> client
	PacketsForward  atomic.Uint64
	PacketsBackward atomic.Uint64

	AcceptErrors  atomic.Uint64
	ConnectErrors atomic.Uint64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// IncrementConnections records a newly accepted connection.
func (m *Collector) IncrementConnections() {
	m.ConnectionsActive.Add(1)
	m.ConnectionsTotal.Add(1)
}

// DecrementConnections records a connection whose direction workers both exited.
func (m *Collector) DecrementConnections() {
	m.ConnectionsActive.Add(-1)
}

// AddForwardBytes accumulates client -> upstream bytes and one packet.
func (m *Collector) AddForwardBytes(n int) {
	m.BytesForwarded.Add(uint64(n))
	m.PacketsForward.Add(1)
}

// AddBackwardBytes accumulates upstream -> client bytes and one packet.
func (m *Collector) AddBackwardBytes(n int) {
	m.BytesReturned.Add(uint64(n))
	m.PacketsBackward.Add(1)
}

// Snapshot is a point-in-time view of the metrics, suitable for JSON status
// endpoints or periodic log reporting.
type Snapshot struct {
	BindingsActive    int64  `json:"bindings_active"`
	ConnectionsActive int64  `json:"connections_active"`
	ConnectionsTotal  uint64 `json:"connections_total"`
	BytesForwarded    uint64 `json:"bytes_forwarded"`
	BytesReturned     uint64 `json:"bytes_returned"`
	PacketsForward    uint64 `json:"packets_forward"`
	PacketsBackward   uint64 `json:"packets_backward"`
	AcceptErrors      uint64 `json:"accept_errors"`
	ConnectErrors     uint64 `json:"connect_errors"`
}

// Snapshot returns a consistent-enough snapshot of the current counters.
func (m *Collector) Snapshot() Snapshot {
	return Snapshot{
		BindingsActive:    m.BindingsActive.Load(),
		ConnectionsActive: m.ConnectionsActive.Load(),
		ConnectionsTotal:  m.ConnectionsTotal.Load(),
		BytesForwarded:    m.BytesForwarded.Load(),
		BytesReturned:     m.BytesReturned.Load(),
		PacketsForward:    m.PacketsForward.Load(),
		PacketsBackward:   m.PacketsBackward.Load(),
		AcceptErrors:      m.AcceptErrors.Load(),
		ConnectErrors:     m.ConnectErrors.Load(),
	}
}
