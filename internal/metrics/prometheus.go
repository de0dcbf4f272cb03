package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollectors holds all prometheus metric collectors for the proxy.
type PrometheusCollectors struct {
	BindingsActive    prometheus.Gauge
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter
	BytesForwarded    prometheus.Counter
	BytesReturned     prometheus.Counter
	AcceptErrors      prometheus.Counter
	ConnectErrors     prometheus.Counter
}

// InitPrometheus registers (or reuses, if already registered) the proxy's
// prometheus collectors under the given namespace.
func InitPrometheus(namespace string) *PrometheusCollectors {
	register := func(c prometheus.Collector) prometheus.Collector {
		if err := prometheus.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return are.ExistingCollector
			}
			return c
		}
		return c
	}

	pc := &PrometheusCollectors{}

	pc.BindingsActive = register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "bindings_active",
		Help:      "Number of bindings currently listening",
	})).(prometheus.Gauge)

	pc.ConnectionsActive = register(prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections_active",
		Help:      "Number of currently forwarded connections",
	})).(prometheus.Gauge)

	pc.ConnectionsTotal = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connections_total",
		Help:      "Total number of accepted connections",
	})).(prometheus.Counter)

	pc.BytesForwarded = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_forwarded_total",
		Help:      "Total bytes forwarded client -> upstream",
	})).(prometheus.Counter)

	pc.BytesReturned = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_returned_total",
		Help:      "Total bytes forwarded upstream -> client",
	})).(prometheus.Counter)

	pc.AcceptErrors = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accept_errors_total",
		Help:      "Total accept() failures across all listeners",
	})).(prometheus.Counter)

	pc.ConnectErrors = register(prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connect_errors_total",
		Help:      "Total upstream dial failures",
	})).(prometheus.Counter)

	return pc
}

// syncedCounters records the counter values pushed by the last Sync.
// Counters are monotonic, so Sync adds only the delta since then.
type syncedCounters struct {
	connectionsTotal uint64
	bytesForwarded   uint64
	bytesReturned    uint64
	acceptErrors     uint64
	connectErrors    uint64
}

// Syncer pushes Collector counters into Prometheus each time Sync is called.
type Syncer struct {
	pc   *PrometheusCollectors
	last syncedCounters
}

// NewSyncer creates a Syncer bound to the given prometheus collectors.
func NewSyncer(pc *PrometheusCollectors) *Syncer {
	return &Syncer{pc: pc}
}

// Sync updates gauges unconditionally and advances counters by their delta.
func (s *Syncer) Sync(snap Snapshot) {
	s.pc.BindingsActive.Set(float64(snap.BindingsActive))
	s.pc.ConnectionsActive.Set(float64(snap.ConnectionsActive))

	if d := snap.ConnectionsTotal - s.last.connectionsTotal; d > 0 {
		s.pc.ConnectionsTotal.Add(float64(d))
	}
	if d := snap.BytesForwarded - s.last.bytesForwarded; d > 0 {
		s.pc.BytesForwarded.Add(float64(d))
	}
	if d := snap.BytesReturned - s.last.bytesReturned; d > 0 {
		s.pc.BytesReturned.Add(float64(d))
	}
	if d := snap.AcceptErrors - s.last.acceptErrors; d > 0 {
		s.pc.AcceptErrors.Add(float64(d))
	}
	if d := snap.ConnectErrors - s.last.connectErrors; d > 0 {
		s.pc.ConnectErrors.Add(float64(d))
	}

	s.last = syncedCounters{
		connectionsTotal: snap.ConnectionsTotal,
		bytesForwarded:   snap.BytesForwarded,
		bytesReturned:    snap.BytesReturned,
		acceptErrors:      snap.AcceptErrors,
		connectErrors:     snap.ConnectErrors,
	}
}
