// Package metrics provides a tiny, generic operation counter used by the
// startup-time Config loader — distinct from the per-connection
// counters in internal/metrics, which track live forwarding traffic.
package metrics

import (
	"sync/atomic"
	"time"
)

type Metrics struct {
	operationsTotal int64
	errorsTotal     int64
	lastOperation   int64
}

var Default = New()

func New() *Metrics {
	return &Metrics{}
}

func (m *Metrics) IncrementOperations() {
	atomic.AddInt64(&m.operationsTotal, 1)
	atomic.StoreInt64(&m.lastOperation, time.Now().Unix())
}

func (m *Metrics) IncrementErrors() {
	atomic.AddInt64(&m.errorsTotal, 1)
}

func (m *Metrics) GetOperations() int64 {
	return atomic.LoadInt64(&m.operationsTotal)
}

func (m *Metrics) GetErrors() int64 {
	return atomic.LoadInt64(&m.errorsTotal)
}

func (m *Metrics) GetLastOperation() int64 {
	return atomic.LoadInt64(&m.lastOperation)
}

func IncrementOperations() {
	Default.IncrementOperations()
}

func IncrementErrors() {
	Default.IncrementErrors()
}
