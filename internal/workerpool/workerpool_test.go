package workerpool

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllSubmittedJobs(t *testing.T) {
	p := New(3, 10, "a", "b", "c")
	var count atomic.Int64

	const jobs = 50
	for i := 0; i < jobs; i++ {
		p.Submit(func() { count.Add(1) })
	}
	p.Close()

	if got := count.Load(); got != jobs {
		t.Errorf("expected %d jobs run, got %d", jobs, got)
	}
}

func TestPoolDefaultsInvalidSize(t *testing.T) {
	p := New(0, 0)
	done := make(chan struct{})
	p.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never ran")
	}
	p.Close()
}
