// Package workerpool implements a fixed-size goroutine pool that runs the
// proxy's acceptor-loop jobs, one job per listener for the listener's
// lifetime. The per-connection direction workers those jobs spawn are not
// pooled: each accepted connection gets two bare goroutines, so the number
// of connections is not bounded by thread_pool_size.
package workerpool

import (
	"sync"

	"github.com/google/uuid"

	"github.com/carlosrabelo/tcpforward/pkg/logger"
)

// Job is a unit of work submitted to the pool.
type Job func()

// Pool runs submitted jobs across a fixed number of named workers.
type Pool struct {
	jobs chan Job
	wg   sync.WaitGroup
}

// New starts a Pool with size workers, worker i named names[i] if provided
// and non-empty, otherwise a fresh uuid, backed by a queue of the given depth.
func New(size int, queueDepth int, names ...string) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	p := &Pool{jobs: make(chan Job, queueDepth)}

	for i := 0; i < size; i++ {
		name := uuid.NewString()
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		p.wg.Add(1)
		go p.worker(name)
	}
	return p
}

func (p *Pool) worker(name string) {
	defer p.wg.Done()
	logger.Debug("worker %s started", name)
	for job := range p.jobs {
		job()
	}
	logger.Debug("worker %s stopped", name)
}

// Submit enqueues job for execution by some worker. It blocks if the queue
// is full.
func (p *Pool) Submit(job Job) {
	p.jobs <- job
}

// Close stops accepting new jobs and waits for in-flight and queued jobs to
// finish.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
