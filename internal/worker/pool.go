// Package worker provides a bounded worker pool and a query rate limiter.
package worker

import (
	"context"
	"sync"
)

// Job is a unit of work producing an R.
type Job[R any] interface {
	Execute(ctx context.Context) R
}

// JobFunc adapts a function to Job.
type JobFunc[R any] func(ctx context.Context) R

// Execute calls f.
func (f JobFunc[R]) Execute(ctx context.Context) R { return f(ctx) }

// Pool runs jobs on a fixed number of workers. Results are drained as they
// arrive, so Submit never stalls on unread results.
//
// Jobs run on a context detached from the one passed to Start: cancelling it
// stops Submit from scheduling more work, while jobs already handed to a
// worker run to completion.
type Pool[R any] struct {
	workers int
	jobs    chan Job[R]
	results chan R
	wg      sync.WaitGroup

	collected []R
	collectWg sync.WaitGroup
	onResult  func(R)

	stopped   context.Context
	closeOnce sync.Once
}

// NewPool creates a pool with the given number of workers (minimum 1).
func NewPool[R any](workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}
	return &Pool[R]{
		workers: workers,
		jobs:    make(chan Job[R]),
		results: make(chan R, workers),
	}
}

// OnResult registers a callback invoked, from a single goroutine, for every result.
// Must be called before Start.
func (p *Pool[R]) OnResult(fn func(R)) { p.onResult = fn }

// Workers returns the pool size.
func (p *Pool[R]) Workers() int { return p.workers }

// Start launches the workers and the result collector.
func (p *Pool[R]) Start(ctx context.Context) {
	p.stopped = ctx
	jobCtx := context.WithoutCancel(ctx)

	p.collectWg.Add(1)
	go p.collect()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(jobCtx)
	}
}

func (p *Pool[R]) worker(ctx context.Context) {
	defer p.wg.Done()
	for job := range p.jobs {
		p.results <- job.Execute(ctx)
	}
}

func (p *Pool[R]) collect() {
	defer p.collectWg.Done()
	for r := range p.results {
		if p.onResult != nil {
			p.onResult(r)
		}
		p.collected = append(p.collected, r)
	}
}

// Submit hands job to an idle worker. It returns false without scheduling the
// job once the Start context is done.
func (p *Pool[R]) Submit(job Job[R]) bool {
	if p.stopped.Err() != nil {
		return false
	}
	select {
	case <-p.stopped.Done():
		return false
	case p.jobs <- job:
		return true
	}
}

// Wait stops accepting jobs, waits for in-flight ones and returns every result.
func (p *Pool[R]) Wait() []R {
	p.closeOnce.Do(func() { close(p.jobs) })
	p.wg.Wait()
	close(p.results)
	p.collectWg.Wait()
	return p.collected
}
