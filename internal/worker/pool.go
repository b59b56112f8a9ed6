package worker

import (
	"context"
	"sync"
)

// Job is a unit of work run by a Pool
type Job[R any] func(ctx context.Context) R

type queued[R any] struct {
	index int
	job   Job[R]
}

type finished[R any] struct {
	index  int
	result R
}

// Pool runs jobs on a fixed number of goroutines and hands results back in
// submission order. Results are collected while jobs are still being
// submitted, so any number of jobs can be queued before Wait.
type Pool[R any] struct {
	workers    int
	jobQueue   chan queued[R]
	results    chan finished[R]
	collected  chan []finished[R]
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once

	mu        sync.Mutex
	submitted int
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops the workers.
func NewPool[R any](ctx context.Context, workers int) *Pool[R] {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool[R]{
		workers:    workers,
		jobQueue:   make(chan queued[R], workers*2),
		results:    make(chan finished[R], workers*2),
		collected:  make(chan []finished[R], 1),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start starts the worker goroutines and the result collector
func (p *Pool[R]) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	go p.collect()
}

func (p *Pool[R]) collect() {
	var done []finished[R]
	for f := range p.results {
		done = append(done, f)
	}
	p.collected <- done
}

func (p *Pool[R]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case q, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := q.job(p.ctx)
			select {
			case p.results <- finished[R]{index: q.index, result: result}:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// Submit queues a job. It reports false once the pool is shut down.
func (p *Pool[R]) Submit(job Job[R]) bool {
	p.mu.Lock()
	index := p.submitted
	p.submitted++
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- queued[R]{index: index, job: job}:
		return true
	}
}

// Wait closes the queue, waits for the workers and returns one result per
// submitted job in submission order. Jobs dropped by a shutdown or a
// cancelled context leave the zero value in their slot.
func (p *Pool[R]) Wait() []R {
	close(p.jobQueue)
	p.wg.Wait()
	p.closeResults()
	done := <-p.collected
	p.cancelFunc()

	p.mu.Lock()
	out := make([]R, p.submitted)
	p.mu.Unlock()
	for _, f := range done {
		out[f.index] = f.result
	}
	return out
}

// Shutdown stops the pool without waiting for queued jobs
func (p *Pool[R]) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool[R]) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}
