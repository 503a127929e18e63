// Package fanout runs batches of independent named lookups and collects
// every outcome, a failing lookup never aborts its batch.
package fanout

import (
	"context"
	"errors"
	"sync"
)

var ErrPoolClosed = errors.New("worker pool closed")

// Pool is a fixed set of long lived workers. It is created once per process,
// shared by every batch and closed at exit.
type Pool struct {
	jobs    chan func()
	workers sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewPool starts size workers, a size below 1 starts a single worker.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{jobs: make(chan func())}
	p.workers.Add(size)
	for range size {
		go func() {
			defer p.workers.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// Submit hands job to the next free worker, blocking until one picks it up
// or ctx is done. The job must not panic.
func (p *Pool) Submit(ctx context.Context, job func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- job:
		return nil
	}
}

// Close stops accepting jobs and waits for running ones to finish, it is
// safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.workers.Wait()
}
