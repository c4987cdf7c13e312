// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor runs submitted tasks on a fixed worker pool backed by
// eapache/queue; it is reached through adapters.ExecutorAdapter.
// The upstream queue.Queue is not safe for unsynchronized concurrent
// access, so all access is guarded by a mutex/condvar pair rather than the
// busy-poll loop an earlier revision of this package used.

package concurrency

import (
	"sync"

	"github.com/eapache/queue"
)

// TaskFunc is a unit of work submitted to an Executor.
type TaskFunc func()

// Executor is a fixed-size worker pool draining a shared FIFO queue.
type Executor struct {
	mu          sync.Mutex
	cond        *sync.Cond
	queue       *queue.Queue
	closed      bool
	wg          sync.WaitGroup
	workerCount int
}

// NewExecutor starts numWorkers goroutines draining a shared task queue.
func NewExecutor(numWorkers int) *Executor {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	e := &Executor{queue: queue.New(), workerCount: numWorkers}
	e.cond = sync.NewCond(&e.mu)
	for i := 0; i < numWorkers; i++ {
		e.wg.Add(1)
		go e.run()
	}
	return e
}

// Submit enqueues task for asynchronous execution. Returns
// ErrExecutorClosed if the executor has been closed.
func (e *Executor) Submit(task TaskFunc) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrExecutorClosed
	}
	e.queue.Add(task)
	e.mu.Unlock()
	e.cond.Signal()
	return nil
}

// NumWorkers returns the number of worker goroutines draining the queue.
func (e *Executor) NumWorkers() int {
	return e.workerCount
}

// Resize is a no-op retained for api.Executor compliance; the worker pool
// size is fixed at construction.
func (e *Executor) Resize(int) {}

// Close signals all workers to exit once the queue drains and waits for them.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()
	e.cond.Broadcast()
	e.wg.Wait()
}

func (e *Executor) run() {
	defer e.wg.Done()
	for {
		e.mu.Lock()
		for e.queue.Length() == 0 && !e.closed {
			e.cond.Wait()
		}
		if e.queue.Length() == 0 && e.closed {
			e.mu.Unlock()
			return
		}
		item := e.queue.Remove()
		e.mu.Unlock()

		if task, ok := item.(TaskFunc); ok {
			task()
		}
	}
}
