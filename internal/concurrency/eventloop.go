// File: internal/concurrency/eventloop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// EventLoop runs pushed tasks in batches on one goroutine, with optional
// handlers observing each task after it runs. Its only user in this module
// is adapters.PollerAdapter; the coroutine and asyncio packages do not post
// to it (reactor callbacks resume their wakers inline).
//
// This version avoids atomic.CompareAndSwap on slices (which panics),
// replacing it with mutex-protected copy-on-write for handler list updates.

package concurrency

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is a unit of deferred work posted to the loop.
type Task func()

// EventHandler observes each task after the loop has run it (e.g. for
// metrics). It must not invoke t itself. Most callers do not need a
// handler and simply Push tasks for the loop to run.
type EventHandler interface {
	HandleEvent(t Task)
}

// EventLoop is a batched, lock-free-read poller with dynamic handler
// registration and adaptive idle backoff.
type EventLoop struct {
	handlers   atomic.Value // stores []EventHandler
	handlersMu sync.Mutex

	inbox chan Task

	batchSize int
	quitCh    chan struct{}
	doneCh    chan struct{}
	running   atomic.Bool
}

// NewEventLoop creates a new EventLoop with batchSize and ringCapacity parameters.
func NewEventLoop(batchSize, ringCapacity int) *EventLoop {
	el := &EventLoop{
		inbox:     make(chan Task, ringCapacity),
		batchSize: batchSize,
		quitCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	el.handlers.Store([]EventHandler{})
	return el
}

// RegisterHandler adds a new event handler atomically and safely.
func (el *EventLoop) RegisterHandler(h EventHandler) {
	el.handlersMu.Lock()
	defer el.handlersMu.Unlock()
	old := el.handlers.Load().([]EventHandler)
	next := make([]EventHandler, len(old)+1)
	copy(next, old)
	next[len(old)] = h
	el.handlers.Store(next)
}

// UnregisterHandler removes a handler safely, if present.
func (el *EventLoop) UnregisterHandler(h EventHandler) {
	el.handlersMu.Lock()
	defer el.handlersMu.Unlock()
	old := el.handlers.Load().([]EventHandler)
	next := make([]EventHandler, 0, len(old))
	for _, x := range old {
		if x != h {
			next = append(next, x)
		}
	}
	el.handlers.Store(next)
}

// Run drains tasks in batches and dispatches each to every registered
// handler in addition to invoking it directly. It runs until Stop is called.
func (el *EventLoop) Run() {
	if !el.running.CompareAndSwap(false, true) {
		return
	}
	defer func() {
		close(el.doneCh)
		el.running.Store(false)
	}()

	batch := make([]Task, 0, el.batchSize)
	backoffNs := int64(1)
	const maxBackoffNs = int64(1_000_000)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		batch = batch[:0]

	drain:
		for i := 0; i < el.batchSize; i++ {
			select {
			case t := <-el.inbox:
				batch = append(batch, t)
			default:
				break drain
			}
		}

		if len(batch) == 0 {
			timer.Reset(time.Duration(backoffNs) * time.Nanosecond)
			select {
			case <-el.quitCh:
				if !timer.Stop() {
					<-timer.C
				}
				return
			case t := <-el.inbox:
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				batch = append(batch, t)
				backoffNs = 1
			case <-timer.C:
				backoffNs *= 2
				if backoffNs > maxBackoffNs {
					backoffNs = maxBackoffNs
				}
			}
		}

		if len(batch) > 0 {
			handlers := el.handlers.Load().([]EventHandler)
			for _, t := range batch {
				t()
				for _, h := range handlers {
					h.HandleEvent(t)
				}
			}
			backoffNs = 1
		}
	}
}

// Pending returns the approximate number of buffered tasks.
func (el *EventLoop) Pending() int {
	return len(el.inbox)
}

// Push enqueues a task; non-blocking, returns false if the inbox is full.
func (el *EventLoop) Push(t Task) bool {
	select {
	case el.inbox <- t:
		return true
	default:
		return false
	}
}

// Stop signals the Run loop to exit and waits for completion.
func (el *EventLoop) Stop() {
	select {
	case <-el.quitCh:
	default:
		close(el.quitCh)
	}
	if el.running.Load() {
		<-el.doneCh
	}
}
