// File: coroutine/waker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package coroutine

import (
	"sync"

	"github.com/momentics/hioload-ws/api"
)

// Waker is per-suspension state: it accumulates partial results across
// however many callbacks fire before the coroutine resumes, owns the
// timeout (if any), and holds the Events linked to it so Destroy can
// cancel everything still pending in one place (breaking the
// waker<->event reference cycle described by the design).
type Waker struct {
	co *Coroutine

	mu          sync.Mutex
	accumulator int
	failure     error
	resumed     bool
	resumeCh    chan struct{}

	timeoutCancel api.Cancelable
	events        []Event
}

// NewWaker creates a waker with no timeout and installs it as co's live
// waker.
func NewWaker(co *Coroutine) *Waker {
	w := &Waker{co: co, resumeCh: make(chan struct{})}
	co.setWaker(w)
	return w
}

// NewWakerWithTimeout creates a waker that resumes with api.ErrOperationTimeout
// after delayNanos if nothing else has resumed it first. Use this for
// callers (like the transfer bridge's multi-select) that must be able to
// tell "timeout fired" apart from "an event fired".
func NewWakerWithTimeout(co *Coroutine, sched api.Scheduler, delayNanos int64) (*Waker, error) {
	return newTimeoutWaker(co, sched, delayNanos, true)
}

// NewWakerWithSoftTimeout creates a waker whose timeout plainly resumes
// the coroutine (no failure attached) once delayNanos elapses, so the
// caller observes only whatever accumulator value events produced by
// then. This matches plain poll/select: a timeout with nothing ready
// returns 0, it is not an error.
func NewWakerWithSoftTimeout(co *Coroutine, sched api.Scheduler, delayNanos int64) (*Waker, error) {
	return newTimeoutWaker(co, sched, delayNanos, false)
}

func newTimeoutWaker(co *Coroutine, sched api.Scheduler, delayNanos int64, hard bool) (*Waker, error) {
	w := NewWaker(co)
	if delayNanos < 0 {
		return w, nil
	}
	cancel, err := sched.Schedule(delayNanos, func() {
		if hard {
			w.ResumeWithError(api.ErrOperationTimeout)
		} else {
			w.Resume()
		}
	})
	if err != nil {
		w.Destroy()
		return nil, err
	}
	w.timeoutCancel = cancel
	return w, nil
}

// Link attaches ev to the waker: ev will be disposed when Destroy runs.
// Link retains a reference on ev.
func (w *Waker) Link(ev Event) {
	ev.Retain()
	w.mu.Lock()
	w.events = append(w.events, ev)
	w.mu.Unlock()
}

// IncrementAccumulator bumps the result counter. Safe to call after
// resumption: later callbacks keep contributing to the count even though
// only the first callback schedules resumption.
func (w *Waker) IncrementAccumulator() {
	w.mu.Lock()
	w.accumulator++
	w.mu.Unlock()
}

// Accumulator returns the current result counter.
func (w *Waker) Accumulator() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.accumulator
}

// SetAccumulator overwrites the accumulator directly. Poll/select need
// only IncrementAccumulator's counting behavior, but the transfer bridge
// (component G) reuses the same slot to carry a single result code
// (the engine's status) back from perform_async's resolver callback.
func (w *Waker) SetAccumulator(n int) {
	w.mu.Lock()
	w.accumulator = n
	w.mu.Unlock()
}

// Resume schedules the coroutine's resumption. Idempotent: only the
// first call closes resumeCh.
func (w *Waker) Resume() {
	w.mu.Lock()
	if w.resumed {
		w.mu.Unlock()
		return
	}
	w.resumed = true
	close(w.resumeCh)
	w.mu.Unlock()
}

// ResumeWithError attaches a cooperative failure (cancellation, timeout,
// or other) and resumes. If the waker already resumed without a failure,
// the failure is still recorded so Wait's caller observes it.
func (w *Waker) ResumeWithError(err error) {
	w.mu.Lock()
	if w.failure == nil {
		w.failure = err
	}
	already := w.resumed
	w.resumed = true
	w.mu.Unlock()
	if !already {
		close(w.resumeCh)
	}
}

// Wait blocks until Resume/ResumeWithError fires, then returns the
// accumulated count and pending failure (if any). Wait does not destroy
// the waker; callers must call Destroy exactly once after inspecting the
// result, so no adapter ever returns with a live waker.
func (w *Waker) Wait() (int, error) {
	<-w.resumeCh
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.accumulator, w.failure
}

// TakeFailure clears and returns the pending failure, consuming it
// exactly once as required by the errno mapper.
func (w *Waker) TakeFailure() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.failure
	w.failure = nil
	return err
}

// Destroy cancels the timeout (if any) and disposes every linked event,
// then clears the coroutine's live-waker slot. Destroy is idempotent.
func (w *Waker) Destroy() {
	w.mu.Lock()
	events := w.events
	w.events = nil
	cancel := w.timeoutCancel
	w.timeoutCancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel.Cancel()
	}
	for _, ev := range events {
		_ = ev.Stop()
		ev.Release()
	}
	w.co.clearWaker(w)
}
