// File: coroutine/event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package coroutine

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-ws/api"
	"github.com/momentics/hioload-ws/internal/reactor"
)

// Callback is invoked by an Event's owning dispatcher with the triggered
// event, an untyped result payload, and an optional cooperative failure.
type Callback func(ev Event, result any, failure error)

// Event is the polymorphic reactor object a Waker links against: socket
// readiness, bare fd readiness, a timer, or (see asyncio/dns.go) a DNS
// query. Reference-counted; Dispose stops the event first if still live.
type Event interface {
	Start() error
	Stop() error
	Dispose()
	AddCallback(cb Callback)
	DelCallback(cb Callback)
	TriggeredEvents() api.EventBits
	Retain()
	Release()
}

// refCounted is embedded by concrete Event implementations to provide
// the callback slot and refcount/dispose bookkeeping. Exactly one
// callback record is attached per event per adapter call; AddCallback
// replaces whatever was previously attached, and DelCallback detaches it.
type refCounted struct {
	mu       sync.Mutex
	callback Callback
	refs     atomic.Int32
	disposer func()
}

func (r *refCounted) AddCallback(cb Callback) {
	r.mu.Lock()
	r.callback = cb
	r.mu.Unlock()
}

func (r *refCounted) DelCallback(cb Callback) {
	r.mu.Lock()
	r.callback = nil
	r.mu.Unlock()
}

func (r *refCounted) fire(ev Event, result any, failure error) {
	r.mu.Lock()
	cb := r.callback
	r.mu.Unlock()
	if cb != nil {
		cb(ev, result, failure)
	}
}

func (r *refCounted) Retain() { r.refs.Add(1) }

func (r *refCounted) Release() {
	if r.refs.Add(-1) <= 0 && r.disposer != nil {
		r.disposer()
	}
}

// socketEvent tracks readiness of a single fd via the reactor backend,
// serving both socket and plain-fd readiness alike; Go/unix do not
// distinguish sockets from other fds at the poll layer.
type socketEvent struct {
	refCounted
	backend   reactor.Backend
	fd        uintptr
	requested api.EventBits
	triggered atomic.Uint32
	started   atomic.Bool
	stopped   atomic.Bool
}

// NewSocketEvent allocates an unstarted readiness event for fd.
func NewSocketEvent(backend reactor.Backend, fd uintptr, bits api.EventBits) Event {
	ev := &socketEvent{backend: backend, fd: fd, requested: bits}
	ev.disposer = ev.dispose
	return ev
}

func toFDEventType(bits api.EventBits) reactor.FDEventType {
	var t reactor.FDEventType
	if bits.Has(api.Readable) || bits.Has(api.Disconnect) || bits.Has(api.Prioritized) {
		t |= reactor.EventRead
	}
	if bits.Has(api.Writable) {
		t |= reactor.EventWrite
	}
	return t
}

func (e *socketEvent) Start() error {
	if !e.started.CompareAndSwap(false, true) {
		return e.backend.Modify(e.fd, toFDEventType(e.requested))
	}
	return e.backend.Register(e.fd, toFDEventType(e.requested), e.onReady)
}

// SetRequested ORs additional bits into the requested set and re-applies
// it to the backend (used by the bridge when a socket callback fires
// again for an fd already tracked in poll_list).
func (e *socketEvent) SetRequested(bits api.EventBits) error {
	e.requested |= bits
	if e.started.Load() {
		return e.backend.Modify(e.fd, toFDEventType(e.requested))
	}
	return nil
}

func (e *socketEvent) onReady(fd uintptr, t reactor.FDEventType) {
	var bits api.EventBits
	if t&reactor.EventRead != 0 {
		bits |= api.Readable
	}
	if t&reactor.EventWrite != 0 {
		bits |= api.Writable
	}
	if t&reactor.EventError != 0 {
		bits |= api.Disconnect
	}
	e.triggered.Store(uint32(bits))
	e.fire(e, bits, nil)
}

func (e *socketEvent) TriggeredEvents() api.EventBits {
	return api.EventBits(e.triggered.Load())
}

func (e *socketEvent) Stop() error {
	if !e.stopped.CompareAndSwap(false, true) {
		return nil
	}
	return e.backend.Unregister(e.fd)
}

func (e *socketEvent) Dispose() {
	if !e.stopped.Load() {
		_ = e.Stop()
	}
	e.dispose()
}

func (e *socketEvent) dispose() {}

// timerEvent wraps a one-shot (or periodic) scheduler callback.
type timerEvent struct {
	refCounted
	sched    api.Scheduler
	delay    int64
	periodic bool
	cancel   api.Cancelable
}

// NewTimerEvent allocates an unstarted timer firing after delayNanos.
func NewTimerEvent(sched api.Scheduler, delayNanos int64, periodic bool) Event {
	ev := &timerEvent{sched: sched, delay: delayNanos, periodic: periodic}
	ev.disposer = ev.dispose
	return ev
}

func (e *timerEvent) Start() error {
	cancel, err := e.sched.Schedule(e.delay, e.onFire)
	if err != nil {
		return err
	}
	e.cancel = cancel
	return nil
}

func (e *timerEvent) onFire() {
	e.fire(e, nil, nil)
	if e.periodic {
		_ = e.Start()
	}
}

func (e *timerEvent) TriggeredEvents() api.EventBits { return 0 }

func (e *timerEvent) Stop() error {
	if e.cancel != nil {
		e.cancel.Cancel()
		e.cancel = nil
	}
	return nil
}

func (e *timerEvent) Dispose() {
	_ = e.Stop()
	e.dispose()
}

func (e *timerEvent) dispose() {}
