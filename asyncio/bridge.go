// File: asyncio/bridge.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The transfer-engine reactor bridge. bridgeState backs the
// single-request path, one process-wide multi handle (see lifetime.go)
// shared by every perform_async call; BridgeCtx backs the multi-handle path, one
// isolated instance per caller-owned MultiHandle.

package asyncio

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-ws/api"
	"github.com/momentics/hioload-ws/control"
	"github.com/momentics/hioload-ws/coroutine"
	"github.com/momentics/hioload-ws/internal/reactor"
	"github.com/momentics/hioload-ws/xlog"
)

// requestedSetter is satisfied by the concrete socket event coroutine.
// NewSocketEvent returns; asserting on it lets the bridge OR additional
// bits into an already-tracked fd's requested set without the
// coroutine.Event interface needing to expose a mutation method every
// other caller would never use.
type requestedSetter interface {
	SetRequested(bits api.EventBits) error
}

func actionToBits(a SocketAction) api.EventBits {
	switch a {
	case ActionIn:
		return api.Readable
	case ActionOut:
		return api.Writable
	case ActionInOut:
		return api.Readable | api.Writable
	default:
		return 0
	}
}

func bitsToAction(b api.EventBits) SocketAction {
	switch {
	case b.Has(api.Readable) && b.Has(api.Writable):
		return ActionInOut
	case b.Has(api.Readable):
		return ActionIn
	case b.Has(api.Writable):
		return ActionOut
	default:
		return ActionNone
	}
}

// curlEvent wraps one Transfer with start/stop/dispose lifecycle methods
// and the Event plumbing a Waker can Link against. It implements
// coroutine.Event directly rather than embedding the coroutine package's
// unexported refCounted helper, since that plumbing is a handful of
// lines and this bridge lives in a different package.
type curlEvent struct {
	mu       sync.Mutex
	callback coroutine.Callback
	refs     atomic.Int32
	closed   atomic.Bool

	bs       *bridgeState
	transfer *Transfer
}

func (e *curlEvent) Start() error {
	if err := e.bs.engine.AddTransfer(e.transfer); err != nil {
		return err
	}
	e.bs.mu.Lock()
	e.bs.byTransfer[e.transfer.id] = e
	e.bs.mu.Unlock()

	_, err := e.bs.engine.SocketAction(TimeoutSocket, ActionNone)
	return err
}

func (e *curlEvent) Stop() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	e.bs.mu.Lock()
	delete(e.bs.byTransfer, e.transfer.id)
	e.bs.mu.Unlock()
	return e.bs.engine.RemoveTransfer(e.transfer)
}

func (e *curlEvent) Dispose() {
	if !e.closed.Load() {
		_ = e.Stop()
	}
}

func (e *curlEvent) AddCallback(cb coroutine.Callback) { e.mu.Lock(); e.callback = cb; e.mu.Unlock() }
func (e *curlEvent) DelCallback(coroutine.Callback)    { e.mu.Lock(); e.callback = nil; e.mu.Unlock() }
func (e *curlEvent) TriggeredEvents() api.EventBits    { return 0 }
func (e *curlEvent) Retain()                           { e.refs.Add(1) }
func (e *curlEvent) Release()                          { e.refs.Add(-1) }

func (e *curlEvent) fire(result any, failure error) {
	e.mu.Lock()
	cb := e.callback
	e.mu.Unlock()
	if cb != nil {
		cb(e, result, failure)
	}
}

// bridgeState is the process-wide singleton backing the single-request
// path: a thread-local multi_handle, event list, and global timer
// collapse here to one HTTPTransferEngine instance, one
// transfer-id -> curlEvent map, and the global socket/timer callbacks
// installed once at Setup.
type bridgeState struct {
	engine  TransferEngine
	backend reactor.Backend
	sched   api.Scheduler
	cfg     *control.ConfigStore
	metrics *control.MetricsRegistry

	mu           sync.Mutex
	byTransfer   map[uint64]*curlEvent
	socketEvents map[uintptr]coroutine.Event
	timer        coroutine.Event
}

func newBridgeState(backend reactor.Backend, sched api.Scheduler, cfg *control.ConfigStore, metrics *control.MetricsRegistry) *bridgeState {
	bs := &bridgeState{
		engine:       NewHTTPTransferEngine(),
		backend:      backend,
		sched:        sched,
		cfg:          cfg,
		metrics:      metrics,
		byTransfer:   make(map[uint64]*curlEvent),
		socketEvents: make(map[uintptr]coroutine.Event),
	}
	bs.engine.SetSocketCallback(bs.onSocket, nil)
	bs.engine.SetTimerCallback(bs.onTimer, nil)
	return bs
}

// drainLimit reads the current bridge drain-limit tunable through the
// config store's typed accessor, falling back to a sane default if the
// config store carries no override (or there is none, in tests that
// construct a bridgeState directly).
func (bs *bridgeState) drainLimit() int {
	const fallback = 64
	if bs.cfg == nil {
		return fallback
	}
	if n := bs.cfg.BridgeDrainLimit(fallback); n > 0 {
		return n
	}
	return fallback
}

func (bs *bridgeState) close() error {
	bs.mu.Lock()
	for fd, ev := range bs.socketEvents {
		delete(bs.socketEvents, fd)
		ev.Dispose()
	}
	if bs.timer != nil {
		bs.timer.Dispose()
		bs.timer = nil
	}
	bs.mu.Unlock()
	return bs.engine.Close()
}

// onSocket is the engine's global socket callback for the single-request
// path.
func (bs *bridgeState) onSocket(t *Transfer, fd uintptr, action SocketAction, _ any, _ any) {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	if action == ActionRemove {
		if ev, ok := bs.socketEvents[fd]; ok {
			delete(bs.socketEvents, fd)
			ev.Dispose()
		}
		return
	}

	bits := actionToBits(action)
	if ev, ok := bs.socketEvents[fd]; ok {
		if rs, ok2 := ev.(requestedSetter); ok2 {
			_ = rs.SetRequested(bits)
		}
		return
	}

	ev := coroutine.NewSocketEvent(bs.backend, fd, bits)
	ev.AddCallback(func(ev coroutine.Event, _ any, _ error) {
		bs.pollDispatch(fd, ev)
	})
	bs.socketEvents[fd] = ev
	if err := ev.Start(); err != nil {
		xlog.L().Warn("bridge: failed to start socket event", zap.Uintptr("fd", fd), zap.Error(err))
	}
}

func (bs *bridgeState) pollDispatch(fd uintptr, ev coroutine.Event) {
	action := bitsToAction(ev.TriggeredEvents())
	if _, err := bs.engine.SocketAction(fd, action); err != nil {
		xlog.L().Warn("bridge: socket_action failed", zap.Error(err))
	}
	bs.drain()
}

// onTimer is the engine's global timer callback for the single-request
// path.
func (bs *bridgeState) onTimer(timeoutMs int, _ any) {
	bs.mu.Lock()
	if bs.timer != nil {
		bs.timer.Dispose()
		bs.timer = nil
	}
	if timeoutMs < 0 {
		bs.mu.Unlock()
		return
	}
	t := coroutine.NewTimerEvent(bs.sched, int64(timeoutMs)*int64(time.Millisecond), false)
	t.AddCallback(func(coroutine.Event, any, error) {
		if _, err := bs.engine.SocketAction(TimeoutSocket, ActionNone); err != nil {
			xlog.L().Warn("bridge: timer socket_action failed", zap.Error(err))
		}
		bs.drain()
	})
	bs.timer = t
	bs.mu.Unlock()
	_ = t.Start()
}

// drain reads every completed-transfer message and notifies its
// awaiter. A matching event found for msg.Transfer.id is the
// notify-and-stop path; no match means the transfer was already
// reclaimed (e.g. its waker gave up) and the message is simply skipped.
func (bs *bridgeState) drain() {
	limit := bs.drainLimit()
	for i := 0; i < limit; i++ {
		msg, ok := bs.engine.NextMessage()
		if !ok {
			return
		}
		bs.mu.Lock()
		ev, found := bs.byTransfer[msg.Transfer.id]
		if found {
			delete(bs.byTransfer, msg.Transfer.id)
		}
		bs.mu.Unlock()
		if !found {
			continue
		}
		_ = ev.Stop()
		ev.fire(msg.Status, nil)
		bs.recordCompletion()
	}
}

// recordCompletion bumps the shared transfer-completion counter through
// MetricsRegistry's own typed increment, which owns its lock
// independently of bs.mu so draining never serializes behind a metrics
// read.
func (bs *bridgeState) recordCompletion() {
	if bs.metrics != nil {
		bs.metrics.IncrementBridgeTransfersCompleted()
	}
}

// PerformAsync implements the single-request perform_async contract:
// drive req to completion through the shared bridge and return the
// engine's status code.
func PerformAsync(ctx context.Context, req *http.Request) (StatusCode, Errno) {
	co, err := coroutine.Current(ctx)
	if err != nil {
		return StatusFailedInit, EINVAL
	}
	bs := bridge()
	if bs == nil {
		return StatusFailedInit, ENOMEM
	}

	t := &Transfer{Request: req}
	ev := &curlEvent{bs: bs, transfer: t}

	w := coroutine.NewWaker(co)
	ev.AddCallback(func(_ coroutine.Event, result any, failure error) {
		if failure != nil {
			w.ResumeWithError(failure)
			return
		}
		if status, ok := result.(int); ok {
			w.SetAccumulator(status)
		}
		w.Resume()
	})
	w.Link(ev)

	if err := ev.Start(); err != nil {
		w.Destroy()
		return StatusFailedInit, ENOMEM
	}

	status, failure := w.Wait()
	w.Destroy()
	if failure != nil {
		return StatusAbortedByCallback, ToErrno(failure)
	}
	return StatusCode(status), 0
}

// MultiHandle is the external transfer-multi handle callers of the
// multi-handle mode create explicitly. Each owns its own TransferEngine
// and (lazily) its own BridgeCtx, so its socket/timer callbacks never
// cross-talk with another multi-handle or with the global
// single-request path.
type MultiHandle struct {
	engine TransferEngine

	mu  sync.Mutex
	ctx *BridgeCtx
}

// NewMultiHandle constructs an empty multi-handle.
func NewMultiHandle() *MultiHandle {
	return &MultiHandle{engine: NewHTTPTransferEngine()}
}

// AddTransfer registers t on the multi-handle's engine.
func (m *MultiHandle) AddTransfer(t *Transfer) error {
	return m.engine.AddTransfer(t)
}

// Close disposes the multi-handle's BridgeCtx (if created) and engine.
func (m *MultiHandle) Close() error {
	m.mu.Lock()
	ctx := m.ctx
	m.ctx = nil
	m.mu.Unlock()
	if ctx != nil {
		ctx.dispose()
	}
	return m.engine.Close()
}

// BridgeCtx is per-multi-handle state integrating an external transfer
// engine's socket/timer callback protocol with the reactor.
type BridgeCtx struct {
	multi   *MultiHandle
	backend reactor.Backend
	sched   api.Scheduler

	mu          sync.Mutex
	pollList    map[uintptr]coroutine.Event
	timer       coroutine.Event
	subscribers []*ctxNotifyEvent
}

func newBridgeCtx(m *MultiHandle, backend reactor.Backend, sched api.Scheduler) *BridgeCtx {
	ctx := &BridgeCtx{
		multi:    m,
		backend:  backend,
		sched:    sched,
		pollList: make(map[uintptr]coroutine.Event),
	}
	m.engine.SetSocketCallback(ctx.onSocket, nil)
	m.engine.SetTimerCallback(ctx.onTimer, nil)
	return ctx
}

// onSocket: on REMOVE, detach from poll_list before
// disposing (safe under reentry from socket_action), notifying
// subscribers synchronously if the map just emptied; otherwise create or
// widen the tracked event for fd.
func (bc *BridgeCtx) onSocket(_ *Transfer, fd uintptr, action SocketAction, _ any, _ any) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if action == ActionRemove {
		if ev, ok := bc.pollList[fd]; ok {
			delete(bc.pollList, fd)
			ev.Dispose()
			if len(bc.pollList) == 0 {
				bc.notifyLocked(nil)
			}
		}
		return
	}

	bits := actionToBits(action)
	if ev, ok := bc.pollList[fd]; ok {
		if rs, ok2 := ev.(requestedSetter); ok2 {
			_ = rs.SetRequested(bits)
		}
		return
	}

	ev := coroutine.NewSocketEvent(bc.backend, fd, bits)
	ev.AddCallback(func(coroutine.Event, any, error) {
		bc.pollDispatch(fd)
	})
	bc.pollList[fd] = ev
	if err := ev.Start(); err != nil {
		xlog.L().Warn("bridge ctx: failed to start socket event", zap.Uintptr("fd", fd), zap.Error(err))
	}
}

// onTimer mirrors the engine's timer rearm/cancel notification.
func (bc *BridgeCtx) onTimer(timeoutMs int, _ any) {
	bc.mu.Lock()
	if bc.timer != nil {
		bc.timer.Dispose()
		bc.timer = nil
	}
	if timeoutMs < 0 {
		bc.mu.Unlock()
		return
	}
	t := coroutine.NewTimerEvent(bc.sched, int64(timeoutMs)*int64(time.Millisecond), false)
	t.AddCallback(func(coroutine.Event, any, error) {
		if _, err := bc.multi.engine.SocketAction(TimeoutSocket, ActionNone); err != nil {
			xlog.L().Warn("bridge ctx: timer socket_action failed", zap.Error(err))
		}
	})
	bc.timer = t
	bc.mu.Unlock()
	_ = t.Start()
}

// pollDispatch translates triggered bits into the engine's action mask
// and calls socket_action, tolerating the reentrant socket/timer
// callbacks that call may trigger.
func (bc *BridgeCtx) pollDispatch(fd uintptr) {
	bc.mu.Lock()
	ev, ok := bc.pollList[fd]
	bc.mu.Unlock()
	if !ok {
		return
	}
	action := bitsToAction(ev.TriggeredEvents())
	if _, err := bc.multi.engine.SocketAction(fd, action); err != nil {
		xlog.L().Warn("bridge ctx: socket_action failed", zap.Error(err))
	}
}

// notifyLocked fires every pending subscriber with err and clears the
// list. Caller must hold bc.mu.
func (bc *BridgeCtx) notifyLocked(err error) {
	subs := bc.subscribers
	bc.subscribers = nil
	for _, s := range subs {
		s.fire(nil, err)
	}
}

func (bc *BridgeCtx) subscribe(ev *ctxNotifyEvent) {
	bc.mu.Lock()
	bc.subscribers = append(bc.subscribers, ev)
	bc.mu.Unlock()
}

func (bc *BridgeCtx) dispose() {
	bc.mu.Lock()
	for fd, ev := range bc.pollList {
		delete(bc.pollList, fd)
		ev.Dispose()
	}
	if bc.timer != nil {
		bc.timer.Dispose()
		bc.timer = nil
	}
	bc.mu.Unlock()
}

func ensureCtx(m *MultiHandle, bs *bridgeState) *BridgeCtx {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctx == nil {
		m.ctx = newBridgeCtx(m, bs.backend, bs.sched)
	}
	return m.ctx
}

// ctxNotifyEvent is the lightweight Event a multi_select_async
// suspension links against: it owns no fd or timer of its own, it only
// relays the ctx's synchronous notify to whichever waker is currently
// linked.
type ctxNotifyEvent struct {
	mu       sync.Mutex
	callback coroutine.Callback
}

func (e *ctxNotifyEvent) Start() error                          { return nil }
func (e *ctxNotifyEvent) Stop() error                            { return nil }
func (e *ctxNotifyEvent) Dispose()                                {}
func (e *ctxNotifyEvent) AddCallback(cb coroutine.Callback)      { e.mu.Lock(); e.callback = cb; e.mu.Unlock() }
func (e *ctxNotifyEvent) DelCallback(coroutine.Callback)          { e.mu.Lock(); e.callback = nil; e.mu.Unlock() }
func (e *ctxNotifyEvent) TriggeredEvents() api.EventBits          { return 0 }
func (e *ctxNotifyEvent) Retain()                                 {}
func (e *ctxNotifyEvent) Release()                                {}

func (e *ctxNotifyEvent) fire(result any, failure error) {
	e.mu.Lock()
	cb := e.callback
	e.mu.Unlock()
	if cb != nil {
		cb(e, result, failure)
	}
}

// MultiSelectAsync implements multi_select_async: suspend until
// either poll_list empties synchronously or the timeout fires. A
// timeout is the expected outcome, not an error: it resolves OK with
// numFds set to the current poll_list size instead of propagating
// ETIMEDOUT, the one exception to this bridge's otherwise-uniform error
// mapping.
func MultiSelectAsync(ctx context.Context, m *MultiHandle, timeoutMs int) (numFds int, status StatusCode) {
	co, err := coroutine.Current(ctx)
	if err != nil {
		return 0, StatusInternalError
	}
	bs := bridge()
	if bs == nil {
		return 0, StatusInternalError
	}
	bc := ensureCtx(m, bs)

	sched, serr := scheduler()
	if serr != nil {
		return 0, StatusInternalError
	}
	w, werr := coroutine.NewWakerWithTimeout(co, sched, int64(timeoutMs)*int64(time.Millisecond))
	if werr != nil {
		return 0, StatusInternalError
	}

	notify := &ctxNotifyEvent{}
	notify.AddCallback(func(_ coroutine.Event, _ any, failure error) {
		if failure != nil {
			w.ResumeWithError(failure)
			return
		}
		w.Resume()
	})
	w.Link(notify)
	bc.subscribe(notify)

	if _, err := m.engine.SocketAction(TimeoutSocket, ActionNone); err != nil {
		w.Destroy()
		return 0, StatusInternalError
	}

	_, failure := w.Wait()
	w.Destroy()

	bc.mu.Lock()
	n := len(bc.pollList)
	bc.mu.Unlock()

	if failure != nil {
		if Classify(failure) == FailureTimeout {
			return n, StatusOK
		}
		return n, StatusInternalError
	}
	return n, StatusOK
}

// MultiPerformAsync implements multi_perform_async: a synchronous kick,
// no suspension, no coroutine-context requirement.
func MultiPerformAsync(m *MultiHandle) (running int, status StatusCode) {
	bs := bridge()
	if bs == nil {
		return 0, StatusInternalError
	}
	bc := ensureCtx(m, bs)

	if _, err := m.engine.SocketAction(TimeoutSocket, ActionNone); err != nil {
		return 0, StatusInternalError
	}

	bc.mu.Lock()
	n := len(bc.pollList)
	bc.mu.Unlock()
	return n, StatusOK
}
