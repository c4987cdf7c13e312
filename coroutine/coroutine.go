// File: coroutine/coroutine.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package coroutine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/momentics/hioload-ws/api"
	"github.com/momentics/hioload-ws/internal/session"
)

// EndHook runs once when the owning Coroutine terminates, in LIFO order.
type EndHook func()

// Coroutine is the cooperative execution context the async adapters
// suspend and resume. It owns a propagation-aware context store (reused
// from the session package's TTL/clone machinery) and a slot for the
// single currently-live Waker.
type Coroutine struct {
	id  string
	ctx api.Context

	waker atomic.Pointer[Waker]

	mu       sync.Mutex
	done     bool
	endHooks []EndHook
}

// contextKey is the context.Context value key under which the current
// Coroutine is stored.
type contextKey struct{}

// New allocates a Coroutine. Most callers should use Spawn instead.
func New() *Coroutine {
	c := &Coroutine{
		id:  uuid.NewString(),
		ctx: session.NewContextStore(),
	}
	registerLive(c.id)
	return c
}

// ID returns the coroutine's unique identifier.
func (c *Coroutine) ID() string { return c.id }

// Context returns the coroutine's propagation-aware key/value store,
// used by the DNS adapter to hold the per-coroutine hostent-like buffer.
func (c *Coroutine) Context() api.Context { return c.ctx }

// WithContext returns a child context.Context carrying c as the current
// coroutine.
func (c *Coroutine) WithContext(parent context.Context) context.Context {
	return context.WithValue(parent, contextKey{}, c)
}

// FromContext extracts the Coroutine previously attached with
// WithContext/Spawn. ok is false when called outside coroutine context.
func FromContext(ctx context.Context) (*Coroutine, bool) {
	c, ok := ctx.Value(contextKey{}).(*Coroutine)
	return c, ok
}

// Current is the coroutine-context-required form used by adapters: it
// returns api.ErrNotInCoroutine when ctx carries no Coroutine.
func Current(ctx context.Context) (*Coroutine, error) {
	c, ok := FromContext(ctx)
	if !ok {
		return nil, api.ErrNotInCoroutine
	}
	return c, nil
}

// Spawn starts fn on a new goroutine with a freshly allocated Coroutine
// attached to its context, and runs registered end hooks (LIFO) once fn
// returns, regardless of panic.
func Spawn(parent context.Context, fn func(ctx context.Context)) *Coroutine {
	c := New()
	ctx := c.WithContext(parent)
	go func() {
		defer c.terminate()
		fn(ctx)
	}()
	return c
}

// OnEnd registers a cleanup hook invoked once when the coroutine
// terminates. If the coroutine has already terminated, hook runs
// immediately.
func (c *Coroutine) OnEnd(hook EndHook) {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		hook()
		return
	}
	c.endHooks = append(c.endHooks, hook)
	c.mu.Unlock()
}

func (c *Coroutine) terminate() {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.done = true
	hooks := c.endHooks
	c.endHooks = nil
	c.mu.Unlock()

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
	unregisterLive(c.id)
}

// setWaker installs w as the coroutine's single live waker. Panics if a
// waker is already live: an adapter never returns with its waker still
// alive, so callers never nest wakers.
func (c *Coroutine) setWaker(w *Waker) {
	if !c.waker.CompareAndSwap(nil, w) {
		panic("coroutine: waker already live")
	}
}

// clearWaker releases the coroutine's live waker slot.
func (c *Coroutine) clearWaker(w *Waker) {
	c.waker.CompareAndSwap(w, nil)
}

// LiveWaker returns the coroutine's current waker, or nil.
func (c *Coroutine) LiveWaker() *Waker {
	return c.waker.Load()
}
