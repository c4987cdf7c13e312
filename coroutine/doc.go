// File: coroutine/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package coroutine supplies the suspend/resume substrate the async
// adapters are built on: a Coroutine carries a per-goroutine context
// store and end-of-life hooks, a Waker accumulates partial results across
// one suspension and owns the reactor Events linked to it, and Event is
// the polymorphic reactor object (socket readiness, timer, DNS query)
// that a Waker links against.
//
// There is no hidden thread-local "current coroutine": callers thread a
// context.Context carrying the Coroutine explicitly, the idiomatic Go
// substitute for implicit per-fiber storage.
package coroutine
