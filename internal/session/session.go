// File: internal/session/session.go
// Package session
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-coroutine registry entry: cancellation, optional deadline, and a
// context store of its own (Coroutine.Context() returns a separate store
// the Coroutine allocates itself).

package session

import (
	"sync"
	"time"

	"github.com/momentics/hioload-ws/api"
)

// sessionImpl tracks one live coroutine's registry entry.
type sessionImpl struct {
	id       CoroutineID
	ctx      api.Context
	done     chan struct{}
	once     sync.Once
	deadline time.Time
}

// newSession creates a registry entry for id.
func newSession(id CoroutineID) *sessionImpl {
	return &sessionImpl{
		id:   id,
		ctx:  NewContextStore(),
		done: make(chan struct{}),
	}
}

// ID returns the coroutine identifier this entry was registered under.
func (s *sessionImpl) ID() CoroutineID {
	return s.id
}

// Context returns the underlying api.Context.
func (s *sessionImpl) Context() api.Context {
	return s.ctx
}

// Cancel signals registry teardown; idempotent.
func (s *sessionImpl) Cancel() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Done returns a channel closed upon cancellation.
func (s *sessionImpl) Done() <-chan struct{} {
	return s.done
}

// Deadline returns the entry's expiration if one was set.
func (s *sessionImpl) Deadline() (time.Time, bool) {
	if s.deadline.IsZero() {
		return time.Time{}, false
	}
	return s.deadline, true
}

// WithDeadline sets an absolute deadline for the entry.
func (s *sessionImpl) WithDeadline(t time.Time) {
	s.deadline = t
}
