// File: coroutine/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package coroutine

import (
	"time"

	"github.com/momentics/hioload-ws/api"
)

// timerCancelable adapts *time.Timer to api.Cancelable.
type timerCancelable struct {
	t *time.Timer
}

func (c timerCancelable) Cancel() { c.t.Stop() }

// SystemScheduler implements api.Scheduler on top of the runtime timer
// wheel (time.AfterFunc). It needs no eviction or coalescing logic of its
// own, so it does not warrant pulling in a third-party timer-wheel
// library the way the bridge's socket multiplexing warrants epoll/IOCP.
type SystemScheduler struct{}

// NewSystemScheduler returns the default api.Scheduler implementation.
func NewSystemScheduler() *SystemScheduler { return &SystemScheduler{} }

func (SystemScheduler) Schedule(delayNanos int64, fn func()) (api.Cancelable, error) {
	if delayNanos < 0 {
		delayNanos = 0
	}
	t := time.AfterFunc(time.Duration(delayNanos), fn)
	return timerCancelable{t: t}, nil
}

func (SystemScheduler) Cancel(c api.Cancelable) error {
	c.Cancel()
	return nil
}

func (SystemScheduler) Now() int64 {
	return time.Now().UnixNano()
}
