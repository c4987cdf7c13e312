// File: asyncio/poll.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// poll_async emulates poll(2) against N descriptors using reactor
// socket-readiness events and a single waker.

package asyncio

import (
	"context"
	"time"

	"github.com/momentics/hioload-ws/api"
	"github.com/momentics/hioload-ws/coroutine"
)

// Entry is one poll(2) pollfd slot: Events is the requested mask on
// input, Revents is the triggered mask on output.
type Entry struct {
	Fd      uintptr
	Events  int16
	Revents int16
}

// PollAsync implements the poll_async contract. It may be called only
// from coroutine context (checked via ctx); a negative timeoutMs waits
// indefinitely, 0 polls once without suspending past the next reactor
// tick.
func PollAsync(ctx context.Context, entries []*Entry, timeoutMs int) (int, Errno) {
	co, err := coroutine.Current(ctx)
	if err != nil {
		return -1, EINVAL
	}
	if cfg := Config(); cfg != nil {
		if limit := cfg.PollBatchSize(defaultPollBatchSize); len(entries) > limit {
			return -1, EINVAL
		}
	}

	b, err := backend()
	if err != nil {
		return -1, ENOMEM
	}

	w, werr := newTimedWaker(co, timeoutMs)
	if werr != nil {
		return -1, ENOMEM
	}

	for _, e := range entries {
		entry := e
		ev := coroutine.NewSocketEvent(b, entry.Fd, PollToReactor(entry.Events))
		rec := coroutine.NewCallbackRecord(w, func(result any) {
			entry.Revents = ReactorToPoll(result.(api.EventBits))
		})
		ev.AddCallback(rec.Fire)
		w.Link(ev)
		if err := ev.Start(); err != nil {
			w.Destroy()
			return -1, ENOMEM
		}
	}

	n, failure := w.Wait()
	w.Destroy()
	if failure != nil {
		return -1, ToErrno(failure)
	}
	return n, 0
}

// newTimedWaker builds a waker honoring poll/select's timeoutMs
// convention: negative means infinite, non-negative resumes the waker
// without a failure after that many milliseconds (0 fires on the next
// tick), so a timeout with nothing ready returns 0.
func newTimedWaker(co *coroutine.Coroutine, timeoutMs int) (*coroutine.Waker, error) {
	if timeoutMs < 0 {
		return coroutine.NewWaker(co), nil
	}
	sched, err := scheduler()
	if err != nil {
		return nil, err
	}
	return coroutine.NewWakerWithSoftTimeout(co, sched, int64(timeoutMs)*int64(time.Millisecond))
}
