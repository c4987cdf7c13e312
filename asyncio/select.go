// File: asyncio/select.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// select_async emulates fd_set-based select(2). The fd range [0, maxFD)
// is treated as an exclusive upper bound: the legacy API calls the
// parameter "inclusive" but every POSIX implementation actually iterates
// fds 0..maxFD-1, and that is the convention tested here.

package asyncio

import (
	"context"
	"math"

	"github.com/momentics/hioload-ws/api"
	"github.com/momentics/hioload-ws/coroutine"
)

// FDSet is a sparse legacy fd_set stand-in: a set of file descriptors
// represented as a map for simplicity (the legacy fixed-size bitmap is
// an ABI detail callers on the embedding side translate to/from).
type FDSet map[uintptr]struct{}

// NewFDSet builds an FDSet from the given descriptors.
func NewFDSet(fds ...uintptr) FDSet {
	s := make(FDSet, len(fds))
	for _, fd := range fds {
		s[fd] = struct{}{}
	}
	return s
}

func (s FDSet) has(fd uintptr) bool { _, ok := s[fd]; return ok }
func (s FDSet) set(fd uintptr)      { s[fd] = struct{}{} }

// SelectAsync implements the select_async contract. rfds/wfds/efds may
// be nil (meaning "not interested"); when non-nil they are read for the
// requested bits and then overwritten in place with the result.
// timeoutMs < 0 waits indefinitely.
func SelectAsync(ctx context.Context, maxFD int, rfds, wfds, efds *FDSet, timeoutMs int) (int, Errno) {
	co, err := coroutine.Current(ctx)
	if err != nil {
		return -1, EINVAL
	}
	if maxFD > math.MaxInt32 {
		return -1, EINVAL
	}
	if cfg := Config(); cfg != nil {
		if limit := cfg.PollBatchSize(defaultPollBatchSize); maxFD > limit {
			return -1, EINVAL
		}
	}

	b, err := backend()
	if err != nil {
		return -1, ENOMEM
	}

	scratchR, scratchW, scratchE := FDSet{}, FDSet{}, FDSet{}

	w, werr := newTimedWaker(co, timeoutMs)
	if werr != nil {
		return -1, ENOMEM
	}

	for fd := 0; fd < maxFD; fd++ {
		fdv := uintptr(fd)
		var bits api.EventBits
		if rfds != nil && rfds.has(fdv) {
			bits |= api.Readable
		}
		if wfds != nil && wfds.has(fdv) {
			bits |= api.Writable
		}
		if efds != nil && efds.has(fdv) {
			bits |= api.Disconnect | api.Prioritized
		}
		if bits == 0 {
			continue
		}

		target := fdv
		ev := coroutine.NewSocketEvent(b, target, bits)
		rec := coroutine.NewCallbackRecord(w, func(result any) {
			triggered := result.(api.EventBits)
			if triggered.Has(api.Readable) {
				scratchR.set(target)
			}
			if triggered.Has(api.Writable) {
				scratchW.set(target)
			}
			if triggered.Has(api.Disconnect) || triggered.Has(api.Prioritized) {
				scratchE.set(target)
			}
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

	if rfds != nil {
		*rfds = scratchR
	}
	if wfds != nil {
		*wfds = scratchW
	}
	if efds != nil {
		*efds = scratchE
	}
	return n, 0
}

// TimevalToMillis converts a (seconds, microseconds) timeval pair to the
// millisecond timeout SelectAsync expects.
func TimevalToMillis(sec, usec int64) int {
	return int(sec*1000 + usec/1000)
}
