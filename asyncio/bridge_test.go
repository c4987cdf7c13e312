// File: asyncio/bridge_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package asyncio

import (
	"fmt"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-ws/coroutine"
)

// fakeBridgeEngine completes every transfer the instant AddTransfer is
// called, giving bridgeState.drain a deterministic backlog to race over
// without needing a real socket or HTTP round trip.
type fakeBridgeEngine struct {
	mu       sync.Mutex
	socketCB SocketCallback
	timerCB  TimerCallback
	nextID   uint64
	msgs     []*Message
}

func (f *fakeBridgeEngine) SetSocketCallback(cb SocketCallback, _ any) {
	f.mu.Lock()
	f.socketCB = cb
	f.mu.Unlock()
}

func (f *fakeBridgeEngine) SetTimerCallback(cb TimerCallback, _ any) {
	f.mu.Lock()
	f.timerCB = cb
	f.mu.Unlock()
}

func (f *fakeBridgeEngine) AddTransfer(t *Transfer) error {
	f.mu.Lock()
	f.nextID++
	t.id = f.nextID
	f.msgs = append(f.msgs, &Message{Transfer: t, Status: int(StatusOK)})
	f.mu.Unlock()
	return nil
}

func (f *fakeBridgeEngine) RemoveTransfer(*Transfer) error { return nil }

func (f *fakeBridgeEngine) SocketAction(uintptr, SocketAction) (int, error) { return 0, nil }

func (f *fakeBridgeEngine) NextMessage() (*Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return nil, false
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, true
}

func (f *fakeBridgeEngine) Close() error { return nil }

// TestBridgeStateReentrantDrain exercises many coroutines concurrently
// starting transfers against one shared bridgeState and draining them,
// the same reentry pattern the single-request path produces when several
// perform_async callers race each other.
func TestBridgeStateReentrantDrain(t *testing.T) {
	engine := &fakeBridgeEngine{}
	bs := &bridgeState{
		engine:       engine,
		byTransfer:   make(map[uint64]*curlEvent),
		socketEvents: make(map[uintptr]coroutine.Event),
	}

	const n = 32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		g.Go(func() error {
			co := coroutine.New()
			tr := &Transfer{}
			ev := &curlEvent{bs: bs, transfer: tr}
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
				return err
			}
			bs.drain()
			status, failure := w.Wait()
			w.Destroy()
			if failure != nil {
				return failure
			}
			if StatusCode(status) != StatusOK {
				return fmt.Errorf("unexpected status %d", status)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("reentrant drain: %v", err)
	}
	if len(bs.byTransfer) != 0 {
		t.Fatalf("expected byTransfer drained, got %d entries left", len(bs.byTransfer))
	}
}
