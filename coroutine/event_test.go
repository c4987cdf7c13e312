package coroutine_test

import (
	"os"
	"testing"
	"time"

	"github.com/momentics/hioload-ws/api"
	"github.com/momentics/hioload-ws/coroutine"
	"github.com/momentics/hioload-ws/internal/reactor"
)

func TestSocketEventDeliversReadability(t *testing.T) {
	backend, err := reactor.NewBackend()
	if err != nil {
		t.Skipf("no reactor backend: %v", err)
	}
	defer backend.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	ev := coroutine.NewSocketEvent(backend, r.Fd(), api.Readable)
	fired := make(chan api.EventBits, 1)
	ev.AddCallback(func(_ coroutine.Event, result any, failure error) {
		fired <- result.(api.EventBits)
	})
	if err := ev.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := w.Write([]byte("y")); err != nil {
		t.Fatalf("write: %v", err)
	}

	go func() { _ = backend.Poll(1000) }()

	select {
	case bits := <-fired:
		if !bits.Has(api.Readable) {
			t.Errorf("expected Readable bit, got %v", bits)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for socket event")
	}
	ev.Dispose()
}

func TestTimerEventFires(t *testing.T) {
	sched := coroutine.NewSystemScheduler()
	ev := coroutine.NewTimerEvent(sched, int64(10*time.Millisecond), false)
	fired := make(chan struct{})
	ev.AddCallback(func(_ coroutine.Event, _ any, _ error) { close(fired) })
	if err := ev.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer event did not fire")
	}
	ev.Dispose()
}
