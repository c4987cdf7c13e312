package reactor_test

import (
	"os"
	"testing"
	"time"

	"github.com/momentics/hioload-ws/internal/reactor"
)

func TestBackendRegisterAndPoll(t *testing.T) {
	b, err := reactor.NewBackend()
	if err != nil {
		t.Skipf("no reactor backend on this platform: %v", err)
	}
	defer b.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	fired := make(chan reactor.FDEventType, 1)
	if err := b.Register(r.Fd(), reactor.EventRead, func(fd uintptr, ev reactor.FDEventType) {
		fired <- ev
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Poll(1000)
	}()

	select {
	case ev := <-fired:
		if ev&reactor.EventRead == 0 {
			t.Errorf("expected EventRead bit set, got %v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for readiness callback")
	}
	<-done

	if err := b.Unregister(r.Fd()); err != nil {
		t.Errorf("unregister: %v", err)
	}
}
