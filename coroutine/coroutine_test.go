package coroutine_test

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/hioload-ws/coroutine"
)

func TestSpawnAndCurrent(t *testing.T) {
	done := make(chan struct{})
	var sawCo bool
	co := coroutine.Spawn(context.Background(), func(ctx context.Context) {
		defer close(done)
		_, err := coroutine.Current(ctx)
		sawCo = err == nil
	})
	<-done
	if !sawCo {
		t.Fatal("Current() failed to find coroutine inside Spawn")
	}
	if co.ID() == "" {
		t.Fatal("expected non-empty coroutine id")
	}
}

func TestCurrentOutsideCoroutine(t *testing.T) {
	if _, err := coroutine.Current(context.Background()); err == nil {
		t.Fatal("expected error calling Current outside coroutine context")
	}
}

func TestEndHookRunsOnTermination(t *testing.T) {
	fired := make(chan struct{})
	done := make(chan struct{})
	coroutine.Spawn(context.Background(), func(ctx context.Context) {
		defer close(done)
		co, _ := coroutine.Current(ctx)
		co.OnEnd(func() { close(fired) })
	})
	<-done
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("end hook did not fire")
	}
}

func TestOnEndAfterTerminationRunsImmediately(t *testing.T) {
	co := coroutine.New()
	co2 := co.WithContext(context.Background())
	_ = co2
	fired := make(chan struct{})
	// Simulate termination by spawning with an already-finished body.
	done := make(chan struct{})
	real := coroutine.Spawn(context.Background(), func(ctx context.Context) { close(done) })
	<-done
	time.Sleep(10 * time.Millisecond)
	real.OnEnd(func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("late OnEnd hook should fire immediately")
	}
}
