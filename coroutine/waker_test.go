package coroutine_test

import (
	"errors"
	"testing"
	"time"

	"github.com/momentics/hioload-ws/coroutine"
)

func TestWakerAccumulatorAndResume(t *testing.T) {
	co := coroutine.New()
	w := coroutine.NewWaker(co)

	w.IncrementAccumulator()
	w.IncrementAccumulator()
	w.Resume()
	// A second callback firing after resumption still bumps the count.
	w.IncrementAccumulator()

	n, err := w.Wait()
	if err != nil {
		t.Fatalf("unexpected failure: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected accumulator 3, got %d", n)
	}
	w.Destroy()
	if co.LiveWaker() != nil {
		t.Fatal("waker still live after Destroy")
	}
}

func TestWakerResumeWithError(t *testing.T) {
	co := coroutine.New()
	w := coroutine.NewWaker(co)
	wantErr := errors.New("boom")
	w.ResumeWithError(wantErr)

	_, err := w.Wait()
	if err != wantErr {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if got := w.TakeFailure(); got != wantErr {
		t.Fatalf("expected TakeFailure to return %v after Wait, got %v", wantErr, got)
	}
	if got := w.TakeFailure(); got != nil {
		t.Fatalf("expected failure cleared after first Wait+TakeFailure cycle, got %v", got)
	}
	w.Destroy()
}

func TestWakerWithTimeoutFiresWhenUnresolved(t *testing.T) {
	co := coroutine.New()
	sched := coroutine.NewSystemScheduler()
	w, err := coroutine.NewWakerWithTimeout(co, sched, int64(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWakerWithTimeout: %v", err)
	}
	start := time.Now()
	_, ferr := w.Wait()
	if ferr == nil {
		t.Fatal("expected timeout failure")
	}
	if time.Since(start) < 15*time.Millisecond {
		t.Fatal("timer fired too early")
	}
	w.Destroy()
}
