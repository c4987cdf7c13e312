package coroutine_test

import (
	"context"
	"testing"
	"time"

	"github.com/momentics/hioload-ws/control"
	"github.com/momentics/hioload-ws/coroutine"
)

func TestLiveCountTracksSpawnAndTermination(t *testing.T) {
	before := coroutine.LiveCount()

	done := make(chan struct{})
	unblock := make(chan struct{})
	co := coroutine.Spawn(context.Background(), func(ctx context.Context) {
		close(done)
		<-unblock
	})
	<-done

	if got := coroutine.LiveCount(); got != before+1 {
		t.Fatalf("expected live count %d while coroutine runs, got %d", before+1, got)
	}

	found := false
	for _, id := range coroutine.LiveIDs() {
		if id == co.ID() {
			found = true
		}
	}
	if !found {
		t.Fatal("expected spawned coroutine id in LiveIDs")
	}

	close(unblock)
	// terminate() runs asynchronously right after the body returns.
	time.Sleep(20 * time.Millisecond)

	if got := coroutine.LiveCount(); got != before {
		t.Fatalf("expected live count back to %d after termination, got %d", before, got)
	}
}

func TestRegisterDebugProbesExposesLiveCount(t *testing.T) {
	dp := control.NewDebugProbes()
	coroutine.RegisterDebugProbes(dp)

	state := dp.DumpState()
	if _, ok := state["coroutine.live"]; !ok {
		t.Fatal("expected coroutine.live probe registered")
	}
}
