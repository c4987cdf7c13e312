// control/metrics_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"sync"
	"testing"

	"github.com/momentics/hioload-ws/control"
)

func TestMetricsRegistryTypedIncrements(t *testing.T) {
	mr := control.NewMetricsRegistry()
	if n := mr.IncrementBridgeTransfersCompleted(); n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	if n := mr.IncrementBridgeTransfersCompleted(); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
	if n := mr.IncrementDNSResolutions(); n != 1 {
		t.Fatalf("expected independent counter starting at 1, got %d", n)
	}

	snap := mr.GetSnapshot()
	if snap[control.KeyBridgeTransfersCompleted] != int64(2) {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestMetricsRegistryConcurrentIncrements(t *testing.T) {
	mr := control.NewMetricsRegistry()
	const n = 100
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			mr.IncrementBridgeTransfersCompleted()
		}()
	}
	wg.Wait()

	snap := mr.GetSnapshot()
	if snap[control.KeyBridgeTransfersCompleted] != int64(n) {
		t.Fatalf("expected %d, got %v", n, snap[control.KeyBridgeTransfersCompleted])
	}
}
