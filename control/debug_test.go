// control/debug_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"testing"

	"github.com/momentics/hioload-ws/control"
)

func TestRegisterMetricsProbesDumpsCounters(t *testing.T) {
	dp := control.NewDebugProbes()
	mr := control.NewMetricsRegistry()
	control.RegisterMetricsProbes(dp, mr)

	mr.IncrementBridgeTransfersCompleted()
	mr.IncrementDNSResolutions()
	mr.IncrementDNSResolutions()

	state := dp.DumpState()
	if state[control.KeyBridgeTransfersCompleted] != int64(1) {
		t.Fatalf("unexpected bridge counter: %+v", state)
	}
	if state[control.KeyDNSResolutions] != int64(2) {
		t.Fatalf("unexpected dns counter: %+v", state)
	}
}
