// control/config_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"testing"

	"github.com/momentics/hioload-ws/control"
)

func TestConfigStoreTypedAccessorsDefault(t *testing.T) {
	cs := control.NewConfigStore()
	if n := cs.PollBatchSize(256); n != 256 {
		t.Fatalf("expected default 256, got %d", n)
	}
	if n := cs.BridgeDrainLimit(64); n != 64 {
		t.Fatalf("expected default 64, got %d", n)
	}
}

func TestConfigStoreTypedAccessorsRoundTrip(t *testing.T) {
	cs := control.NewConfigStore()
	cs.SetPollBatchSize(128)
	cs.SetDNSCacheTTLSeconds(30)
	cs.SetBridgeDrainLimit(16)

	if n := cs.PollBatchSize(256); n != 128 {
		t.Fatalf("expected 128, got %d", n)
	}
	if n := cs.DNSCacheTTLSeconds(60); n != 30 {
		t.Fatalf("expected 30, got %d", n)
	}
	if n := cs.BridgeDrainLimit(64); n != 16 {
		t.Fatalf("expected 16, got %d", n)
	}

	snap := cs.GetSnapshot()
	if snap[control.KeyBridgeDrainLimit] != 16 {
		t.Fatalf("expected generic snapshot to reflect typed set, got %+v", snap)
	}
}

func TestConfigStoreSnapshotEmptyOnInit(t *testing.T) {
	cs := control.NewConfigStore()
	if len(cs.GetSnapshot()) != 0 {
		t.Fatal("expected empty snapshot for a fresh ConfigStore")
	}
}
