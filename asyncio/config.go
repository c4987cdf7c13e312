// File: asyncio/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Tunables Setup seeds into a control.ConfigStore, the single place
// callers override adapter behavior without touching poll/select/dns/
// transfer call sites. The keys themselves and their typed accessors
// live on control.ConfigStore; this file only owns the package-specific
// defaults.

package asyncio

import "github.com/momentics/hioload-ws/control"

// Re-exported for callers that already import ConfigPollBatchSize et al
// from this package rather than control directly.
const (
	ConfigPollBatchSize      = control.KeyPollBatchSize
	ConfigDNSCacheTTLSeconds = control.KeyDNSCacheTTLSeconds
	ConfigBridgeDrainLimit   = control.KeyBridgeDrainLimit
)

const (
	defaultPollBatchSize      = 256
	defaultDNSCacheTTLSeconds = 60
	defaultBridgeDrainLimit   = 64
)

// DefaultConfig returns a ConfigStore pre-seeded with this package's
// tunable defaults through ConfigStore's typed setters. Setup calls
// this and installs the result as the shared store; callers needing
// different values call Config().SetPollBatchSize (or the other typed
// setters) after Setup. adapters.ControlAdapter owns a separate
// ConfigStore, so its SetConfig does not change these tunables.
func DefaultConfig() *control.ConfigStore {
	cfg := control.NewConfigStore()
	cfg.SetPollBatchSize(defaultPollBatchSize)
	cfg.SetDNSCacheTTLSeconds(defaultDNSCacheTTLSeconds)
	cfg.SetBridgeDrainLimit(defaultBridgeDrainLimit)
	return cfg
}
