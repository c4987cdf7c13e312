// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Thread-safe configuration store with dynamic update and hot-reload
// propagation, plus typed accessors for this module's own tunables so
// asyncio/bridge.go and asyncio/poll.go don't have to type-assert a
// map[string]any at every read.

package control

import (
	"sync"
)

// Tunable keys this module reads and writes through the typed accessors
// below. They remain ordinary config keys so a caller can also set them
// through the generic SetConfig map, e.g. for a config file or flag
// parser that doesn't know about the typed accessors.
const (
	KeyPollBatchSize      = "asyncio.poll_batch_size"
	KeyDNSCacheTTLSeconds = "asyncio.dns_cache_ttl_seconds"
	KeyBridgeDrainLimit   = "asyncio.bridge_drain_limit"
)

// ConfigStore is a dynamic key/value map with atomic snapshot and listener support.
type ConfigStore struct {
	mu        sync.RWMutex
	config    map[string]any
	listeners []func()
}

// NewConfigStore initializes a new config store with empty data.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		config:    make(map[string]any),
		listeners: make([]func(), 0),
	}
}

// GetSnapshot returns a copy of all config values.
func (cs *ConfigStore) GetSnapshot() map[string]any {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	copy := make(map[string]any, len(cs.config))
	for k, v := range cs.config {
		copy[k] = v
	}
	return copy
}

// SetConfig merges new values and dispatches reload if needed.
func (cs *ConfigStore) SetConfig(newCfg map[string]any) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for k, v := range newCfg {
		cs.config[k] = v
	}
	cs.dispatchReload()
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func()) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}

// dispatchReload invokes all listeners.
func (cs *ConfigStore) dispatchReload() {
	for _, fn := range cs.listeners {
		go fn()
	}
}

// intTunable reads key as an int, returning defaultVal if the key is
// unset or holds a value of a different type.
func (cs *ConfigStore) intTunable(key string, defaultVal int) int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if v, ok := cs.config[key]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return defaultVal
}

// PollBatchSize caps how many descriptors a single PollAsync/SelectAsync
// call may register before returning EINVAL, defaulting to defaultVal
// when unset.
func (cs *ConfigStore) PollBatchSize(defaultVal int) int {
	return cs.intTunable(KeyPollBatchSize, defaultVal)
}

// SetPollBatchSize sets the poll/select batch-size tunable and triggers
// reload hooks.
func (cs *ConfigStore) SetPollBatchSize(n int) {
	cs.SetConfig(map[string]any{KeyPollBatchSize: n})
}

// DNSCacheTTLSeconds returns the advisory TTL a caller layering a cache
// on GetAddrInfoAsync should honor; the adapter itself does no caching.
func (cs *ConfigStore) DNSCacheTTLSeconds(defaultVal int) int {
	return cs.intTunable(KeyDNSCacheTTLSeconds, defaultVal)
}

// SetDNSCacheTTLSeconds sets the DNS cache TTL tunable and triggers
// reload hooks.
func (cs *ConfigStore) SetDNSCacheTTLSeconds(seconds int) {
	cs.SetConfig(map[string]any{KeyDNSCacheTTLSeconds: seconds})
}

// BridgeDrainLimit bounds how many completion messages bridgeState.drain
// processes per reactor callback invocation, defaulting to defaultVal
// when unset.
func (cs *ConfigStore) BridgeDrainLimit(defaultVal int) int {
	return cs.intTunable(KeyBridgeDrainLimit, defaultVal)
}

// SetBridgeDrainLimit sets the bridge drain-limit tunable and triggers
// reload hooks.
func (cs *ConfigStore) SetBridgeDrainLimit(n int) {
	cs.SetConfig(map[string]any{KeyBridgeDrainLimit: n})
}
