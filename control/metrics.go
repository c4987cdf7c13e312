// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for system-level monitoring.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"sync"
	"time"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// Counter keys this module increments through the typed methods below,
// rather than callers doing read-modify-write on GetSnapshot's copy.
const (
	KeyBridgeTransfersCompleted = "bridge.transfers_completed"
	KeyDNSResolutions           = "dns.resolutions"
)

// incrementInt64 bumps key under mr's own lock and returns the new
// total. A missing or non-int64 prior value is treated as zero.
func (mr *MetricsRegistry) incrementInt64(key string) int64 {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	n, _ := mr.metrics[key].(int64)
	n++
	mr.metrics[key] = n
	mr.updated = time.Now()
	return n
}

// IncrementBridgeTransfersCompleted bumps the transfer-engine
// completion counter asyncio/bridge.go feeds after every drained
// message, and returns the new total.
func (mr *MetricsRegistry) IncrementBridgeTransfersCompleted() int64 {
	return mr.incrementInt64(KeyBridgeTransfersCompleted)
}

// IncrementDNSResolutions bumps the getaddrinfo_async completion
// counter asyncio/dns.go feeds after every resolved (or
// singleflight-shared) lookup, and returns the new total.
func (mr *MetricsRegistry) IncrementDNSResolutions() int64 {
	return mr.incrementInt64(KeyDNSResolutions)
}
