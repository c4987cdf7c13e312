// File: asyncio/lifetime.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Global lifetime management. A thread-local multi_handle, event list,
// and global timer maps here onto one process-wide reactor backend and
// scheduler shared across every coroutine, guarded by a mutex instead of
// OS-thread affinity: Go's M:N goroutine scheduling means pinning state
// to an OS thread would not actually scope it to one cooperative
// scheduler the way it does in a single-threaded embedding. Setup and
// Shutdown are idempotent and refcounted.

package asyncio

import (
	"sync"

	"github.com/momentics/hioload-ws/api"
	"github.com/momentics/hioload-ws/control"
	"github.com/momentics/hioload-ws/coroutine"
	"github.com/momentics/hioload-ws/internal/reactor"
	"github.com/momentics/hioload-ws/xlog"
	"go.uber.org/zap"
)

var (
	lifecycleMu sync.Mutex
	refCount    int

	globalBackend reactor.Backend
	globalSched   api.Scheduler
	globalBridge  *bridgeState
	globalConfig  *control.ConfigStore
	globalMetrics *control.MetricsRegistry

	pollStop chan struct{}
	pollWG   sync.WaitGroup
)

// Setup lazily creates the shared reactor backend and scheduler on first
// call and starts the background poll loop; nested calls only bump a
// refcount. Pass a non-nil logger to wire structured logging; pass nil
// to keep the no-op default.
func Setup(logger *zap.Logger) error {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	if logger != nil {
		xlog.SetGlobal(logger)
	}

	refCount++
	if refCount > 1 {
		return nil
	}

	backend, err := reactor.NewBackend()
	if err != nil {
		refCount--
		return err
	}
	globalBackend = backend
	globalSched = coroutine.NewSystemScheduler()
	globalConfig = DefaultConfig()
	globalMetrics = control.NewMetricsRegistry()
	globalBridge = newBridgeState(backend, globalSched, globalConfig, globalMetrics)
	pollStop = make(chan struct{})

	pollWG.Add(1)
	go pollLoop()

	xlog.L().Info("asyncio setup complete")
	return nil
}

func pollLoop() {
	defer pollWG.Done()
	for {
		select {
		case <-pollStop:
			return
		default:
		}
		if err := globalBackend.Poll(100); err != nil {
			xlog.L().Warn("asyncio poll loop error", zap.Error(err))
		}
	}
}

// Shutdown reverses one Setup call; the backend and scheduler are
// released only when the refcount reaches zero.
func Shutdown() error {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()

	if refCount == 0 {
		return nil
	}
	refCount--
	if refCount > 0 {
		return nil
	}

	close(pollStop)
	pollWG.Wait()

	if globalBridge != nil {
		if err := globalBridge.close(); err != nil {
			xlog.L().Warn("asyncio shutdown: bridge close failed", zap.Error(err))
		}
	}

	err := globalBackend.Close()
	globalBackend = nil
	globalSched = nil
	globalBridge = nil
	globalConfig = nil
	globalMetrics = nil
	xlog.L().Info("asyncio shutdown complete")
	return err
}

func backend() (reactor.Backend, error) {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()
	if globalBackend == nil {
		return nil, api.ErrNotSupported
	}
	return globalBackend, nil
}

func scheduler() (api.Scheduler, error) {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()
	if globalSched == nil {
		return nil, api.ErrNotSupported
	}
	return globalSched, nil
}

func bridge() *bridgeState {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()
	return globalBridge
}

// Config returns the shared tunables ConfigStore installed by Setup, or
// nil before the first Setup call.
func Config() *control.ConfigStore {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()
	return globalConfig
}

// Metrics returns the shared MetricsRegistry installed by Setup, or nil
// before the first Setup call. PerformAsync and GetAddrInfoAsync record
// completion counters here; callers can fold the snapshot into their own
// control.Control.Stats() surface.
func Metrics() *control.MetricsRegistry {
	lifecycleMu.Lock()
	defer lifecycleMu.Unlock()
	return globalMetrics
}
