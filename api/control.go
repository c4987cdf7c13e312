// File: api/control.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Control and Debug contracts the control package's ConfigStore, metrics
// registry, and debug probes are bridged behind.

package api

// Debug exposes named introspection probes (platform counters, live
// coroutine counts, and similar) for external inspection tooling.
type Debug interface {
	// RegisterProbe installs a named probe function.
	RegisterProbe(name string, fn func() any)
	// DumpState evaluates every registered probe and returns the results.
	DumpState() map[string]any
}

// Control aggregates tunable configuration, metrics, and debug probes
// behind one facade, the way adapters.ControlAdapter implements it.
type Control interface {
	// GetConfig returns a snapshot of the current configuration.
	GetConfig() map[string]any
	// SetConfig merges cfg into the current configuration and triggers
	// reload hooks.
	SetConfig(cfg map[string]any) error
	// Stats returns merged config, metrics, and debug probe data.
	Stats() map[string]any
	// OnReload registers a callback invoked whenever configuration changes.
	OnReload(fn func())
	// RegisterDebugProbe installs a named debug probe.
	RegisterDebugProbe(name string, fn func() any)
	// GetDebug returns the underlying Debug facade.
	GetDebug() Debug
}
