// File: xlog/xlog.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package xlog centralizes structured logging for the async adapters.
// Default is a no-op logger; callers wire a real *zap.Logger via SetGlobal
// during setup (see asyncio.Setup).

package xlog

import "go.uber.org/zap"

var global = zap.NewNop()

// SetGlobal installs l as the package-wide logger. Passing nil restores
// the no-op logger.
func SetGlobal(l *zap.Logger) {
	if l == nil {
		global = zap.NewNop()
		return
	}
	global = l
}

// L returns the current global logger.
func L() *zap.Logger { return global }

// Named returns a child logger scoped to name.
func Named(name string) *zap.Logger { return global.Named(name) }
