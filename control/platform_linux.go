//go:build linux
// +build linux

// control/platform_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux-specific debug probes: core count and the GOMAXPROCS bound the
// epoll-backed reactor backend's poll loop runs under.

package control

import (
	"runtime"
)

// RegisterPlatformProbes sets Linux-specific debug metrics.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.max_procs", func() any {
		return runtime.GOMAXPROCS(0)
	})
	dp.RegisterProbe("platform.os", func() any {
		return "linux"
	})
}
