//go:build windows
// +build windows

// control/platform_windows.go
// Author: momentics <momentics@gmail.com>
//
// Windows-specific debug probes: core count and the GOMAXPROCS bound
// the IOCP-backed reactor backend's poll loop runs under.

package control

import (
	"runtime"
)

// RegisterPlatformProbes sets Windows-specific debug probes.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return runtime.NumCPU()
	})
	dp.RegisterProbe("platform.max_procs", func() any {
		return runtime.GOMAXPROCS(0)
	})
	dp.RegisterProbe("platform.os", func() any {
		return "windows"
	})
}
