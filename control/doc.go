// Package control
// Author: momentics <momentics@gmail.com>
//
// The tunable/metrics/debug surface the asyncio adapters and the
// coroutine registry report through: ConfigStore carries the
// poll/select batch-size, DNS TTL, and bridge drain-limit tunables
// DefaultConfig seeds and Setup installs; MetricsRegistry accumulates
// the transfer-completion and DNS-resolution counters asyncio/bridge.go
// and asyncio/dns.go feed after every completed operation; DebugProbes
// exposes both platform counters and coroutine.RegisterDebugProbes'
// live-coroutine count for introspection via adapters.ControlAdapter.
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
