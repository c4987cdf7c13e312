// File: internal/reactor/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package reactor wraps the platform multiplexer (epoll on Linux, IOCP on
// Windows) behind a single callback-registration Backend interface. It
// knows nothing about coroutines, polling legacy ABI, or DNS: it only
// turns descriptor readiness and completion-port keys into FDEventType
// callbacks. The coroutine package builds the suspend/resume semantics on
// top of this.
package reactor
