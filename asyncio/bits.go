// File: asyncio/bits.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bidirectional mapping between the reactor's abstract api.EventBits and
// legacy poll(2)/select(2) bit layouts.

package asyncio

import "github.com/momentics/hioload-ws/api"

// Legacy poll(2) bit layout (values match the Linux/BSD ABI so callers
// embedding this layer on POSIX hosts can pass the numbers through
// unchanged).
const (
	POLLIN   = 0x0001
	POLLPRI  = 0x0002
	POLLOUT  = 0x0004
	POLLERR  = 0x0008
	POLLHUP  = 0x0010
	POLLNVAL = 0x0020
)

// PollToReactor maps a requested poll(2) event mask to the reactor bits
// that must be watched for it. POLLERR/POLLNVAL are input-only sentinels
// collapsed onto Readable, matching poll(2)'s "treat as read-ready"
// convention; they are never produced by ReactorToPoll.
func PollToReactor(events int16) api.EventBits {
	var bits api.EventBits
	if events&POLLIN != 0 {
		bits |= api.Readable
	}
	if events&POLLOUT != 0 {
		bits |= api.Writable
	}
	if events&POLLHUP != 0 {
		bits |= api.Disconnect
	}
	if events&POLLPRI != 0 {
		bits |= api.Prioritized
	}
	if events&(POLLERR|POLLNVAL) != 0 {
		bits |= api.Readable
	}
	return bits
}

// ReactorToPoll maps triggered reactor bits back to the legacy revents
// mask. Round-trip with PollToReactor is not required for ERR/NVAL: the
// reactor surface never reports them directly.
func ReactorToPoll(bits api.EventBits) int16 {
	var events int16
	if bits.Has(api.Readable) {
		events |= POLLIN
	}
	if bits.Has(api.Writable) {
		events |= POLLOUT
	}
	if bits.Has(api.Disconnect) {
		events |= POLLHUP
	}
	if bits.Has(api.Prioritized) {
		events |= POLLPRI
	}
	return events
}
