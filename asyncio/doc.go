// File: asyncio/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package asyncio is the reactor-adaptation core: it lets code running
// inside a coroutine (see the coroutine package) call traditionally
// blocking primitives — poll, select, DNS resolution, and driving an
// HTTP transfer engine — with their legacy blocking contracts, while the
// actual waiting happens as reactor events that suspend and resume the
// calling coroutine.
//
// File layout:
//
//	bits.go        event-bit translation between api.EventBits and legacy poll bits
//	errno.go       cooperative-failure to errno mapping
//	poll.go        poll_async
//	select.go      select_async
//	dns.go         getaddrinfo_async / gethostbyname_async / gethostbyaddr_async / getaddresses_async
//	transfer.go    the swappable TransferEngine interface and its net/http backing
//	bridge.go      perform_async / multi_select_async / multi_perform_async bridge
//	lifetime.go    setup/shutdown
//
// Per-call callback records live in the coroutine package
// (coroutine.CallbackRecord).
package asyncio
