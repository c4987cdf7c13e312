// File: internal/session/doc.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Sharded coroutine registry and per-coroutine context store backing the
// coroutine package: ContextStore gives each Coroutine a thread-safe
// key/value scratch space with optional TTL and propagation, and
// SessionManager tracks which CoroutineIDs are currently live for
// debug-probe introspection. Works on Linux and Windows.
package session
