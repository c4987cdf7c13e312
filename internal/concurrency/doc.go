// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives exposed through the adapters package: a batched
// task event loop and a fixed-size executor whose queue is guarded by a
// mutex/condvar pair. The coroutine runtime itself does not submit work to
// either.
package concurrency
