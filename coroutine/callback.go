// File: coroutine/callback.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-call Callback Records (component B of the adapter design): small
// owned closures threading a reactor callback to its awaiting coroutine.

package coroutine

// CallbackRecord binds one Event to the Waker it resumes, applying a
// caller-supplied side effect (set revents, set an fd-set bit, stash a
// DNS result, relay to a bridge) before resuming. Resumption is
// idempotent per Waker; later firings on the same waker still run Apply
// and bump the accumulator even though only the first schedules
// resumption, matching the "first resumption schedules it, later
// callbacks only update the accumulator" contract.
type CallbackRecord struct {
	Waker *Waker
	Apply func(result any)
}

// NewCallbackRecord allocates a record bound to w. apply may be nil when
// the event carries no caller-visible payload (e.g. a bare timer).
func NewCallbackRecord(w *Waker, apply func(result any)) *CallbackRecord {
	return &CallbackRecord{Waker: w, Apply: apply}
}

// Fire implements the Callback contract: on failure, resume the waker
// with it; otherwise apply the result, bump the accumulator, and resume.
func (r *CallbackRecord) Fire(ev Event, result any, failure error) {
	if failure != nil {
		r.Waker.ResumeWithError(failure)
		return
	}
	if r.Apply != nil {
		r.Apply(result)
	}
	r.Waker.IncrementAccumulator()
	r.Waker.Resume()
}
