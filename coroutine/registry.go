// File: coroutine/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Live-coroutine registry, backed by internal/session's sharded
// SessionManager. A coroutine's session entry carries no state of its
// own; it exists purely so RegisterDebugProbes can expose how many
// coroutines are currently live (created by New or Spawn and not yet
// terminated), the way the control package's other probes expose
// platform counters.

package coroutine

import (
	"github.com/momentics/hioload-ws/control"
	"github.com/momentics/hioload-ws/internal/session"
)

var registry = session.NewSessionManager(64)

func registerLive(id string) {
	_, _ = registry.Create(session.CoroutineID(id))
}

func unregisterLive(id string) {
	registry.Delete(session.CoroutineID(id))
}

// LiveCount returns the number of coroutines currently tracked (spawned
// but not yet terminated).
func LiveCount() int {
	n := 0
	registry.Range(func(session.Session) { n++ })
	return n
}

// LiveIDs returns the IDs of every currently tracked coroutine.
func LiveIDs() []string {
	var ids []string
	registry.Range(func(s session.Session) { ids = append(ids, string(s.ID())) })
	return ids
}

// RegisterDebugProbes installs this package's probes ("coroutine.live")
// on dp, the control.DebugProbes registry adapters.NewControlAdapter
// builds. Safe to call more than once; later calls simply overwrite the
// probe with an equivalent one.
func RegisterDebugProbes(dp *control.DebugProbes) {
	dp.RegisterProbe("coroutine.live", func() any {
		return LiveCount()
	})
}
