// control/hotreload_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"sync"
	"testing"

	"github.com/momentics/hioload-ws/control"
)

// TestRegisterReloadHookConcurrentWithTrigger exercises
// RegisterReloadHook and TriggerHotReload from concurrent goroutines;
// run with -race it catches an unguarded reloadHooks slice.
func TestRegisterReloadHookConcurrentWithTrigger(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(20)
	for i := 0; i < 10; i++ {
		go func() {
			defer wg.Done()
			control.RegisterReloadHook(func() {})
		}()
		go func() {
			defer wg.Done()
			control.TriggerHotReload()
		}()
	}
	wg.Wait()
}
