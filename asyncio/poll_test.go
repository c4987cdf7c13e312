// File: asyncio/poll_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package asyncio

import (
	"context"
	"testing"

	"github.com/momentics/hioload-ws/coroutine"
)

// TestPollAsyncRejectsOverBatchLimit covers the EINVAL edge case: a
// caller registering more descriptors than the configured
// asyncio.poll_batch_size tunable allows.
func TestPollAsyncRejectsOverBatchLimit(t *testing.T) {
	if err := Setup(nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer Shutdown()

	Config().SetPollBatchSize(2)

	co := coroutine.New()
	ctx := co.WithContext(context.Background())

	entries := []*Entry{{Fd: 1}, {Fd: 2}, {Fd: 3}}
	n, errno := PollAsync(ctx, entries, 0)
	if errno != EINVAL {
		t.Fatalf("expected EINVAL, got errno=%d n=%d", errno, n)
	}
}
