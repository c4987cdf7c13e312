// File: asyncio/select_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package asyncio

import (
	"context"
	"testing"

	"github.com/momentics/hioload-ws/coroutine"
)

// TestSelectAsyncRejectsOverBatchLimit covers the EINVAL edge case: a
// maxFD beyond the configured asyncio.poll_batch_size tunable, the
// fd_set-era equivalent of exceeding FD_SETSIZE.
func TestSelectAsyncRejectsOverBatchLimit(t *testing.T) {
	if err := Setup(nil); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer Shutdown()

	Config().SetPollBatchSize(4)

	co := coroutine.New()
	ctx := co.WithContext(context.Background())

	rfds := NewFDSet(0, 1)
	n, errno := SelectAsync(ctx, 8, &rfds, nil, nil, 0)
	if errno != EINVAL {
		t.Fatalf("expected EINVAL, got errno=%d n=%d", errno, n)
	}
}
