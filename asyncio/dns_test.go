// File: asyncio/dns_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package asyncio

import (
	"context"
	"sync"
	"testing"

	"github.com/momentics/hioload-ws/coroutine"
)

// TestGetAddrInfoAsyncLiteralAddress exercises the inet_pton-equivalent
// fast path: node is already a dotted-decimal address, so resolution
// never reaches the network.
func TestGetAddrInfoAsyncLiteralAddress(t *testing.T) {
	co := coroutine.New()
	ctx := co.WithContext(context.Background())

	infos, errno := GetAddrInfoAsync(ctx, "127.0.0.1", "", coroutine.AddrInfoHints{Family: AFInet, SockType: 1})
	if errno != 0 {
		t.Fatalf("unexpected errno %d", errno)
	}
	if len(infos) != 1 || infos[0].Addr.String() != "127.0.0.1" {
		t.Fatalf("unexpected infos: %+v", infos)
	}
}

// TestGetAddrInfoAsyncEmptyQueryRejected covers the EINVAL edge case: both
// node and service empty.
func TestGetAddrInfoAsyncEmptyQueryRejected(t *testing.T) {
	co := coroutine.New()
	ctx := co.WithContext(context.Background())

	_, errno := GetAddrInfoAsync(ctx, "", "", coroutine.AddrInfoHints{})
	if errno != EINVAL {
		t.Fatalf("expected EINVAL, got %d", errno)
	}
}

// TestGetAddrInfoAsyncCollapsesConcurrentCallers drives many coroutines
// resolving the same literal address concurrently and checks they all
// observe a consistent result, the behavior resolveGroup's singleflight
// dedup is meant to preserve when the shared key maps to one in-flight
// resolution instead of N redundant ones.
func TestGetAddrInfoAsyncCollapsesConcurrentCallers(t *testing.T) {
	const n = 16
	var wg sync.WaitGroup
	errs := make([]Errno, n)
	canon := make([]string, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			co := coroutine.New()
			ctx := co.WithContext(context.Background())
			infos, errno := GetAddrInfoAsync(ctx, "10.0.0.1", "", coroutine.AddrInfoHints{Family: AFInet, SockType: 1})
			errs[i] = errno
			if errno == 0 && len(infos) == 1 {
				canon[i] = infos[0].Canonical
			}
		}(i)
	}
	wg.Wait()

	for i, errno := range errs {
		if errno != 0 {
			t.Fatalf("caller %d: unexpected errno %d", i, errno)
		}
		if canon[i] != "10.0.0.1" {
			t.Fatalf("caller %d: unexpected canonical %q", i, canon[i])
		}
	}
}
