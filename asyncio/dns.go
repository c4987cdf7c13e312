// File: asyncio/dns.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The DNS adapter wraps the coroutine package's DNS events to expose
// legacy name-resolution signatures, including per-coroutine hostent-
// like buffer lifetime management.

package asyncio

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/momentics/hioload-ws/coroutine"
	"github.com/momentics/hioload-ws/internal/session"
)

// resolveGroup collapses concurrent getaddrinfo_async calls that share the
// same node/service/hints onto a single in-flight DNS event, the way
// multiple coroutines racing to resolve the same backend would otherwise
// each open a redundant UDP exchange.
var resolveGroup singleflight.Group

// Address family constants, matching the legacy ABI values getaddrinfo
// callers already carry.
const (
	AFUnspec = 0
	AFInet   = 2
	AFInet6  = 10
)

// AddrInfo is one entry of the chain getaddrinfo_async returns.
type AddrInfo struct {
	Family    int
	SockType  int
	Addr      net.IP
	Canonical string
}

// HostEnt mirrors the legacy struct hostent gethostbyname_async builds:
// a single IPv4 entry, no aliases.
type HostEnt struct {
	Name     string
	Aliases  []string
	AddrType int
	Length   int
	AddrList []net.IP
}

// GetAddrInfoAsync implements the getaddrinfo_async contract: resolve
// node/service under hints, from inside a coroutine. At least one of
// node/service must be non-empty.
func GetAddrInfoAsync(ctx context.Context, node, service string, hints coroutine.AddrInfoHints) ([]*AddrInfo, Errno) {
	co, err := coroutine.Current(ctx)
	if err != nil {
		return nil, EINVAL
	}
	if node == "" && service == "" {
		return nil, EINVAL
	}

	key := node + "|" + service + "|" + strconv.Itoa(hints.Family) + "|" + strconv.Itoa(hints.SockType)
	v, err, _ := resolveGroup.Do(key, func() (any, error) {
		return resolveAddrInfo(co, node, service, hints)
	})
	if err != nil {
		if err == errEventStartFailed {
			return nil, ENOMEM
		}
		return nil, ToErrno(err)
	}
	if m := Metrics(); m != nil {
		m.IncrementDNSResolutions()
	}
	return v.([]*AddrInfo), 0
}

// errEventStartFailed marks a resolveAddrInfo failure that happened
// before any cooperative wait began (the DNS event never started), so it
// is reported as ENOMEM rather than run through the waker-failure
// classifier.
var errEventStartFailed = errors.New("asyncio: dns event failed to start")

// resolveAddrInfo runs the waker/event dance for one getaddrinfo_async
// call. Only the singleflight leader for a given key reaches this; the
// other callers sharing that key block on the group and receive its
// result directly, without linking an event to their own coroutine.
func resolveAddrInfo(co *coroutine.Coroutine, node, service string, hints coroutine.AddrInfoHints) ([]*AddrInfo, error) {
	w := coroutine.NewWaker(co)
	ev := coroutine.NewGetAddrInfoEvent(node, service, hints)

	var out []*AddrInfo
	rec := coroutine.NewCallbackRecord(w, func(result any) {
		res := result.(*coroutine.AddrInfoResult)
		for _, ip := range res.Addrs {
			out = append(out, &AddrInfo{
				Family:    familyOf(ip),
				SockType:  hints.SockType,
				Addr:      ip,
				Canonical: res.Canonical,
			})
		}
	})
	ev.AddCallback(rec.Fire)
	w.Link(ev)
	if err := ev.Start(); err != nil {
		w.Destroy()
		return nil, errEventStartFailed
	}

	_, failure := w.Wait()
	w.Destroy()
	if failure != nil {
		return nil, failure
	}
	return out, nil
}

func familyOf(ip net.IP) int {
	if ip.To4() != nil {
		return AFInet
	}
	return AFInet6
}

// hostentContextKey is the singleton key a coroutine's per-buffer
// hostent slot is stashed under: a coroutine has at most one live
// per-coroutine hostent-like buffer at any time.
const hostentContextKey = "asyncio.hostent.slot"

type hostentSlot struct {
	mu            sync.Mutex
	current       *HostEnt
	hookInstalled bool
}

// GetHostByNameAsync is the IPv4 convenience wrapper over
// GetAddrInfoAsync. Returns nil on any failure.
func GetHostByNameAsync(ctx context.Context, name string) *HostEnt {
	co, err := coroutine.Current(ctx)
	if err != nil {
		return nil
	}

	infos, errno := GetAddrInfoAsync(ctx, name, "", coroutine.AddrInfoHints{
		Family:   AFInet,
		SockType: 1, // SOCK_STREAM
	})
	if errno != 0 || len(infos) == 0 {
		return nil
	}

	canon := infos[0].Canonical
	if canon == "" {
		canon = name
	}
	v4 := infos[0].Addr.To4()
	if v4 == nil {
		return nil
	}

	he := &HostEnt{
		Name:     canon,
		AddrType: AFInet,
		Length:   net.IPv4len,
		AddrList: []net.IP{v4},
	}
	installHostEnt(co, he)
	return he
}

// installHostEnt replaces the coroutine's live hostent buffer, freeing
// the previous one first (it simply becomes unreferenced and eligible
// for GC — Go has no explicit free, but a distinct *HostEnt value per
// call already guarantees the prior one is never mutated out from under
// a caller still holding it). The coroutine-end cleanup hook is
// registered once, on first use, and reused on every subsequent call.
func installHostEnt(co *coroutine.Coroutine, he *HostEnt) {
	slot, ok := session.GetTyped[*hostentSlot](co.Context(), hostentContextKey)
	if !ok {
		slot = &hostentSlot{}
		co.Context().Set(hostentContextKey, slot, false)
	}

	slot.mu.Lock()
	slot.current = he
	if !slot.hookInstalled {
		slot.hookInstalled = true
		co.OnEnd(func() {
			slot.mu.Lock()
			slot.current = nil
			slot.mu.Unlock()
		})
	}
	slot.mu.Unlock()
}

// GetHostByAddrAsync implements gethostbyaddr_async: only dotted-decimal
// IPv4 strings are accepted. Returns nil on any failure, including a
// non-IPv4 input (mirroring inet_pton(AF_INET) failing).
func GetHostByAddrAsync(ctx context.Context, ipStr string) *string {
	co, err := coroutine.Current(ctx)
	if err != nil {
		return nil
	}
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.To4() == nil {
		return nil
	}

	w := coroutine.NewWaker(co)
	ev := coroutine.NewGetNameInfoEvent(ip)

	var hostname string
	rec := coroutine.NewCallbackRecord(w, func(result any) {
		hostname = result.(*coroutine.NameInfoResult).Hostname
	})
	ev.AddCallback(rec.Fire)
	w.Link(ev)
	if err := ev.Start(); err != nil {
		w.Destroy()
		return nil
	}

	_, failure := w.Wait()
	w.Destroy()
	if failure != nil {
		return nil
	}
	return &hostname
}

// GetAddressesAsync implements getaddresses_async: resolve host under
// sockType with family AF_UNSPEC, returning the resolved addresses, a
// count (-1 on failure), and an error string populated only on failure.
func GetAddressesAsync(ctx context.Context, host string, sockType int) ([]net.IP, int, string) {
	infos, errno := GetAddrInfoAsync(ctx, host, "", coroutine.AddrInfoHints{
		Family:   AFUnspec,
		SockType: sockType,
	})
	if errno != 0 {
		return nil, -1, fmt.Sprintf("getaddresses_async: resolution failed for %q (errno %d)", host, int(errno))
	}
	addrs := make([]net.IP, len(infos))
	for i, info := range infos {
		addrs[i] = info.Addr
	}
	return addrs, len(addrs), ""
}
