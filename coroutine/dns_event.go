// File: coroutine/dns_event.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// DNS reactor events: new_getaddrinfo_event/new_getnameinfo_event style
// completions driving the DNS adapter's external reactor collaborator.
// The exchange itself runs on a background
// goroutine rather than through the fd-readiness backend, since the
// query/response round trip is a handful of UDP packets rather than a
// long-lived descriptor worth multiplexing; the completion is still
// reported through the same Callback contract as socket/timer events, so
// the DNS adapter built on top of it looks exactly like poll/select to
// its caller.

package coroutine

import (
	"net"
	"strings"
	"sync"

	"github.com/miekg/dns"
	"github.com/momentics/hioload-ws/api"
)

// AddrInfoHints narrows a getaddrinfo_async query the way the legacy
// struct addrinfo hints field does. Family follows the AF_* numbering
// (0 = unspecified, 2 = AF_INET, 10 = AF_INET6); SockType is carried
// through unchanged for the caller to stash on the result, the reactor
// event itself only cares about Family.
type AddrInfoHints struct {
	Family   int
	SockType int
}

// AddrInfoResult is the resolved chain an addrInfoEvent delivers.
type AddrInfoResult struct {
	Canonical string
	Addrs     []net.IP
}

// NameInfoResult is the resolved hostname a nameInfoEvent delivers.
type NameInfoResult struct {
	Hostname string
}

// DNSServer is the resolver queried by addrInfoEvent/nameInfoEvent,
// overridable by assigning this package variable; no control.ConfigStore
// key sets it. The substrate has no /etc/resolv.conf parsing of its own,
// so it defaults to a public resolver.
var DNSServer = "8.8.8.8:53"

// dnsClient performs the actual exchange; swappable so tests can stub it
// without a network round trip.
var dnsClient = &dns.Client{}

type addrInfoEvent struct {
	mu       sync.Mutex
	callback Callback
	node     string
	service  string
	hints    AddrInfoHints
}

func (e *addrInfoEvent) setCallback(cb Callback) {
	e.mu.Lock()
	e.callback = cb
	e.mu.Unlock()
}

func (e *addrInfoEvent) fire(result any, failure error) {
	e.mu.Lock()
	cb := e.callback
	e.mu.Unlock()
	if cb != nil {
		cb(e, result, failure)
	}
}

// NewGetAddrInfoEvent allocates an unstarted DNS address-info event for
// node/service under hints. At least one of node/service must be
// non-empty, mirroring getaddrinfo(3); the DNS adapter enforces that
// before allocating.
func NewGetAddrInfoEvent(node, service string, hints AddrInfoHints) Event {
	return &addrInfoEvent{node: node, service: service, hints: hints}
}

func (e *addrInfoEvent) Start() error {
	go e.resolve()
	return nil
}

func (e *addrInfoEvent) resolve() {
	host := e.node
	if host == "" {
		host = "localhost"
	}

	if ip := net.ParseIP(host); ip != nil {
		e.fire(&AddrInfoResult{Canonical: host, Addrs: []net.IP{ip}}, nil)
		return
	}

	qtypes := []uint16{dns.TypeA}
	switch e.hints.Family {
	case 10: // AF_INET6
		qtypes = []uint16{dns.TypeAAAA}
	case 0: // AF_UNSPEC
		qtypes = []uint16{dns.TypeA, dns.TypeAAAA}
	}

	var addrs []net.IP
	canon := host
	for _, qtype := range qtypes {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(host), qtype)
		m.RecursionDesired = true

		resp, _, err := dnsClient.Exchange(m, DNSServer)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				e.fire(nil, api.ErrOperationTimeout)
				return
			}
			continue
		}
		if resp.Rcode != dns.RcodeSuccess {
			continue
		}
		for _, rr := range resp.Answer {
			switch rec := rr.(type) {
			case *dns.A:
				addrs = append(addrs, rec.A)
				canon = strings.TrimSuffix(rec.Hdr.Name, ".")
			case *dns.AAAA:
				addrs = append(addrs, rec.AAAA)
				canon = strings.TrimSuffix(rec.Hdr.Name, ".")
			}
		}
	}

	if len(addrs) == 0 {
		e.fire(nil, api.ErrNotFound)
		return
	}
	e.fire(&AddrInfoResult{Canonical: canon, Addrs: addrs}, nil)
}

func (e *addrInfoEvent) Stop() error                       { return nil }
func (e *addrInfoEvent) Dispose()                           {}
func (e *addrInfoEvent) AddCallback(cb Callback)            { e.setCallback(cb) }
func (e *addrInfoEvent) DelCallback(cb Callback)             { e.setCallback(nil) }
func (e *addrInfoEvent) TriggeredEvents() api.EventBits     { return 0 }
func (e *addrInfoEvent) Retain()                             {}
func (e *addrInfoEvent) Release()                            {}

type nameInfoEvent struct {
	mu       sync.Mutex
	callback Callback
	ip       net.IP
}

func (e *nameInfoEvent) setCallback(cb Callback) {
	e.mu.Lock()
	e.callback = cb
	e.mu.Unlock()
}

func (e *nameInfoEvent) fire(result any, failure error) {
	e.mu.Lock()
	cb := e.callback
	e.mu.Unlock()
	if cb != nil {
		cb(e, result, failure)
	}
}

// NewGetNameInfoEvent allocates an unstarted DNS name-info (PTR) event
// for ip. Callers (the DNS adapter) are responsible for rejecting
// non-IPv4 addresses before allocating, matching gethostbyaddr_async's
// "IPv4 only" constraint.
func NewGetNameInfoEvent(ip net.IP) Event {
	return &nameInfoEvent{ip: ip}
}

func (e *nameInfoEvent) Start() error {
	go e.resolve()
	return nil
}

func (e *nameInfoEvent) resolve() {
	rev, err := dns.ReverseAddr(e.ip.String())
	if err != nil {
		e.fire(nil, api.ErrInvalidArgument)
		return
	}

	m := new(dns.Msg)
	m.SetQuestion(rev, dns.TypePTR)
	resp, _, err := dnsClient.Exchange(m, DNSServer)
	if err != nil {
		e.fire(nil, api.ErrNotFound)
		return
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			e.fire(&NameInfoResult{Hostname: strings.TrimSuffix(ptr.Ptr, ".")}, nil)
			return
		}
	}
	e.fire(nil, api.ErrNotFound)
}

func (e *nameInfoEvent) Stop() error                    { return nil }
func (e *nameInfoEvent) Dispose()                        {}
func (e *nameInfoEvent) AddCallback(cb Callback)         { e.setCallback(cb) }
func (e *nameInfoEvent) DelCallback(cb Callback)          { e.setCallback(nil) }
func (e *nameInfoEvent) TriggeredEvents() api.EventBits  { return 0 }
func (e *nameInfoEvent) Retain()                          {}
func (e *nameInfoEvent) Release()                         {}
