//go:build linux
// +build linux

// File: internal/reactor/backend_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7) backend.

package reactor

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

type epollBackend struct {
	epfd      int
	mu        sync.RWMutex
	callbacks map[uintptr]FDCallback
}

// NewBackend constructs the Linux epoll-backed reactor.Backend.
func NewBackend() (Backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &epollBackend{epfd: epfd, callbacks: make(map[uintptr]FDCallback)}, nil
}

func toEpollEvents(t FDEventType) uint32 {
	var ev uint32
	if t&EventRead != 0 {
		ev |= unix.EPOLLIN
	}
	if t&EventWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

func (r *epollBackend) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	ev := &unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, int(fd), ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl add: %w", err)
	}
	r.mu.Lock()
	r.callbacks[fd] = cb
	r.mu.Unlock()
	return nil
}

func (r *epollBackend) Modify(fd uintptr, events FDEventType) error {
	ev := &unix.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, int(fd), ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl mod: %w", err)
	}
	return nil
}

func (r *epollBackend) Unregister(fd uintptr) error {
	_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
	r.mu.Lock()
	delete(r.callbacks, fd)
	r.mu.Unlock()
	return nil
}

func (r *epollBackend) Poll(timeoutMs int) error {
	const maxEvents = 256
	var raw [maxEvents]unix.EpollEvent

	n, err := unix.EpollWait(r.epfd, raw[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return fmt.Errorf("reactor: epoll_wait: %w", err)
	}

	for i := 0; i < n; i++ {
		fd := uintptr(raw[i].Fd)

		var t FDEventType
		if raw[i].Events&unix.EPOLLIN != 0 {
			t |= EventRead
		}
		if raw[i].Events&unix.EPOLLOUT != 0 {
			t |= EventWrite
		}
		if raw[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			t |= EventError
		}

		r.mu.RLock()
		cb := r.callbacks[fd]
		r.mu.RUnlock()
		if cb == nil {
			continue
		}
		func() {
			defer func() { _ = recover() }()
			cb(fd, t)
		}()
	}
	return nil
}

func (r *epollBackend) Close() error {
	return unix.Close(r.epfd)
}
