//go:build windows
// +build windows

// File: internal/reactor/backend_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Windows IOCP (I/O completion port) backend.

package reactor

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/windows"
)

type iocpEntry struct {
	fd uintptr
	cb FDCallback
}

type iocpBackend struct {
	iocp       windows.Handle
	mu         sync.RWMutex
	byKey      map[uint32]*iocpEntry
	keyCounter uint32
}

// NewBackend constructs the Windows IOCP-backed reactor.Backend.
func NewBackend() (Backend, error) {
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("reactor: CreateIoCompletionPort: %w", err)
	}
	return &iocpBackend{iocp: port, byKey: make(map[uint32]*iocpEntry)}, nil
}

func (r *iocpBackend) Register(fd uintptr, events FDEventType, cb FDCallback) error {
	key := atomic.AddUint32(&r.keyCounter, 1)
	h := windows.Handle(fd)
	if _, err := windows.CreateIoCompletionPort(h, r.iocp, uintptr(key), 0); err != nil {
		return fmt.Errorf("reactor: associate IOCP: %w", err)
	}
	r.mu.Lock()
	r.byKey[key] = &iocpEntry{fd: fd, cb: cb}
	r.mu.Unlock()
	return nil
}

// Modify is a no-op on IOCP: readiness direction is determined by which
// overlapped operation the caller posts, not by a registered event mask.
func (r *iocpBackend) Modify(fd uintptr, events FDEventType) error {
	return nil
}

func (r *iocpBackend) Unregister(fd uintptr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, e := range r.byKey {
		if e.fd == fd {
			delete(r.byKey, k)
			break
		}
	}
	return nil
}

func (r *iocpBackend) Poll(timeoutMs int) error {
	timeout := uint32(windows.INFINITE)
	if timeoutMs >= 0 {
		timeout = uint32(timeoutMs)
	}

	var bytes uint32
	var key uintptr
	var overlapped *windows.Overlapped

	err := windows.GetQueuedCompletionStatus(r.iocp, &bytes, &key, &overlapped, timeout)
	if err != nil {
		if err == windows.WAIT_TIMEOUT {
			return nil
		}
		return fmt.Errorf("reactor: GetQueuedCompletionStatus: %w", err)
	}

	r.mu.RLock()
	entry := r.byKey[uint32(key)]
	r.mu.RUnlock()
	if entry == nil {
		return nil
	}
	func() {
		defer func() { _ = recover() }()
		entry.cb(entry.fd, EventRead|EventWrite)
	}()
	return nil
}

func (r *iocpBackend) Close() error {
	return windows.CloseHandle(r.iocp)
}
