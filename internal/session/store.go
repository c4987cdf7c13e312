// File: internal/session/store.go
// Package session
// Author: momentics <momentics@gmail.com>
//
// Sharded, thread-safe registry of live coroutines, keyed by CoroutineID
// rather than a bare string so a misplaced session ID or hostent-slot
// key can't be passed where a coroutine ID is expected.

package session

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/momentics/hioload-ws/api"
)

// CoroutineID identifies one registered coroutine. It is the same
// string a Coroutine carries as its ID (coroutine.Coroutine.ID()); the
// distinct type exists so SessionManager's contract reads as
// coroutine-scoped rather than a generic string-keyed map.
type CoroutineID string

// SessionManager tracks live coroutines for debug-probe introspection.
type SessionManager interface {
	Create(id CoroutineID) (Session, error)
	Get(id CoroutineID) (Session, bool)
	Delete(id CoroutineID)
	Range(func(Session))
}

// Session is one coroutine's registry entry.
type Session interface {
	ID() CoroutineID
	Context() api.Context
	Cancel()
	Done() <-chan struct{}
	Deadline() (time.Time, bool)
}

// sessionManager implements sharded storage for coroutine entries.
type sessionManager struct {
	shards []*sessionShard
	mask   uint32
}

type sessionShard struct {
	mu       sync.RWMutex
	sessions map[CoroutineID]*sessionImpl
}

// NewSessionManager constructs a sharded registry with shardCount
// shards, rounded up to a power of two for mask-based shard lookup.
func NewSessionManager(shardCount int) SessionManager {
	if shardCount <= 0 {
		shardCount = 16
	}
	m := nextPowerOfTwo(uint32(shardCount))
	shards := make([]*sessionShard, m)
	for i := range shards {
		shards[i] = &sessionShard{sessions: make(map[CoroutineID]*sessionImpl)}
	}
	return &sessionManager{shards: shards, mask: m - 1}
}

// shard picks the shard owning id.
func (m *sessionManager) shard(id CoroutineID) *sessionShard {
	h := fnv32(string(id))
	return m.shards[h&m.mask]
}

// Create returns the existing entry for id, or registers a new one.
func (m *sessionManager) Create(id CoroutineID) (Session, error) {
	sh := m.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if s, ok := sh.sessions[id]; ok {
		return s, nil
	}
	s := newSession(id)
	sh.sessions[id] = s
	return s, nil
}

// Get fetches a coroutine's entry if it is still registered.
func (m *sessionManager) Get(id CoroutineID) (Session, bool) {
	sh := m.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	s, ok := sh.sessions[id]
	return s, ok
}

// Delete cancels and removes id's entry.
func (m *sessionManager) Delete(id CoroutineID) {
	sh := m.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if s, ok := sh.sessions[id]; ok {
		s.Cancel()
		delete(sh.sessions, id)
	}
}

// Range applies fn to every currently registered entry.
func (m *sessionManager) Range(fn func(Session)) {
	for _, sh := range m.shards {
		sh.mu.RLock()
		for _, s := range sh.sessions {
			fn(s)
		}
		sh.mu.RUnlock()
	}
}

// fnv32 hashes a string to uint32.
func fnv32(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// nextPowerOfTwo returns the next power-of-two >= v.
func nextPowerOfTwo(v uint32) uint32 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v++
	return v
}
