// File: internal/session/session_test.go
// Package session_test
// Author: momentics <momentics@gmail.com>

package session_test

import (
	"testing"
	"time"

	"github.com/momentics/hioload-ws/internal/session"
)

func TestContextStoreTTLExpiry(t *testing.T) {
	s := session.NewContextStore()
	s.Set("a", 1, true)
	s.WithExpiration("a", int64(1*time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	if _, ok := s.Get("a"); ok {
		t.Error("expired key still present")
	}
}

type hostentLike struct {
	name string
}

func TestGetTypedRejectsWrongType(t *testing.T) {
	s := session.NewContextStore()
	s.Set("slot", &hostentLike{name: "example.com"}, false)

	got, ok := session.GetTyped[*hostentLike](s, "slot")
	if !ok || got.name != "example.com" {
		t.Fatalf("expected typed hit, got %+v, %v", got, ok)
	}

	if _, ok := session.GetTyped[int](s, "slot"); ok {
		t.Fatal("expected type mismatch to report ok=false")
	}

	if _, ok := session.GetTyped[*hostentLike](s, "missing"); ok {
		t.Fatal("expected missing key to report ok=false")
	}
}

func TestSessionManagerTracksCoroutineLifecycle(t *testing.T) {
	mgr := session.NewSessionManager(4)
	id := session.CoroutineID("co-1")

	entry, err := mgr.Create(id)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if entry.ID() != id {
		t.Fatalf("expected ID %q, got %q", id, entry.ID())
	}

	same, err := mgr.Create(id)
	if err != nil || same.ID() != id {
		t.Fatalf("expected Create to be idempotent for an already-registered id")
	}

	n := 0
	mgr.Range(func(session.Session) { n++ })
	if n != 1 {
		t.Fatalf("expected 1 registered entry, got %d", n)
	}

	mgr.Delete(id)
	select {
	case <-entry.Done():
	default:
		t.Fatal("expected Delete to cancel the entry")
	}
	if _, ok := mgr.Get(id); ok {
		t.Fatal("expected entry to be gone after Delete")
	}
}
