package pto

import (
	"context"
	"testing"
	"time"
)

func TestRegistryLifecycle(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	r := NewRegistry(10 * time.Minute)
	r.now = func() time.Time { return now }

	f := c1Sources()
	s := r.Create("tenant-1", "user-1", func(nav Navigator) *Controller {
		return NewController(f, f, WithNavigator(nav))
	})
	if s.ID == "" || s.TenantID != "tenant-1" || s.UserID != "user-1" {
		t.Fatalf("unexpected session %+v", s)
	}

	s.Controller.Initialize(context.Background(), "C1")
	waitIdle(t, s.Controller)
	s.Controller.SubmitNewLeaveRequest(context.Background())
	ref, ok := s.LastNavigation()
	if !ok || ref.Attributes.Object != ObjectLeaveRequest {
		t.Fatalf("expected navigation to be recorded, got %+v", ref)
	}

	now = now.Add(8 * time.Minute)
	if _, ok := r.Get(s.ID); !ok {
		t.Fatal("session should exist")
	}

	now = now.Add(8 * time.Minute)
	if removed := r.Sweep(); removed != 0 {
		t.Fatalf("recently used session was swept")
	}

	now = now.Add(3 * time.Minute)
	if removed := r.Sweep(); removed != 1 {
		t.Fatalf("expected idle session to be swept, removed %d", removed)
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistryDelete(t *testing.T) {
	r := NewRegistry(time.Minute)
	f := c1Sources()
	s := r.Create("t", "u", func(nav Navigator) *Controller { return NewController(f, f) })
	if !r.Delete(s.ID) {
		t.Fatal("expected delete to succeed")
	}
	if r.Delete(s.ID) {
		t.Fatal("second delete should report missing session")
	}
	if _, ok := r.Get(s.ID); ok {
		t.Fatal("deleted session must not be returned")
	}
}
