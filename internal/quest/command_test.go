package quest

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunRevertsOnRemoteFailure(t *testing.T) {
	n := 0
	cmd := Command{
		Name:   "increment",
		Apply:  func() { n++ },
		Remote: func(context.Context) error { return errors.New("offline") },
		Revert: func() { n-- },
	}
	if err := Run(context.Background(), cmd); err == nil {
		t.Fatalf("expected the remote error")
	}
	if n != 0 {
		t.Fatalf("expected the change reverted, got %d", n)
	}

	cmd.Remote = func(context.Context) error { return nil }
	if err := Run(context.Background(), cmd); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the change kept, got %d", n)
	}
}

func TestRegistrySweep(t *testing.T) {
	tc, _ := newTestClock()
	r := NewRegistry[string](tc.Now)
	r.Put("a", "first")
	tc.now = tc.now.Add(5 * time.Minute)
	r.Put("b", "second")

	tc.now = tc.now.Add(4 * time.Minute)
	if v, ok := r.Get("a"); !ok || v != "first" {
		t.Fatalf("expected a, got %q %v", v, ok)
	}
	tc.now = tc.now.Add(3 * time.Minute)

	expired := r.Sweep(6 * time.Minute)
	if len(expired) != 1 || expired[0] != "second" {
		t.Fatalf("expected only b expired, got %v", expired)
	}
	if r.Len() != 1 {
		t.Fatalf("expected one live entry, got %d", r.Len())
	}
	r.Remove("a")
	if _, ok := r.Get("a"); ok {
		t.Fatalf("expected a removed")
	}
}
