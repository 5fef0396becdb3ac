package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeNotifier struct {
	calls int
	err   error
	wait  time.Duration
}

func (f *fakeNotifier) SendWelcome(ctx context.Context, in WelcomeInput) error {
	f.calls++
	if f.wait > 0 {
		select {
		case <-time.After(f.wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func TestProtectedNotifier_OpensAfterThreshold(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 2, Cooldown: time.Minute}, nil)

	in := WelcomeInput{Email: "ana@x.com", Name: "Ana"}
	for i := 0; i < 2; i++ {
		if err := n.SendWelcome(context.Background(), in); err == nil {
			t.Fatalf("expected provider error on call %d", i)
		}
	}

	if n.State() != "open" {
		t.Fatalf("expected open circuit, got %s", n.State())
	}

	if err := n.SendWelcome(context.Background(), in); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("provider must not be called while open, calls=%d", inner.calls)
	}
}

func TestProtectedNotifier_HalfOpenRecovers(t *testing.T) {
	inner := &fakeNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{FailureThreshold: 1, Cooldown: time.Second}, nil)

	now := time.Now()
	n.now = func() time.Time { return now }

	in := WelcomeInput{Email: "ana@x.com", Name: "Ana"}
	_ = n.SendWelcome(context.Background(), in)

	if n.State() != "open" {
		t.Fatalf("expected open, got %s", n.State())
	}

	n.now = func() time.Time { return now.Add(2 * time.Second) }
	inner.err = nil

	if err := n.SendWelcome(context.Background(), in); err != nil {
		t.Fatalf("trial call should succeed, got %v", err)
	}
	if n.State() != "closed" {
		t.Fatalf("expected closed after successful trial, got %s", n.State())
	}
}

func TestProtectedNotifier_Timeout(t *testing.T) {
	inner := &fakeNotifier{wait: time.Second}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{Timeout: 20 * time.Millisecond}, nil)

	err := n.SendWelcome(context.Background(), WelcomeInput{Email: "ana@x.com"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
