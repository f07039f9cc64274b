package retrypolicy

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	p := Policy{Attempts: 3, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), "test.op", func() error {
		calls++
		if calls < 3 {
			return timeoutErr{}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	p := Policy{Attempts: 3, Delay: time.Millisecond}

	permanent := errors.New("row not found")
	calls := 0
	err := p.Do(context.Background(), "test.op", func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected the permanent error back, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retries for a permanent error, got %d attempts", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	p := Policy{Attempts: 2, Delay: time.Millisecond}

	calls := 0
	err := p.Do(context.Background(), "test.op", func() error {
		calls++
		return timeoutErr{}
	})
	if err == nil {
		t.Fatalf("expected error after exhausting attempts")
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	p := Policy{Delay: time.Millisecond}

	calls := 0
	if err := p.Do(context.Background(), "test.op", func() error {
		calls++
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"net timeout", timeoutErr{}, true},
		{"wrapped net timeout", errors.Wrap(timeoutErr{}, "sheets"), true},
		{"rate limited", &googleapi.Error{Code: 429}, true},
		{"server error", &googleapi.Error{Code: 503}, true},
		{"bad request", &googleapi.Error{Code: 400}, false},
		{"business error", errors.New("task not found"), false},
	}
	for _, tc := range cases {
		if got := IsTransient(tc.err); got != tc.want {
			t.Fatalf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}
