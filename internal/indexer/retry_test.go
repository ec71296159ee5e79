package indexer

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	var seen []int
	got, err := retry(context.Background(), newRetryPolicy(3, time.Millisecond), func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	}, func(attempt int, _ error) {
		seen = append(seen, attempt)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || attempts != 3 {
		t.Fatalf("got %q after %d attempts", got, attempts)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("failed attempts reported: %v", seen)
	}
}

func TestRetryGivesUp(t *testing.T) {
	attempts := 0
	want := errors.New("permanent")
	_, err := retry(context.Background(), newRetryPolicy(2, time.Millisecond), func(context.Context) (int, error) {
		attempts++
		return 0, want
	}, nil)
	if !errors.Is(err, want) {
		t.Fatalf("expected last error, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 1 try plus 2 retries, got %d", attempts)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	_, err := retry(ctx, newRetryPolicy(10, time.Hour), func(context.Context) (int, error) {
		attempts++
		cancel()
		return 0, errors.New("temporary")
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestNewRetryPolicyDefaults(t *testing.T) {
	p := newRetryPolicy(-1, 0)
	if p.maxRetries != 0 || p.baseDelay != defaultRetryDelay {
		t.Fatalf("policy defaults mismatch: %+v", p)
	}
}
