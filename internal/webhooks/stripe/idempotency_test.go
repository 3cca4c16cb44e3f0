package stripewebhook

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type stubIdempotencyStore struct {
	values map[string]string
	setErr error
}

func (s *stubIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (s *stubIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.setErr != nil {
		return false, s.setErr
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = "1"
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestGuardMarksFirstDelivery(t *testing.T) {
	guard, err := NewIdempotencyGuard(&stubIdempotencyStore{}, time.Hour, "stripe_events")
	if err != nil {
		t.Fatalf("guard constructor failed: %v", err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if seen {
		t.Fatal("first delivery must not read as seen")
	}

	seen, err = guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !seen {
		t.Fatal("redelivery must read as seen")
	}
}

func TestGuardDeleteAllowsRetry(t *testing.T) {
	store := &stubIdempotencyStore{}
	guard, _ := NewIdempotencyGuard(store, time.Hour, "stripe_events")

	if _, err := guard.CheckAndMark(context.Background(), "evt_1"); err != nil {
		t.Fatal(err)
	}
	if err := guard.Delete(context.Background(), "evt_1"); err != nil {
		t.Fatal(err)
	}

	seen, err := guard.CheckAndMark(context.Background(), "evt_1")
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Fatal("deleted mark must allow a retry")
	}
}

func TestGuardStoreErrorSurfaces(t *testing.T) {
	guard, _ := NewIdempotencyGuard(&stubIdempotencyStore{setErr: errors.New("connection refused")}, time.Hour, "stripe_events")
	if _, err := guard.CheckAndMark(context.Background(), "evt_1"); err == nil {
		t.Fatal("store failure must surface")
	}
}

func TestGuardRequiresEventID(t *testing.T) {
	guard, _ := NewIdempotencyGuard(&stubIdempotencyStore{}, time.Hour, "stripe_events")
	if _, err := guard.CheckAndMark(context.Background(), ""); err == nil {
		t.Fatal("empty event id must be rejected")
	}
}
