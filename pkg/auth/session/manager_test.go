package session

import (
	"context"
	"errors"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type stubStore struct {
	values map[string]string
	getErr error
	sets   int
}

func (s *stubStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.sets++
	s.values[key] = value.(string)
	return nil
}

func (s *stubStore) Get(ctx context.Context, key string) (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	value, ok := s.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (s *stubStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

type stubKeyer struct{}

func (stubKeyer) SessionKey(userID string) string {
	return "session:" + userID
}

func newTestManager(store *stubStore, timeout time.Duration, now time.Time) *Manager {
	return &Manager{
		store:   store,
		keyer:   stubKeyer{},
		timeout: timeout,
		now:     func() time.Time { return now },
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name         string
		lastActivity time.Time
		timeout      time.Duration
		want         bool
	}{
		{name: "fresh", lastActivity: now.Add(-5 * time.Minute), timeout: 30 * time.Minute, want: false},
		{name: "at the boundary", lastActivity: now.Add(-30 * time.Minute), timeout: 30 * time.Minute, want: false},
		{name: "just past", lastActivity: now.Add(-30*time.Minute - time.Second), timeout: 30 * time.Minute, want: true},
		{name: "long idle", lastActivity: now.Add(-24 * time.Hour), timeout: 30 * time.Minute, want: true},
		{name: "zero timeout never expires", lastActivity: now.Add(-24 * time.Hour), timeout: 0, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsExpired(now, tc.lastActivity, tc.timeout); got != tc.want {
				t.Fatalf("IsExpired = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateMissingSession(t *testing.T) {
	m := newTestManager(&stubStore{}, 30*time.Minute, time.Now())
	err := m.Validate(context.Background(), "user-1")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestValidateRefreshesLiveSession(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &stubStore{}
	m := newTestManager(store, 30*time.Minute, now)

	stamp := now.Add(-10 * time.Minute).UTC().Format(time.RFC3339Nano)
	if err := store.Set(context.Background(), "session:user-1", stamp, 0); err != nil {
		t.Fatal(err)
	}
	store.sets = 0

	if err := m.Validate(context.Background(), "user-1"); err != nil {
		t.Fatalf("expected live session, got %v", err)
	}
	if store.sets != 1 {
		t.Fatal("validation must refresh the activity stamp")
	}
	if store.values["session:user-1"] != now.UTC().Format(time.RFC3339Nano) {
		t.Fatalf("stamp not refreshed: %q", store.values["session:user-1"])
	}
}

func TestValidateIdleSessionExpires(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	store := &stubStore{}
	m := newTestManager(store, 30*time.Minute, now)

	stamp := now.Add(-31 * time.Minute).UTC().Format(time.RFC3339Nano)
	_ = store.Set(context.Background(), "session:user-1", stamp, 0)
	store.sets = 0

	if err := m.Validate(context.Background(), "user-1"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if store.sets != 0 {
		t.Fatal("expired session must not be refreshed")
	}
}

func TestValidateGarbageStampExpires(t *testing.T) {
	store := &stubStore{values: map[string]string{"session:user-1": "not a timestamp"}}
	m := newTestManager(store, 30*time.Minute, time.Now())
	if err := m.Validate(context.Background(), "user-1"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestValidateStoreErrorPassesThrough(t *testing.T) {
	storeErr := errors.New("connection refused")
	m := newTestManager(&stubStore{getErr: storeErr}, 30*time.Minute, time.Now())
	if err := m.Validate(context.Background(), "user-1"); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestRevokeEndsSession(t *testing.T) {
	now := time.Now()
	store := &stubStore{}
	m := newTestManager(store, 30*time.Minute, now)

	if err := m.Touch(context.Background(), "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Revoke(context.Background(), "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := m.Validate(context.Background(), "user-1"); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("revoked session must be expired, got %v", err)
	}
}
