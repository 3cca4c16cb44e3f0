package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/coffeemorning/cmc-backend/pkg/config"
	redisclient "github.com/coffeemorning/cmc-backend/pkg/redis"
)

// ErrSessionExpired signals that the admin has been idle past the timeout.
var ErrSessionExpired = errors.New("session expired")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(userID string) string
}

// Manager tracks admin session activity in Redis. Each authenticated request
// refreshes the activity stamp; requests past the idle timeout are rejected.
type Manager struct {
	store   sessionStore
	keyer   sessionKeyer
	timeout time.Duration
	now     func() time.Time
}

// ActivityChecker exposes the surface needed by the auth middleware.
type ActivityChecker interface {
	Validate(ctx context.Context, userID string) error
	Touch(ctx context.Context, userID string) error
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	timeout := cfg.SessionIdleTimeout()
	if timeout <= 0 {
		return nil, fmt.Errorf("session idle timeout must be positive")
	}
	return &Manager{
		store:   client,
		keyer:   client,
		timeout: timeout,
		now:     time.Now,
	}, nil
}

// Touch records current activity for the session.
func (m *Manager) Touch(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	stamp := m.now().UTC().Format(time.RFC3339Nano)
	return m.store.Set(ctx, m.keyer.SessionKey(userID), stamp, m.timeout)
}

// Validate checks the stored activity stamp against the idle timeout and,
// when still live, refreshes it.
func (m *Manager) Validate(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	stored, err := m.store.Get(ctx, m.keyer.SessionKey(userID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return ErrSessionExpired
		}
		return err
	}
	lastActivity, err := time.Parse(time.RFC3339Nano, stored)
	if err != nil {
		return ErrSessionExpired
	}
	if IsExpired(m.now(), lastActivity, m.timeout) {
		return ErrSessionExpired
	}
	return m.Touch(ctx, userID)
}

// Revoke drops the activity record, ending the session immediately.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(userID))
}

// IsExpired reports whether a session whose last activity was at
// lastActivity has been idle longer than timeout as of now.
func IsExpired(now, lastActivity time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(lastActivity) > timeout
}
