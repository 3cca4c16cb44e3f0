package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/coffeemorning/cmc-backend/api/responses"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// AuthRateLimitPolicy defines the throttling window and limits for the admin
// login surface. Counting is per source IP and per submitted email, so a
// single address cannot exhaust the attempts allowed for an account.
type AuthRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	emailLimit int
}

// NewAuthRateLimitPolicy builds a policy with the supplied window and limits.
func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, emailLimit int) AuthRateLimitPolicy {
	return AuthRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		emailLimit: emailLimit,
	}
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.emailLimit > 0)
}

func (p AuthRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "auth"
	}
	return p.name
}

func (p AuthRateLimitPolicy) counterKey(scope, id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("rl:%s:%s:%s", scope, p.normalizedName(), id)
}

type authLimiter struct {
	policy AuthRateLimitPolicy
	store  rateLimiterStore
	logg   *logger.Logger
}

// AuthRateLimit enforces the policy on login requests. A disabled policy or
// missing store passes traffic through untouched.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		limiter := &authLimiter{policy: policy, store: store, logg: logg}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ok, err := limiter.checkIP(ctx, w, clientIP(r))
			if err != nil || !ok {
				return
			}
			ok, err = limiter.checkEmail(ctx, w, r)
			if err != nil || !ok {
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (l *authLimiter) checkIP(ctx context.Context, w http.ResponseWriter, ip string) (bool, error) {
	if l.policy.ipLimit <= 0 {
		return true, nil
	}
	key := l.policy.counterKey("ip", ip)
	if key == "" {
		return true, nil
	}

	allowed, count, err := l.allow(ctx, key, int64(l.policy.ipLimit))
	if err != nil {
		responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false, err
	}
	if !allowed {
		l.blocked(ctx, w, "ip", ip, count, l.policy.ipLimit)
		return false, nil
	}
	return true, nil
}

// checkEmail reads and restores the request body so the login handler can
// still decode it. The email is hashed before it becomes a counter key.
func (l *authLimiter) checkEmail(ctx context.Context, w http.ResponseWriter, r *http.Request) (bool, error) {
	if l.policy.emailLimit <= 0 {
		return true, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
		return false, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	email := normalizeEmail(extractEmail(body))
	if email == "" {
		return true, nil
	}

	hash := hashValue(email)
	key := l.policy.counterKey("email", hash)
	allowed, count, err := l.allow(ctx, key, int64(l.policy.emailLimit))
	if err != nil {
		responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
		return false, err
	}
	if !allowed {
		l.blocked(ctx, w, "email", hash, count, l.policy.emailLimit)
		return false, nil
	}
	return true, nil
}

func (l *authLimiter) allow(ctx context.Context, key string, limit int64) (bool, int64, error) {
	count, err := l.store.IncrWithTTL(ctx, key, l.policy.window)
	if err != nil {
		return false, 0, err
	}
	return count <= limit, count, nil
}

func (l *authLimiter) blocked(ctx context.Context, w http.ResponseWriter, scope, id string, count int64, limit int) {
	if l.logg != nil {
		logCtx := l.logg.WithFields(ctx, map[string]any{
			"scope":          scope,
			"policy":         l.policy.normalizedName(),
			scope:            id,
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(l.policy.window.Seconds()),
		})
		l.logg.Warn(logCtx, "auth.rate_limit.blocked")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractEmail(payload []byte) string {
	var body struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	return body.Email
}

func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
