package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/coffeemorning/cmc-backend/pkg/auth"
	"github.com/coffeemorning/cmc-backend/pkg/config"
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	"github.com/coffeemorning/cmc-backend/pkg/security"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:             "test-secret",
		Issuer:             "cmc-test",
		ExpirationMinutes:  60,
		SessionIdleMinutes: 30,
	}
}

type stubUserRepo struct {
	user        *models.User
	updateCalls []map[string]any
}

func (s *stubUserRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updateCalls = append(s.updateCalls, updates)
	return nil
}

type stubSessions struct {
	touched []string
	revoked []string
}

func (s *stubSessions) Touch(ctx context.Context, userID string) error {
	s.touched = append(s.touched, userID)
	return nil
}

func (s *stubSessions) Revoke(ctx context.Context, userID string) error {
	s.revoked = append(s.revoked, userID)
	return nil
}

func adminUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "admin@coffeemorningchallenge.ie",
		Name:         "Site Admin",
		PasswordHash: hash,
		Role:         pkgauth.RoleAdmin,
	}
}

func newTestService(t *testing.T, repo *stubUserRepo, sessions *stubSessions) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Sessions: sessions,
		JWT:      testJWTConfig(),
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestLoginMintsTokenAndOpensSession(t *testing.T) {
	user := adminUser(t, "correct horse")
	repo := &stubUserRepo{user: user}
	sessions := &stubSessions{}
	svc := newTestService(t, repo, sessions)

	result, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "correct horse"})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if result.Token == "" {
		t.Fatal("token missing")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("minted token does not parse: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != pkgauth.RoleAdmin {
		t.Fatalf("claims wrong: %+v", claims)
	}
	if len(sessions.touched) != 1 || sessions.touched[0] != user.ID.String() {
		t.Fatalf("session not opened: %v", sessions.touched)
	}
	if len(repo.updateCalls) != 1 {
		t.Fatalf("expected last login write, got %d", len(repo.updateCalls))
	}
	if _, ok := repo.updateCalls[0]["last_login_at"].(time.Time); !ok {
		t.Fatalf("last login update wrong: %v", repo.updateCalls[0])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := adminUser(t, "correct horse")
	sessions := &stubSessions{}
	svc := newTestService(t, &stubUserRepo{user: user}, sessions)

	_, err := svc.Login(context.Background(), LoginInput{Email: user.Email, Password: "battery staple"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if len(sessions.touched) != 0 {
		t.Fatal("failed login must not open a session")
	}
	wrongPasswordMsg := typed.Message()

	_, err = svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "battery staple"})
	typed = pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if typed.Message() != wrongPasswordMsg {
		t.Fatal("unknown email and wrong password must be indistinguishable")
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	sessions := &stubSessions{}
	svc := newTestService(t, &stubUserRepo{}, sessions)

	userID := uuid.New()
	if err := svc.Logout(context.Background(), userID); err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != userID.String() {
		t.Fatalf("session not revoked: %v", sessions.revoked)
	}
}
