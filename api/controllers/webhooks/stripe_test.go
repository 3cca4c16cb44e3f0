package webhooks

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type stubEventService struct {
	handled []string
	err     error
}

func (s *stubEventService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	s.handled = append(s.handled, event.ID)
	return s.err
}

type stubGuard struct {
	seen    map[string]bool
	deleted []string
}

func (s *stubGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[eventID] {
		return true, nil
	}
	s.seen[eventID] = true
	return false, nil
}

func (s *stubGuard) Delete(ctx context.Context, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	delete(s.seen, eventID)
	return nil
}

type stubSigner struct {
	secret string
}

func (s stubSigner) SigningSecret() string {
	return s.secret
}

func eventPayload(id string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"object":"event","type":"payment_intent.succeeded","api_version":%q}`, id, stripe.APIVersion))
}

func signedRequest(payload []byte, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	ts := time.Now()
	sig := webhook.ComputeSignature(ts, payload, secret)
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig)))
	return req
}

func TestStripeWebhookProcessesVerifiedEvent(t *testing.T) {
	svc := &stubEventService{}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, stubSigner{secret: "whsec_test"}, guard, testLogger())

	rec := httptest.NewRecorder()
	handler(rec, signedRequest(eventPayload("evt_1"), "whsec_test"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(svc.handled) != 1 || svc.handled[0] != "evt_1" {
		t.Fatalf("handled events = %v", svc.handled)
	}
}

func TestStripeWebhookRejectsUnsignedRequest(t *testing.T) {
	svc := &stubEventService{}
	handler := StripeWebhook(svc, stubSigner{secret: "whsec_test"}, &stubGuard{}, testLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(eventPayload("evt_1")))
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if len(svc.handled) != 0 {
		t.Fatal("unsigned request must not reach the service")
	}
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubEventService{}
	handler := StripeWebhook(svc, stubSigner{secret: "whsec_test"}, &stubGuard{}, testLogger())

	rec := httptest.NewRecorder()
	handler(rec, signedRequest(eventPayload("evt_1"), "whsec_other"))

	if rec.Code == http.StatusOK {
		t.Fatal("wrong signing secret must be rejected")
	}
	if len(svc.handled) != 0 {
		t.Fatal("unverified request must not reach the service")
	}
}

func TestStripeWebhookSkipsDuplicateEvent(t *testing.T) {
	svc := &stubEventService{}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, stubSigner{secret: "whsec_test"}, guard, testLogger())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler(rec, signedRequest(eventPayload("evt_dup"), "whsec_test"))
		if rec.Code != http.StatusOK {
			t.Fatalf("delivery %d: status = %d", i, rec.Code)
		}
	}
	if len(svc.handled) != 1 {
		t.Fatalf("duplicate delivery must be handled once, got %d", len(svc.handled))
	}
}

func TestStripeWebhookUnmarksFailedEvent(t *testing.T) {
	svc := &stubEventService{err: errors.New("downstream broke")}
	guard := &stubGuard{}
	handler := StripeWebhook(svc, stubSigner{secret: "whsec_test"}, guard, testLogger())

	rec := httptest.NewRecorder()
	handler(rec, signedRequest(eventPayload("evt_fail"), "whsec_test"))

	if rec.Code == http.StatusOK {
		t.Fatal("handler failure must surface as an error")
	}
	if len(guard.deleted) != 1 || guard.deleted[0] != "evt_fail" {
		t.Fatalf("failed event must be unmarked for retry, got %v", guard.deleted)
	}
}
