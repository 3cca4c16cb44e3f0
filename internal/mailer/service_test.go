package mailer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"gopkg.in/mail.v2"

	"github.com/coffeemorning/cmc-backend/pkg/config"
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type stubTemplateRepo struct {
	templates []models.EmailTemplate
	listErr   error
	listCalls int
}

func (s *stubTemplateRepo) ListActive(ctx context.Context) ([]models.EmailTemplate, error) {
	s.listCalls++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.templates, nil
}

type stubDialer struct {
	messages []*mail.Message
	err      error
}

func (s *stubDialer) DialAndSend(m ...*mail.Message) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, m...)
	return nil
}

func receiptTemplate() models.EmailTemplate {
	return models.EmailTemplate{
		Type:     enums.TemplateDonationReceipt,
		Subject:  "Thank you{{#donor_name}}, {{donor_name}}{{/donor_name}}",
		BodyHTML: "<p>You donated €{{amount}}.</p>",
		BodyText: "You donated EUR {{amount}}.",
		IsActive: true,
	}
}

func newTestMailer(t *testing.T, repo TemplateRepository, d dialer) *Service {
	t.Helper()
	svc, err := NewServiceWithDialer(repo, d, "hello@coffeemorningchallenge.ie",
		config.TemplatesConfig{RefreshInterval: time.Minute}, testLogger())
	if err != nil {
		t.Fatalf("mailer constructor failed: %v", err)
	}
	return svc
}

func TestDispatchRendersAndSends(t *testing.T) {
	repo := &stubTemplateRepo{templates: []models.EmailTemplate{receiptTemplate()}}
	d := &stubDialer{}
	svc := newTestMailer(t, repo, d)

	result := svc.Dispatch(context.Background(), enums.TemplateDonationReceipt, "sean@example.com", map[string]string{
		"donor_name": "Sean",
		"amount":     "10.50",
	})
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if len(d.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(d.messages))
	}
	msg := d.messages[0]
	if got := msg.GetHeader("Subject"); len(got) != 1 || got[0] != "Thank you, Sean" {
		t.Fatalf("subject not rendered: %v", got)
	}
	if got := msg.GetHeader("To"); len(got) != 1 || got[0] != "sean@example.com" {
		t.Fatalf("recipient wrong: %v", got)
	}
	var body strings.Builder
	if _, err := msg.WriteTo(&body); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if !strings.Contains(body.String(), "10.50") {
		t.Fatal("body must carry the rendered amount")
	}
}

func TestDispatchRequiresRecipient(t *testing.T) {
	repo := &stubTemplateRepo{templates: []models.EmailTemplate{receiptTemplate()}}
	d := &stubDialer{}
	svc := newTestMailer(t, repo, d)

	result := svc.Dispatch(context.Background(), enums.TemplateDonationReceipt, "", nil)
	if result.Success || result.Error == "" {
		t.Fatalf("expected failure, got %+v", result)
	}
	if len(d.messages) != 0 {
		t.Fatal("nothing may be sent without a recipient")
	}
}

func TestDispatchUsesBundledDefaultWhenStoreUnreachable(t *testing.T) {
	repo := &stubTemplateRepo{listErr: errors.New("connection refused")}
	d := &stubDialer{}
	svc := newTestMailer(t, repo, d)

	result := svc.Dispatch(context.Background(), enums.TemplateDonationReceipt, "sean@example.com", map[string]string{
		"amount": "10.50",
	})
	if !result.Success {
		t.Fatalf("expected bundled fallback, got %q", result.Error)
	}
	if len(d.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(d.messages))
	}
	if got := d.messages[0].GetHeader("Subject"); len(got) != 1 || !strings.Contains(got[0], "Thank you for your donation") {
		t.Fatalf("bundled subject not used: %v", got)
	}
}

func TestDispatchUsesBundledDefaultWhenTypeMissing(t *testing.T) {
	repo := &stubTemplateRepo{templates: []models.EmailTemplate{receiptTemplate()}}
	d := &stubDialer{}
	svc := newTestMailer(t, repo, d)

	result := svc.Dispatch(context.Background(), enums.TemplatePaymentLink, "mary@example.com", map[string]string{
		"organizer_name": "Mary Byrne",
		"campaign_title": "Coffee for Care",
		"payment_url":    "https://pay.example.com/cs_123",
	})
	if !result.Success {
		t.Fatalf("expected bundled fallback, got %q", result.Error)
	}
	if len(d.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(d.messages))
	}
	var body strings.Builder
	if _, err := d.messages[0].WriteTo(&body); err != nil {
		t.Fatalf("write message: %v", err)
	}
	if !strings.Contains(body.String(), "https://pay.example.com/cs_123") {
		t.Fatal("bundled body must carry the payment url")
	}
}

func TestDispatchRejectsUnknownTemplate(t *testing.T) {
	svc := newTestMailer(t, &stubTemplateRepo{}, &stubDialer{})
	result := svc.Dispatch(context.Background(), enums.TemplateType("bogus"), "sean@example.com", nil)
	if result.Success {
		t.Fatal("unknown template must fail")
	}
}

func TestSendReturnsDialerError(t *testing.T) {
	repo := &stubTemplateRepo{templates: []models.EmailTemplate{receiptTemplate()}}
	d := &stubDialer{err: errors.New("smtp unreachable")}
	svc := newTestMailer(t, repo, d)

	err := svc.Send(context.Background(), enums.TemplateDonationReceipt, "sean@example.com", nil)
	if err == nil || !strings.Contains(err.Error(), "smtp unreachable") {
		t.Fatalf("expected dialer error, got %v", err)
	}
}

func TestDispatchCachesTemplates(t *testing.T) {
	repo := &stubTemplateRepo{templates: []models.EmailTemplate{receiptTemplate()}}
	d := &stubDialer{}
	svc := newTestMailer(t, repo, d)

	for i := 0; i < 3; i++ {
		if result := svc.Dispatch(context.Background(), enums.TemplateDonationReceipt, "sean@example.com", nil); !result.Success {
			t.Fatalf("send %d failed: %q", i, result.Error)
		}
	}
	if repo.listCalls != 1 {
		t.Fatalf("templates must load once within the refresh window, got %d loads", repo.listCalls)
	}
}
