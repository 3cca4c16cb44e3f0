package webhooks

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/coffeemorning/cmc-backend/api/responses"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

// maxPayloadBytes bounds the webhook body; Stripe events are small.
const maxPayloadBytes = 64 * 1024

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) error
}

type stripeWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type stripeClient interface {
	SigningSecret() string
}

// stripeEndpoint bundles the collaborators a webhook request runs through.
type stripeEndpoint struct {
	svc    StripeWebhookService
	client stripeClient
	guard  stripeWebhookGuard
	logg   *logger.Logger
}

func (e *stripeEndpoint) checkWiring() error {
	switch {
	case e.svc == nil:
		return pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable")
	case e.client == nil:
		return pkgerrors.New(pkgerrors.CodeInternal, "stripe client unavailable")
	case e.guard == nil:
		return pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable")
	}
	return nil
}

// verifiedEvent reads the capped body and authenticates it against the
// Stripe-Signature header before any event field is trusted.
func (e *stripeEndpoint) verifiedEvent(r *http.Request) (stripe.Event, error) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body")
	}
	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		return stripe.Event{}, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing")
	}
	event, err := webhook.ConstructEvent(payload, sigHeader, e.client.SigningSecret())
	if err != nil {
		return stripe.Event{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify signature")
	}
	return event, nil
}

// process marks the event as seen, hands it to the service and unmarks it when
// handling fails so Stripe's retry gets another attempt. The bool reports
// whether the event was a duplicate.
func (e *stripeEndpoint) process(ctx context.Context, event *stripe.Event) (bool, error) {
	alreadyProcessed, err := e.guard.CheckAndMark(ctx, event.ID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	if alreadyProcessed {
		return true, nil
	}
	if err := e.svc.HandleEvent(ctx, event); err != nil {
		_ = e.guard.Delete(ctx, event.ID)
		return false, err
	}
	return false, nil
}

// StripeWebhook verifies and routes Stripe payment lifecycle events.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard stripeWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	endpoint := &stripeEndpoint{svc: svc, client: client, guard: guard, logg: logg}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := endpoint.checkWiring(); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		event, err := endpoint.verifiedEvent(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		duplicate, err := endpoint.process(ctx, &event)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if !duplicate && logg != nil {
			logg.Info(ctx, fmt.Sprintf("stripe event %s processed", event.ID))
		}
		responses.WriteSuccess(w, nil)
	}
}
