package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/coffeemorning/cmc-backend/internal/donations"
	"github.com/coffeemorning/cmc-backend/internal/packorders"
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	pkgstripe "github.com/coffeemorning/cmc-backend/pkg/stripe"
)

type packOrderConfirmer interface {
	ConfirmPayment(ctx context.Context, intentID string, amountMinor int64) (*packorders.ConfirmResult, error)
	ConfirmLinkPayment(ctx context.Context, orderID uuid.UUID, intentID string, amountMinor int64) (*packorders.ConfirmResult, error)
	FailPayment(ctx context.Context, intentID, reason string) error
}

type donationFinalizer interface {
	Finalize(ctx context.Context, input donations.FinalizeInput) (*models.Donation, error)
}

type ServiceParams struct {
	PackOrders packOrderConfirmer
	Donations  donationFinalizer
	Logger     *logger.Logger
}

// Service routes verified processor events to the order and donation flows.
// Events the platform does not care about acknowledge cleanly.
type Service struct {
	packOrders packOrderConfirmer
	donations  donationFinalizer
	logger     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.PackOrders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pack orders service required")
	}
	if params.Donations == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "donations service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		packOrders: params.PackOrders,
		donations:  params.Donations,
		logger:     params.Logger,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode payment intent event")
		}
		return s.handleIntentSucceeded(ctx, &intent)
	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode payment intent event")
		}
		return s.handleIntentFailed(ctx, &intent)
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode checkout session event")
		}
		return s.handleCheckoutCompleted(ctx, &sess)
	default:
		return nil
	}
}

func (s *Service) handleIntentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error {
	switch intent.Metadata[pkgstripe.MetadataPurposeKey] {
	case pkgstripe.PurposeDonation:
		input, err := donations.InputFromIntent(intent)
		if err != nil {
			return err
		}
		_, err = s.donations.Finalize(ctx, input)
		return err
	case pkgstripe.PurposePackOrder:
		_, err := s.packOrders.ConfirmPayment(ctx, intent.ID, intent.Amount)
		return err
	default:
		ctx = s.logger.WithFields(ctx, map[string]any{"intent_id": intent.ID})
		s.logger.Info(ctx, "ignoring intent with unknown purpose")
		return nil
	}
}

func (s *Service) handleIntentFailed(ctx context.Context, intent *stripe.PaymentIntent) error {
	if intent.Metadata[pkgstripe.MetadataPurposeKey] != pkgstripe.PurposePackOrder {
		// Failed donations leave nothing to clean up; no row exists yet.
		return nil
	}
	reason := ""
	if intent.LastPaymentError != nil {
		reason = pkgstripe.DeclineMessage(string(intent.LastPaymentError.DeclineCode))
	}
	return s.packOrders.FailPayment(ctx, intent.ID, reason)
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, sess *stripe.CheckoutSession) error {
	if sess.Metadata[pkgstripe.MetadataPurposeKey] != pkgstripe.PurposePackOrder {
		return nil
	}
	orderID, err := uuid.Parse(sess.Metadata[pkgstripe.MetadataOrderKey])
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout event missing pack order id")
	}
	intentID := ""
	if sess.PaymentIntent != nil {
		intentID = sess.PaymentIntent.ID
	}
	_, err = s.packOrders.ConfirmLinkPayment(ctx, orderID, intentID, sess.AmountTotal)
	return err
}
