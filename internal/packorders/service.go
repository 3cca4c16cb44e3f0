package packorders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/internal/campaigns"
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
	pkgstripe "github.com/coffeemorning/cmc-backend/pkg/stripe"
)

type paymentGateway interface {
	CreatePaymentIntent(ctx context.Context, params pkgstripe.IntentParams) (*stripe.PaymentIntent, error)
	CreatePaymentLink(ctx context.Context, params pkgstripe.LinkParams) (*stripe.CheckoutSession, error)
}

type mailSender interface {
	Send(ctx context.Context, template enums.TemplateType, to string, data map[string]string) error
}

type notifier interface {
	Notify(ctx context.Context, typ enums.NotificationType, title, body string, campaignID *uuid.UUID)
}

type changePublisher interface {
	PublishChange(ctx context.Context, table, op, id string)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the pack order orchestrator.
type ServiceParams struct {
	Repo              Repository
	CampaignRepo      campaigns.Repository
	Gateway           paymentGateway
	TransactionRunner txRunner
	Mailer            mailSender
	Notifier          notifier
	Publisher         changePublisher
	PublicBaseURL     string
	Logger            *logger.Logger
}

// Service orchestrates campaign creation with its pack order and the pack
// payment lifecycle.
type Service struct {
	repo          Repository
	campaignRepo  campaigns.Repository
	gateway       paymentGateway
	txRunner      txRunner
	mailer        mailSender
	notifier      notifier
	publisher     changePublisher
	publicBaseURL string
	logger        *logger.Logger
	now           func() time.Time
}

// NewService validates dependencies and builds the orchestrator.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "pack order repo required")
	}
	if params.CampaignRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "campaign repo required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		repo:          params.Repo,
		campaignRepo:  params.CampaignRepo,
		gateway:       params.Gateway,
		txRunner:      params.TransactionRunner,
		mailer:        params.Mailer,
		notifier:      params.Notifier,
		publisher:     params.Publisher,
		publicBaseURL: params.PublicBaseURL,
		logger:        params.Logger,
		now:           time.Now,
	}, nil
}

// Create opens a campaign together with its pack order. Paid packs return a
// processor client secret; free packs complete in the same transaction.
func (s *Service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if err := s.validateCreate(ctx, &input); err != nil {
		return nil, err
	}

	content, err := s.repo.FindPackContent(ctx, input.PackType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown pack type")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack content")
	}
	if len(input.GarmentSizes) > content.GarmentSlots {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("pack %q allows at most %d garment sizes", input.PackType, content.GarmentSlots))
	}

	free := content.PriceMinor == 0
	campaign := &models.Campaign{
		Title:             input.Title,
		OrganizerName:     input.OrganizerName,
		Email:             input.Email,
		Phone:             input.Phone,
		County:            input.County,
		Story:             input.Story,
		GoalAmount:        input.GoalAmount,
		EventAt:           input.EventAt,
		EventLocation:     input.EventLocation,
		SocialLinks:       input.SocialLinks,
		ImageURL:          input.ImageURL,
		IsActive:          true,
		PackPaymentStatus: enums.PaymentStatusPending,
	}
	order := &models.PackOrder{
		PackType:        input.PackType,
		AmountMinor:     content.PriceMinor,
		GarmentSizes:    input.GarmentSizes,
		ShippingAddress: input.ShippingAddress,
		ContactPhone:    input.Phone,
		PaymentStatus:   enums.PaymentStatusPending,
	}
	if free {
		paidAt := s.now().UTC()
		order.PaymentStatus = enums.PaymentStatusCompleted
		order.PaidAt = &paidAt
		campaign.PackPaymentStatus = enums.PaymentStatusCompleted
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		campaignRepo := s.campaignRepo.WithTx(tx)
		orderRepo := s.repo.WithTx(tx)

		if _, err := campaignRepo.Create(ctx, campaign); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create campaign")
		}
		order.CampaignID = campaign.ID
		if _, err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pack order")
		}
		if err := campaignRepo.Update(ctx, campaign.ID, map[string]any{"pack_order_id": order.ID}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "link pack order")
		}
		campaign.PackOrderID = &order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &CreateResult{Campaign: campaign, Order: order}

	if free {
		s.afterPackPaid(ctx, campaign, order)
		return result, nil
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, pkgstripe.IntentParams{
		AmountMinor:  content.PriceMinor,
		Purpose:      pkgstripe.PurposePackOrder,
		CampaignID:   campaign.ID.String(),
		PackOrderID:  order.ID.String(),
		Description:  fmt.Sprintf("Coffee Morning %s pack", input.PackType),
		ReceiptEmail: input.Email,
	})
	if err != nil {
		// The campaign and order stay pending; an admin can issue a
		// payment link later to recover.
		return nil, err
	}

	if err := s.repo.Update(ctx, order.ID, map[string]any{"payment_intent_id": intent.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "record payment intent")
	}
	order.PaymentIntentID = &intent.ID
	result.ClientSecret = intent.ClientSecret

	if s.notifier != nil {
		s.notifier.Notify(ctx, enums.NotificationTypeCampaign,
			"New campaign submitted",
			fmt.Sprintf("%s (%s) submitted %q", campaign.OrganizerName, campaign.County, campaign.Title),
			&campaign.ID)
	}
	return result, nil
}

// ConfirmPayment marks the order paid exactly once. Replayed confirmations
// leave the stored paid_at untouched.
func (s *Service) ConfirmPayment(ctx context.Context, intentID string, amountMinor int64) (*ConfirmResult, error) {
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}

	var result ConfirmResult
	var campaign *models.Campaign

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.repo.WithTx(tx)
		campaignRepo := s.campaignRepo.WithTx(tx)

		order, err := orderRepo.FindByIntentIDForUpdate(ctx, intentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pack order not found for payment")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack order")
		}

		result.Order = order
		result.CampaignID = order.CampaignID

		if order.PaymentStatus == enums.PaymentStatusCompleted {
			result.AlreadyPaid = true
			return nil
		}
		if amountMinor > 0 && amountMinor != order.AmountMinor {
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
				"pack_order_id": order.ID.String(),
				"expected":      order.AmountMinor,
				"received":      amountMinor,
			}), "pack payment amount mismatch")
		}

		paidAt := s.now().UTC()
		updates := map[string]any{
			"payment_status": enums.PaymentStatusCompleted,
			"paid_at":        paidAt,
		}
		if err := orderRepo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark pack order paid")
		}
		order.PaymentStatus = enums.PaymentStatusCompleted
		order.PaidAt = &paidAt

		if err := campaignRepo.Update(ctx, order.CampaignID, map[string]any{
			"pack_payment_status": enums.PaymentStatusCompleted,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark campaign pack paid")
		}

		campaign, err = campaignRepo.FindByID(ctx, order.CampaignID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyPaid && campaign != nil {
		s.afterPackPaid(ctx, campaign, result.Order)
	}
	return &result, nil
}

// ConfirmLinkPayment marks an order paid from a completed hosted checkout.
// The session's intent id is recorded so later intent events replay cleanly.
func (s *Service) ConfirmLinkPayment(ctx context.Context, orderID uuid.UUID, intentID string, amountMinor int64) (*ConfirmResult, error) {
	var result ConfirmResult
	var campaign *models.Campaign

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.repo.WithTx(tx)
		campaignRepo := s.campaignRepo.WithTx(tx)

		order, err := orderRepo.FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pack order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack order")
		}

		result.Order = order
		result.CampaignID = order.CampaignID

		if order.PaymentStatus == enums.PaymentStatusCompleted {
			result.AlreadyPaid = true
			return nil
		}
		if amountMinor > 0 && amountMinor != order.AmountMinor {
			s.logger.Warn(s.logger.WithFields(ctx, map[string]any{
				"pack_order_id": order.ID.String(),
				"expected":      order.AmountMinor,
				"received":      amountMinor,
			}), "pack payment amount mismatch")
		}

		paidAt := s.now().UTC()
		updates := map[string]any{
			"payment_status": enums.PaymentStatusCompleted,
			"paid_at":        paidAt,
		}
		if intentID != "" && order.PaymentIntentID == nil {
			updates["payment_intent_id"] = intentID
		}
		if err := orderRepo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark pack order paid")
		}
		order.PaymentStatus = enums.PaymentStatusCompleted
		order.PaidAt = &paidAt

		if err := campaignRepo.Update(ctx, order.CampaignID, map[string]any{
			"pack_payment_status": enums.PaymentStatusCompleted,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark campaign pack paid")
		}

		campaign, err = campaignRepo.FindByID(ctx, order.CampaignID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.AlreadyPaid && campaign != nil {
		s.afterPackPaid(ctx, campaign, result.Order)
	}
	return &result, nil
}

// FailPayment records a declined pack payment. Completed orders never move
// back to failed.
func (s *Service) FailPayment(ctx context.Context, intentID, reason string) error {
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		orderRepo := s.repo.WithTx(tx)
		order, err := orderRepo.FindByIntentIDForUpdate(ctx, intentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "pack order not found for payment")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack order")
		}
		if order.PaymentStatus == enums.PaymentStatusCompleted {
			return nil
		}
		if err := orderRepo.Update(ctx, order.ID, map[string]any{
			"payment_status": enums.PaymentStatusFailed,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "mark pack order failed")
		}
		if s.notifier != nil {
			title := "Pack payment failed"
			if reason != "" {
				title = fmt.Sprintf("Pack payment failed (%s)", reason)
			}
			s.notifier.Notify(ctx, enums.NotificationTypePackOrder, title,
				fmt.Sprintf("Order %s", order.ID), &order.CampaignID)
		}
		return nil
	})
}

// SendPaymentLink opens a hosted checkout for an unpaid order and emails the
// organizer the URL. This is the recovery path for failed pack payments.
func (s *Service) SendPaymentLink(ctx context.Context, orderID uuid.UUID) (*PaymentLinkResult, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack order")
	}
	if order.PaymentStatus == enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "pack order is already paid")
	}
	campaign, err := s.campaignRepo.FindByID(ctx, order.CampaignID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}

	sess, err := s.gateway.CreatePaymentLink(ctx, pkgstripe.LinkParams{
		AmountMinor:   order.AmountMinor,
		Purpose:       pkgstripe.PurposePackOrder,
		CampaignID:    campaign.ID.String(),
		PackOrderID:   order.ID.String(),
		ProductName:   fmt.Sprintf("Coffee Morning %s pack", order.PackType),
		CustomerEmail: campaign.Email,
		SuccessURL:    fmt.Sprintf("%s/campaigns/%s?payment=success", s.publicBaseURL, campaign.ID),
		CancelURL:     fmt.Sprintf("%s/campaigns/%s?payment=cancelled", s.publicBaseURL, campaign.ID),
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, order.ID, map[string]any{"payment_link_id": sess.ID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "record payment link")
	}

	if s.mailer != nil {
		if mailErr := s.mailer.Send(ctx, enums.TemplatePaymentLink, campaign.Email, map[string]string{
			"organizer_name": campaign.OrganizerName,
			"campaign_title": campaign.Title,
			"payment_url":    sess.URL,
		}); mailErr != nil {
			s.logger.Error(ctx, "send payment link email", mailErr)
		}
	}

	return &PaymentLinkResult{URL: sess.URL, LinkID: sess.ID}, nil
}

// SetTracking records the shipping tracking number on an order. Fulfilment
// staff set it regardless of payment status; packs can ship before a delayed
// payment settles.
func (s *Service) SetTracking(ctx context.Context, orderID uuid.UUID, trackingNumber string) error {
	if trackingNumber == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tracking number is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "pack order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack order")
	}
	if err := s.repo.Update(ctx, order.ID, map[string]any{"tracking_number": trackingNumber}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set tracking number")
	}
	return nil
}

// List pages through pack orders for the admin dashboard.
func (s *Service) List(ctx context.Context, params pagination.Params, filters AdminFilters) (*OrderList, error) {
	if filters.PaymentStatus != "" && !filters.PaymentStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status filter")
	}
	if filters.PackType != "" && !filters.PackType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid pack type filter")
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pack orders")
	}
	return list, nil
}

// PackContents returns the available pack tiers with their prices.
func (s *Service) PackContents(ctx context.Context) ([]models.PackContent, error) {
	contents, err := s.repo.ListPackContents(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pack contents")
	}
	return contents, nil
}

func (s *Service) validateCreate(ctx context.Context, input *CreateInput) error {
	if !input.PackType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid pack type")
	}
	if len(input.GarmentSizes) > enums.MaxGarmentSlots {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("at most %d garment sizes allowed", enums.MaxGarmentSlots))
	}
	if !input.PackType.IncludesGarments() && len(input.GarmentSizes) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "garment sizes not available for this pack")
	}
	if missing := input.ShippingAddress.MissingFields(); len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "incomplete shipping address").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

func (s *Service) afterPackPaid(ctx context.Context, campaign *models.Campaign, order *models.PackOrder) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, enums.NotificationTypePackOrder,
			"Pack order paid",
			fmt.Sprintf("%q is awaiting approval", campaign.Title),
			&campaign.ID)
	}
	if s.mailer != nil {
		if err := s.mailer.Send(ctx, enums.TemplatePackOrdered, campaign.Email, map[string]string{
			"organizer_name": campaign.OrganizerName,
			"campaign_title": campaign.Title,
			"pack_type":      order.PackType.String(),
		}); err != nil {
			s.logger.Error(ctx, "send pack ordered email", err)
		}
	}
	if s.publisher != nil {
		s.publisher.PublishChange(ctx, "pack_orders", "update", order.ID.String())
		s.publisher.PublishChange(ctx, "campaigns", "update", campaign.ID.String())
	}
}
