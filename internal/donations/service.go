package donations

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/internal/campaigns"
	"github.com/coffeemorning/cmc-backend/pkg/db"
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
	pkgstripe "github.com/coffeemorning/cmc-backend/pkg/stripe"
)

// Metadata keys carrying donor details through the processor round trip.
const (
	MetadataDonorNameKey   = "donor_name"
	MetadataDonorEmailKey  = "donor_email"
	MetadataMessageKey     = "donor_message"
	MetadataIsAnonymousKey = "is_anonymous"
)

type paymentGateway interface {
	CreatePaymentIntent(ctx context.Context, params pkgstripe.IntentParams) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error)
}

// mailSender is the async surface of the mailer. Receipts never block the
// finalize path; the dispatcher logs its own failures.
type mailSender interface {
	SendAsync(ctx context.Context, template enums.TemplateType, to string, data map[string]string)
}

type notifier interface {
	Notify(ctx context.Context, typ enums.NotificationType, title, body string, campaignID *uuid.UUID)
}

type changePublisher interface {
	PublishChange(ctx context.Context, table, op, id string)
}

// ServiceParams wires the donation orchestrator.
type ServiceParams struct {
	Repo           Repository
	CampaignRepo   campaigns.Repository
	Gateway        paymentGateway
	Mailer         mailSender
	Notifier       notifier
	Publisher      changePublisher
	MinAmountMinor int64
	Logger         *logger.Logger
}

// Service handles the two-phase donation flow: initiate opens the payment,
// finalize records the row once the processor confirms the charge.
type Service struct {
	repo           Repository
	campaignRepo   campaigns.Repository
	gateway        paymentGateway
	mailer         mailSender
	notifier       notifier
	publisher      changePublisher
	minAmountMinor int64
	logger         *logger.Logger
	now            func() time.Time
}

// NewService validates dependencies and builds the donation service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "donations repo required")
	}
	if params.CampaignRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "campaign repo required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	if params.MinAmountMinor <= 0 {
		params.MinAmountMinor = 100
	}
	return &Service{
		repo:           params.Repo,
		campaignRepo:   params.CampaignRepo,
		gateway:        params.Gateway,
		mailer:         params.Mailer,
		notifier:       params.Notifier,
		publisher:      params.Publisher,
		minAmountMinor: params.MinAmountMinor,
		logger:         params.Logger,
		now:            time.Now,
	}, nil
}

// Initiate validates the donation and opens a payment with the processor.
// Nothing is persisted until the charge succeeds.
func (s *Service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if input.AmountMinor < s.minAmountMinor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("minimum donation is %d cents", s.minAmountMinor))
	}
	if strings.TrimSpace(input.DonorEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donor email is required")
	}
	if !input.IsAnonymous && strings.TrimSpace(input.DonorName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donor name is required unless the donation is anonymous")
	}
	if input.IsAnonymous && input.DonorName != "" {
		// Anonymous donors may still leave a name for the receipt; the
		// public view hides it either way.
		s.logger.Info(s.logger.WithCampaignID(ctx, input.CampaignID.String()), "anonymous donation with donor name")
	}

	campaign, err := s.campaignRepo.FindByID(ctx, input.CampaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if !campaign.IsPubliclyVisible() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "campaign is not accepting donations")
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, pkgstripe.IntentParams{
		AmountMinor:  input.AmountMinor,
		Purpose:      pkgstripe.PurposeDonation,
		CampaignID:   campaign.ID.String(),
		Description:  fmt.Sprintf("Donation to %q", campaign.Title),
		ReceiptEmail: input.DonorEmail,
		Metadata: map[string]string{
			MetadataDonorNameKey:   input.DonorName,
			MetadataDonorEmailKey:  input.DonorEmail,
			MetadataMessageKey:     input.Message,
			MetadataIsAnonymousKey: strconv.FormatBool(input.IsAnonymous),
		},
	})
	if err != nil {
		return nil, err
	}

	return &InitiateResult{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		AmountMinor:  input.AmountMinor,
	}, nil
}

// Finalize records a donation whose payment the processor has confirmed.
// The intent id is the primary key, so replays return the stored row and a
// duplicate can never inflate the campaign total. A storage failure here is
// the one case where money moved but the record did not; it surfaces as a
// persistence error so support can reconcile.
func (s *Service) Finalize(ctx context.Context, input FinalizeInput) (*models.Donation, error) {
	if input.IntentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	if input.CampaignID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign id is required")
	}
	if input.AmountMinor <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donation amount must be positive")
	}

	donation := &models.Donation{
		ID:          input.IntentID,
		CampaignID:  input.CampaignID,
		AmountMinor: input.AmountMinor,
		IsAnonymous: input.IsAnonymous,
	}
	if input.DonorName != "" {
		donation.DonorName = &input.DonorName
	}
	if input.DonorEmail != "" {
		donation.DonorEmail = &input.DonorEmail
	}
	if input.Message != "" {
		donation.Message = &input.Message
	}

	if _, err := s.repo.Create(ctx, donation); err != nil {
		if db.IsUniqueViolation(err, "") {
			existing, findErr := s.repo.FindByID(ctx, input.IntentID)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, findErr, "load recorded donation")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "record donation")
	}

	s.afterRecorded(ctx, donation)
	return donation, nil
}

// InputFromIntent rebuilds the finalize input from a donation payment
// intent's metadata.
func InputFromIntent(intent *stripe.PaymentIntent) (FinalizeInput, error) {
	if intent == nil {
		return FinalizeInput{}, pkgerrors.New(pkgerrors.CodeValidation, "payment intent required")
	}
	if intent.Metadata[pkgstripe.MetadataPurposeKey] != pkgstripe.PurposeDonation {
		return FinalizeInput{}, pkgerrors.New(pkgerrors.CodeValidation, "payment is not a donation")
	}
	campaignID, err := uuid.Parse(intent.Metadata[pkgstripe.MetadataCampaignKey])
	if err != nil {
		return FinalizeInput{}, pkgerrors.New(pkgerrors.CodeValidation, "donation payment missing campaign id")
	}
	isAnonymous, _ := strconv.ParseBool(intent.Metadata[MetadataIsAnonymousKey])
	return FinalizeInput{
		IntentID:    intent.ID,
		CampaignID:  campaignID,
		AmountMinor: intent.Amount,
		DonorName:   intent.Metadata[MetadataDonorNameKey],
		DonorEmail:  intent.Metadata[MetadataDonorEmailKey],
		Message:     intent.Metadata[MetadataMessageKey],
		IsAnonymous: isAnonymous,
	}, nil
}

// FinalizeByIntentID verifies the charge with the processor before recording
// the donation. Browsers call this after confirming the payment; the webhook
// remains the authoritative path and replays safely against the same row.
func (s *Service) FinalizeByIntentID(ctx context.Context, intentID string) (*models.Donation, error) {
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	intent, err := s.gateway.GetPaymentIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has not succeeded")
	}
	input, err := InputFromIntent(intent)
	if err != nil {
		return nil, err
	}
	return s.Finalize(ctx, input)
}

// ListForCampaign pages the public donor wall. Anonymous donors appear with
// their identity masked.
func (s *Service) ListForCampaign(ctx context.Context, campaignID uuid.UUID, params pagination.Params) ([]PublicView, string, error) {
	campaign, err := s.campaignRepo.FindByID(ctx, campaignID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if !campaign.IsPubliclyVisible() {
		return nil, "", pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}

	list, err := s.repo.ListByCampaign(ctx, campaignID, params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list donations")
	}

	views := make([]PublicView, 0, len(list.Donations))
	for i := range list.Donations {
		views = append(views, NewPublicView(&list.Donations[i]))
	}
	return views, list.NextCursor, nil
}

// ListForAdmin pages donations with full donor details.
func (s *Service) ListForAdmin(ctx context.Context, campaignID uuid.UUID, params pagination.Params) (*DonationList, error) {
	list, err := s.repo.ListByCampaign(ctx, campaignID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list donations")
	}
	return list, nil
}

// RaisedAmount sums all recorded donations for a campaign.
func (s *Service) RaisedAmount(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	total, err := s.repo.SumByCampaign(ctx, campaignID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum donations")
	}
	return total, nil
}

func (s *Service) afterRecorded(ctx context.Context, donation *models.Donation) {
	if s.notifier != nil {
		name := AnonymousDonorName
		if !donation.IsAnonymous && donation.DonorName != nil && *donation.DonorName != "" {
			name = *donation.DonorName
		}
		s.notifier.Notify(ctx, enums.NotificationTypeDonation,
			"Donation received",
			fmt.Sprintf("%s donated %d cents", name, donation.AmountMinor),
			&donation.CampaignID)
	}
	// Receipt goes out in the background; anonymous donors asked not to be
	// identified and get none.
	if s.mailer != nil && !donation.IsAnonymous && donation.DonorEmail != nil && *donation.DonorEmail != "" {
		data := map[string]string{
			"amount": campaigns.MinorToAmount(donation.AmountMinor).StringFixed(2),
		}
		if donation.DonorName != nil {
			data["donor_name"] = *donation.DonorName
		}
		s.mailer.SendAsync(ctx, enums.TemplateDonationReceipt, *donation.DonorEmail, data)
	}
	if s.publisher != nil {
		s.publisher.PublishChange(ctx, "donations", "insert", donation.ID)
		s.publisher.PublishChange(ctx, "campaigns", "update", donation.CampaignID.String())
	}
}
