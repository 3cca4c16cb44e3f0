package donations

import (
	"context"
	"errors"
	"io"
	"testing"
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

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type stubDonationRepo struct {
	donations map[string]*models.Donation
	create    func(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	sum       int64
}

func (s *stubDonationRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubDonationRepo) Create(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	if s.create != nil {
		return s.create(ctx, donation)
	}
	if s.donations == nil {
		s.donations = make(map[string]*models.Donation)
	}
	s.donations[donation.ID] = donation
	return donation, nil
}

func (s *stubDonationRepo) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	donation, ok := s.donations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return donation, nil
}

func (s *stubDonationRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, params pagination.Params) (*DonationList, error) {
	list := &DonationList{}
	for _, donation := range s.donations {
		if donation.CampaignID == campaignID {
			list.Donations = append(list.Donations, *donation)
		}
	}
	return list, nil
}

func (s *stubDonationRepo) SumByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	return s.sum, nil
}

type stubCampaignRepo struct {
	campaign *models.Campaign
}

func (s *stubCampaignRepo) WithTx(tx *gorm.DB) campaigns.Repository {
	return s
}

func (s *stubCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	panic("not implemented")
}

func (s *stubCampaignRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	if s.campaign == nil || s.campaign.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.campaign, nil
}

func (s *stubCampaignRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.FindByID(ctx, id)
}

func (s *stubCampaignRepo) FindByDisplayNumber(ctx context.Context, number int64) (*models.Campaign, error) {
	panic("not implemented")
}

func (s *stubCampaignRepo) ListPublic(ctx context.Context, params pagination.Params, filters campaigns.PublicFilters) (*campaigns.CampaignList, error) {
	panic("not implemented")
}

func (s *stubCampaignRepo) ListAdmin(ctx context.Context, params pagination.Params, filters campaigns.AdminFilters) (*campaigns.CampaignList, error) {
	panic("not implemented")
}

func (s *stubCampaignRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	panic("not implemented")
}

func (s *stubCampaignRepo) SumDonations(ctx context.Context, id uuid.UUID) (int64, error) {
	return 0, nil
}

func (s *stubCampaignRepo) CountDonations(ctx context.Context, id uuid.UUID) (int64, error) {
	return 0, nil
}

type stubGateway struct {
	created   []pkgstripe.IntentParams
	intent    *stripe.PaymentIntent
	getCalls  []string
	getIntent *stripe.PaymentIntent
	err       error
}

func (s *stubGateway) CreatePaymentIntent(ctx context.Context, params pkgstripe.IntentParams) (*stripe.PaymentIntent, error) {
	s.created = append(s.created, params)
	if s.err != nil {
		return nil, s.err
	}
	if s.intent != nil {
		return s.intent, nil
	}
	return &stripe.PaymentIntent{ID: "pi_donation", ClientSecret: "pi_donation_secret"}, nil
}

func (s *stubGateway) GetPaymentIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error) {
	s.getCalls = append(s.getCalls, intentID)
	if s.err != nil {
		return nil, s.err
	}
	return s.getIntent, nil
}

type mailCall struct {
	template enums.TemplateType
	to       string
	data     map[string]string
}

type stubMailer struct {
	calls []mailCall
}

func (s *stubMailer) SendAsync(ctx context.Context, template enums.TemplateType, to string, data map[string]string) {
	s.calls = append(s.calls, mailCall{template: template, to: to, data: data})
}

type notifyCall struct {
	typ   enums.NotificationType
	title string
	body  string
}

type stubNotifier struct {
	calls []notifyCall
}

func (s *stubNotifier) Notify(ctx context.Context, typ enums.NotificationType, title, body string, campaignID *uuid.UUID) {
	s.calls = append(s.calls, notifyCall{typ: typ, title: title, body: body})
}

func liveCampaign() *models.Campaign {
	return &models.Campaign{
		ID:                uuid.New(),
		Title:             "Coffee for Care",
		IsActive:          true,
		IsApproved:        true,
		PackPaymentStatus: enums.PaymentStatusCompleted,
	}
}

func newTestService(t *testing.T, repo *stubDonationRepo, campaignRepo *stubCampaignRepo, gateway *stubGateway, mail *stubMailer, notify *stubNotifier) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:           repo,
		CampaignRepo:   campaignRepo,
		Gateway:        gateway,
		Mailer:         mail,
		Notifier:       notify,
		MinAmountMinor: 100,
		Logger:         testLogger(),
	})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestInitiateRejectsBelowMinimum(t *testing.T) {
	gateway := &stubGateway{}
	svc := newTestService(t, &stubDonationRepo{}, &stubCampaignRepo{campaign: liveCampaign()}, gateway, &stubMailer{}, &stubNotifier{})

	_, err := svc.Initiate(context.Background(), InitiateInput{CampaignID: uuid.New(), AmountMinor: 50})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(gateway.created) != 0 {
		t.Fatal("no payment may be opened for a rejected amount")
	}
}

func TestInitiateRejectsHiddenCampaign(t *testing.T) {
	campaign := liveCampaign()
	campaign.PackPaymentStatus = enums.PaymentStatusPending
	gateway := &stubGateway{}
	svc := newTestService(t, &stubDonationRepo{}, &stubCampaignRepo{campaign: campaign}, gateway, &stubMailer{}, &stubNotifier{})

	_, err := svc.Initiate(context.Background(), InitiateInput{
		CampaignID:  campaign.ID,
		AmountMinor: 1000,
		DonorName:   "Mary Byrne",
		DonorEmail:  "mary@example.com",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(gateway.created) != 0 {
		t.Fatal("no payment may be opened for a hidden campaign")
	}
}

func TestInitiateRequiresDonorIdentity(t *testing.T) {
	campaign := liveCampaign()
	gateway := &stubGateway{}
	svc := newTestService(t, &stubDonationRepo{}, &stubCampaignRepo{campaign: campaign}, gateway, &stubMailer{}, &stubNotifier{})

	_, err := svc.Initiate(context.Background(), InitiateInput{
		CampaignID:  campaign.ID,
		AmountMinor: 1000,
		DonorName:   "Mary Byrne",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("missing email must fail validation, got %v", err)
	}

	_, err = svc.Initiate(context.Background(), InitiateInput{
		CampaignID:  campaign.ID,
		AmountMinor: 1000,
		DonorEmail:  "mary@example.com",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("named donation without a name must fail validation, got %v", err)
	}
	if len(gateway.created) != 0 {
		t.Fatal("no payment may be opened for an incomplete donor")
	}

	// An anonymous donor needs no name.
	_, err = svc.Initiate(context.Background(), InitiateInput{
		CampaignID:  campaign.ID,
		AmountMinor: 1000,
		DonorEmail:  "mary@example.com",
		IsAnonymous: true,
	})
	if err != nil {
		t.Fatalf("anonymous donation without a name must pass, got %v", err)
	}
}

func TestInitiateUnknownCampaign(t *testing.T) {
	svc := newTestService(t, &stubDonationRepo{}, &stubCampaignRepo{}, &stubGateway{}, &stubMailer{}, &stubNotifier{})
	_, err := svc.Initiate(context.Background(), InitiateInput{
		CampaignID:  uuid.New(),
		AmountMinor: 1000,
		DonorName:   "Mary Byrne",
		DonorEmail:  "mary@example.com",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInitiateCarriesDonorMetadata(t *testing.T) {
	campaign := liveCampaign()
	gateway := &stubGateway{}
	svc := newTestService(t, &stubDonationRepo{}, &stubCampaignRepo{campaign: campaign}, gateway, &stubMailer{}, &stubNotifier{})

	result, err := svc.Initiate(context.Background(), InitiateInput{
		CampaignID:  campaign.ID,
		AmountMinor: 2500,
		DonorName:   "Seán Walsh",
		DonorEmail:  "sean@example.com",
		Message:     "Great cause",
		IsAnonymous: true,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if result.IntentID != "pi_donation" || result.ClientSecret != "pi_donation_secret" {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.AmountMinor != 2500 {
		t.Fatalf("amount echoed wrong: %d", result.AmountMinor)
	}
	if len(gateway.created) != 1 {
		t.Fatalf("expected one intent, got %d", len(gateway.created))
	}
	params := gateway.created[0]
	if params.Purpose != pkgstripe.PurposeDonation || params.CampaignID != campaign.ID.String() {
		t.Fatalf("intent misrouted: %+v", params)
	}
	if params.Metadata[MetadataDonorNameKey] != "Seán Walsh" || params.Metadata[MetadataIsAnonymousKey] != "true" {
		t.Fatalf("donor metadata missing: %v", params.Metadata)
	}
}

func TestFinalizeRecordsDonation(t *testing.T) {
	campaignID := uuid.New()
	repo := &stubDonationRepo{}
	mail := &stubMailer{}
	notify := &stubNotifier{}
	svc := newTestService(t, repo, &stubCampaignRepo{}, &stubGateway{}, mail, notify)

	donation, err := svc.Finalize(context.Background(), FinalizeInput{
		IntentID:    "pi_abc",
		CampaignID:  campaignID,
		AmountMinor: 1050,
		DonorName:   "Seán Walsh",
		DonorEmail:  "sean@example.com",
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if donation.ID != "pi_abc" {
		t.Fatalf("intent id must be the primary key, got %q", donation.ID)
	}
	if donation.AmountMinor != 1050 {
		t.Fatalf("amount stored wrong: %d", donation.AmountMinor)
	}
	if len(notify.calls) != 1 || notify.calls[0].typ != enums.NotificationTypeDonation {
		t.Fatalf("expected donation notification, got %v", notify.calls)
	}
	if len(mail.calls) != 1 || mail.calls[0].template != enums.TemplateDonationReceipt {
		t.Fatalf("expected receipt email, got %v", mail.calls)
	}
	if mail.calls[0].data["amount"] != "10.50" {
		t.Fatalf("receipt amount wrong: %q", mail.calls[0].data["amount"])
	}
}

func TestFinalizeAnonymousDonationSkipsReceipt(t *testing.T) {
	repo := &stubDonationRepo{}
	mail := &stubMailer{}
	notify := &stubNotifier{}
	svc := newTestService(t, repo, &stubCampaignRepo{}, &stubGateway{}, mail, notify)

	_, err := svc.Finalize(context.Background(), FinalizeInput{
		IntentID:    "pi_anon",
		CampaignID:  uuid.New(),
		AmountMinor: 1050,
		DonorEmail:  "mary@example.com",
		IsAnonymous: true,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if len(mail.calls) != 0 {
		t.Fatalf("anonymous donation must not receive a receipt, got %v", mail.calls)
	}
	if len(notify.calls) != 1 {
		t.Fatal("admin notification must still fire")
	}
}

func TestFinalizeReplayReturnsExistingRow(t *testing.T) {
	campaignID := uuid.New()
	existing := &models.Donation{ID: "pi_abc", CampaignID: campaignID, AmountMinor: 1050}
	repo := &stubDonationRepo{
		donations: map[string]*models.Donation{"pi_abc": existing},
		create: func(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
			return nil, errors.New(`duplicate key value violates unique constraint "donations_pkey"`)
		},
	}
	notify := &stubNotifier{}
	svc := newTestService(t, repo, &stubCampaignRepo{}, &stubGateway{}, &stubMailer{}, notify)

	donation, err := svc.Finalize(context.Background(), FinalizeInput{
		IntentID:    "pi_abc",
		CampaignID:  campaignID,
		AmountMinor: 1050,
	})
	if err != nil {
		t.Fatalf("replay must succeed, got %v", err)
	}
	if donation != existing {
		t.Fatal("replay must return the stored row")
	}
	if len(notify.calls) != 0 {
		t.Fatal("replay must not notify again")
	}
}

func TestFinalizePersistenceFailureSurfaces(t *testing.T) {
	repo := &stubDonationRepo{
		create: func(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc := newTestService(t, repo, &stubCampaignRepo{}, &stubGateway{}, &stubMailer{}, &stubNotifier{})

	_, err := svc.Finalize(context.Background(), FinalizeInput{
		IntentID:    "pi_abc",
		CampaignID:  uuid.New(),
		AmountMinor: 1050,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePersistence {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestFinalizeByIntentIDRequiresSucceededCharge(t *testing.T) {
	gateway := &stubGateway{getIntent: &stripe.PaymentIntent{
		ID:     "pi_abc",
		Status: stripe.PaymentIntentStatusRequiresPaymentMethod,
	}}
	svc := newTestService(t, &stubDonationRepo{}, &stubCampaignRepo{}, gateway, &stubMailer{}, &stubNotifier{})

	_, err := svc.FinalizeByIntentID(context.Background(), "pi_abc")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestFinalizeByIntentIDRecordsFromMetadata(t *testing.T) {
	campaignID := uuid.New()
	gateway := &stubGateway{getIntent: &stripe.PaymentIntent{
		ID:     "pi_abc",
		Status: stripe.PaymentIntentStatusSucceeded,
		Amount: 1050,
		Metadata: map[string]string{
			pkgstripe.MetadataPurposeKey:  pkgstripe.PurposeDonation,
			pkgstripe.MetadataCampaignKey: campaignID.String(),
			MetadataDonorNameKey:          "Seán Walsh",
			MetadataIsAnonymousKey:        "false",
		},
	}}
	repo := &stubDonationRepo{}
	svc := newTestService(t, repo, &stubCampaignRepo{}, gateway, &stubMailer{}, &stubNotifier{})

	donation, err := svc.FinalizeByIntentID(context.Background(), "pi_abc")
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if donation.CampaignID != campaignID || donation.AmountMinor != 1050 {
		t.Fatalf("donation misrecorded: %+v", donation)
	}
	if donation.DonorName == nil || *donation.DonorName != "Seán Walsh" {
		t.Fatal("donor name not carried from metadata")
	}
}

func TestFinalizeByIntentIDRejectsNonDonation(t *testing.T) {
	gateway := &stubGateway{getIntent: &stripe.PaymentIntent{
		ID:     "pi_abc",
		Status: stripe.PaymentIntentStatusSucceeded,
		Metadata: map[string]string{
			pkgstripe.MetadataPurposeKey: pkgstripe.PurposePackOrder,
		},
	}}
	svc := newTestService(t, &stubDonationRepo{}, &stubCampaignRepo{}, gateway, &stubMailer{}, &stubNotifier{})

	_, err := svc.FinalizeByIntentID(context.Background(), "pi_abc")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListForCampaignHidesNonVisibleCampaign(t *testing.T) {
	campaign := liveCampaign()
	campaign.IsApproved = false
	svc := newTestService(t, &stubDonationRepo{}, &stubCampaignRepo{campaign: campaign}, &stubGateway{}, &stubMailer{}, &stubNotifier{})

	_, _, err := svc.ListForCampaign(context.Background(), campaign.ID, pagination.Params{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("hidden campaign must read as not found, got %v", err)
	}
}

func TestRaisedAmountEmptyCampaign(t *testing.T) {
	svc := newTestService(t, &stubDonationRepo{sum: 0}, &stubCampaignRepo{}, &stubGateway{}, &stubMailer{}, &stubNotifier{})
	total, err := svc.RaisedAmount(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if total != 0 {
		t.Fatalf("expected zero, got %d", total)
	}
}

func TestNewPublicViewMasksAnonymousDonor(t *testing.T) {
	name := "Seán Walsh"
	message := "Great cause"
	donation := &models.Donation{
		ID:          "pi_abc",
		AmountMinor: 1050,
		DonorName:   &name,
		Message:     &message,
		IsAnonymous: true,
		CreatedAt:   time.Now(),
	}
	view := NewPublicView(donation)
	if view.DonorName != AnonymousDonorName {
		t.Fatalf("anonymous donor exposed as %q", view.DonorName)
	}
	if view.AmountMinor != 1050 || view.Message != message {
		t.Fatalf("amount and message must survive masking: %+v", view)
	}

	donation.IsAnonymous = false
	view = NewPublicView(donation)
	if view.DonorName != name {
		t.Fatalf("named donor masked as %q", view.DonorName)
	}
}
