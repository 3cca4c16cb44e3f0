package campaigns

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

type stubRepo struct {
	campaign      *models.Campaign
	raised        int64
	donationCount int64
	updateCalls   []map[string]any
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubRepo) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	panic("not implemented")
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	if s.campaign == nil || s.campaign.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.campaign, nil
}

func (s *stubRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.FindByID(ctx, id)
}

func (s *stubRepo) FindByDisplayNumber(ctx context.Context, number int64) (*models.Campaign, error) {
	panic("not implemented")
}

func (s *stubRepo) ListPublic(ctx context.Context, params pagination.Params, filters PublicFilters) (*CampaignList, error) {
	list := &CampaignList{}
	if s.campaign != nil && s.campaign.IsPubliclyVisible() {
		list.Campaigns = []models.Campaign{*s.campaign}
	}
	return list, nil
}

func (s *stubRepo) ListAdmin(ctx context.Context, params pagination.Params, filters AdminFilters) (*CampaignList, error) {
	list := &CampaignList{}
	if s.campaign != nil {
		list.Campaigns = []models.Campaign{*s.campaign}
	}
	return list, nil
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updateCalls = append(s.updateCalls, updates)
	if s.campaign == nil || s.campaign.ID != id {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["title"].(string); ok {
		s.campaign.Title = v
	}
	if v, ok := updates["goal_amount"].(int64); ok {
		s.campaign.GoalAmount = v
	}
	return nil
}

func (s *stubRepo) SumDonations(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.raised, nil
}

func (s *stubRepo) CountDonations(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.donationCount, nil
}

func liveCampaign() *models.Campaign {
	return &models.Campaign{
		ID:                uuid.New(),
		Title:             "Coffee for Care",
		OrganizerName:     "Mary Byrne",
		County:            "Galway",
		GoalAmount:        100000,
		IsActive:          true,
		IsApproved:        true,
		PackPaymentStatus: enums.PaymentStatusCompleted,
	}
}

func newTestService(t *testing.T, repo *stubRepo) *Service {
	t.Helper()
	svc, err := NewService(repo, testLogger())
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func TestGetReturnsLiveCampaignWithTotals(t *testing.T) {
	campaign := liveCampaign()
	repo := &stubRepo{campaign: campaign, raised: 34050, donationCount: 12}
	svc := newTestService(t, repo)

	view, err := svc.Get(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if view.RaisedMinor != 34050 || view.DonationCount != 12 {
		t.Fatalf("totals wrong: %+v", view)
	}
	if view.Raised.StringFixed(2) != "340.50" {
		t.Fatalf("decimal conversion wrong: %s", view.Raised)
	}
	if view.State != enums.CampaignStateLive {
		t.Fatalf("expected live, got %s", view.State)
	}
}

func TestGetHidesNonVisibleCampaign(t *testing.T) {
	campaign := liveCampaign()
	campaign.IsApproved = false
	repo := &stubRepo{campaign: campaign}
	svc := newTestService(t, repo)

	_, err := svc.Get(context.Background(), campaign.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unapproved campaign must read as not found, got %v", err)
	}
}

func TestGetAdminReturnsAnyState(t *testing.T) {
	campaign := liveCampaign()
	campaign.IsApproved = false
	repo := &stubRepo{campaign: campaign}
	svc := newTestService(t, repo)

	view, err := svc.GetAdmin(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if view.State != enums.CampaignStateAwaitingApproval {
		t.Fatalf("expected awaiting_approval, got %s", view.State)
	}
}

func TestViewWithZeroDonations(t *testing.T) {
	campaign := liveCampaign()
	repo := &stubRepo{campaign: campaign}
	svc := newTestService(t, repo)

	view, err := svc.Get(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if view.RaisedMinor != 0 || view.DonationCount != 0 {
		t.Fatalf("fresh campaign must report zero, got %+v", view)
	}
	if view.Raised.StringFixed(2) != "0.00" {
		t.Fatalf("zero must render as 0.00, got %s", view.Raised)
	}
}

func TestListAdminRejectsInvalidStateFilter(t *testing.T) {
	svc := newTestService(t, &stubRepo{})
	_, _, err := svc.ListAdmin(context.Background(), pagination.Params{}, AdminFilters{State: "bogus"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateDetailsRejectsNonPositiveGoal(t *testing.T) {
	campaign := liveCampaign()
	repo := &stubRepo{campaign: campaign}
	svc := newTestService(t, repo)

	zero := int64(0)
	_, err := svc.UpdateDetails(context.Background(), campaign.ID, UpdateDetailsInput{GoalAmount: &zero})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(repo.updateCalls) != 0 {
		t.Fatal("invalid goal must not write")
	}
}

func TestUpdateDetailsAppliesPartialEdit(t *testing.T) {
	campaign := liveCampaign()
	repo := &stubRepo{campaign: campaign}
	svc := newTestService(t, repo)

	title := "Coffee for Care 2026"
	view, err := svc.UpdateDetails(context.Background(), campaign.ID, UpdateDetailsInput{Title: &title})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if view.Title != title {
		t.Fatalf("title not applied: %q", view.Title)
	}
	if len(repo.updateCalls) != 1 {
		t.Fatalf("expected one write, got %d", len(repo.updateCalls))
	}
	if _, ok := repo.updateCalls[0]["story"]; ok {
		t.Fatal("untouched fields must not appear in the update")
	}
}

func TestUpdateDetailsNoFieldsIsReadOnly(t *testing.T) {
	campaign := liveCampaign()
	repo := &stubRepo{campaign: campaign}
	svc := newTestService(t, repo)

	view, err := svc.UpdateDetails(context.Background(), campaign.ID, UpdateDetailsInput{})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if view.Title != campaign.Title {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(repo.updateCalls) != 0 {
		t.Fatal("empty edit must not write")
	}
}

func TestMinorToAmount(t *testing.T) {
	cases := []struct {
		minor int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{1050, "10.50"},
		{100000, "1000.00"},
	}
	for _, tc := range cases {
		if got := MinorToAmount(tc.minor).StringFixed(2); got != tc.want {
			t.Fatalf("MinorToAmount(%d) = %s, want %s", tc.minor, got, tc.want)
		}
	}
}
