package campaigns

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
)

// Service exposes campaign reads and admin edits. Creation happens through
// the pack order flow, which owns the campaign+order transaction.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService wires the campaign service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "campaigns repo required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{repo: repo, logger: logg}, nil
}

// Get returns the public view of a live campaign. Campaigns that are not
// publicly visible read as not found to keep unapproved pages private.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	if !campaign.IsPubliclyVisible() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}
	return s.buildView(ctx, campaign)
}

// GetAdmin returns any campaign regardless of state.
func (s *Service) GetAdmin(ctx context.Context, id uuid.UUID) (*View, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}
	return s.buildView(ctx, campaign)
}

// ListPublic pages through live campaigns only.
func (s *Service) ListPublic(ctx context.Context, params pagination.Params, filters PublicFilters) ([]View, string, error) {
	list, err := s.repo.ListPublic(ctx, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list campaigns")
	}
	views, err := s.buildViews(ctx, list)
	if err != nil {
		return nil, "", err
	}
	return views, list.NextCursor, nil
}

// ListAdmin pages through campaigns in any state.
func (s *Service) ListAdmin(ctx context.Context, params pagination.Params, filters AdminFilters) ([]View, string, error) {
	if filters.State != "" && !filters.State.IsValid() {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid campaign state filter")
	}
	list, err := s.repo.ListAdmin(ctx, params, filters)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list campaigns")
	}
	views, err := s.buildViews(ctx, list)
	if err != nil {
		return nil, "", err
	}
	return views, list.NextCursor, nil
}

// RaisedAmount computes the campaign total from stored donations. The total
// is never cached or stored; donations are the single source of truth.
func (s *Service) RaisedAmount(ctx context.Context, id uuid.UUID) (int64, error) {
	total, err := s.repo.SumDonations(ctx, id)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum donations")
	}
	return total, nil
}

// UpdateDetails applies admin edits to the organizer-facing fields.
func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, input UpdateDetailsInput) (*View, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Story != nil {
		updates["story"] = *input.Story
	}
	if input.GoalAmount != nil {
		if *input.GoalAmount <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "goal amount must be positive")
		}
		updates["goal_amount"] = *input.GoalAmount
	}
	if input.EventAt != nil {
		updates["event_at"] = *input.EventAt
	}
	if input.EventLocation != nil {
		updates["event_location"] = *input.EventLocation
	}
	if input.SocialLinks != nil {
		updates["social_links"] = *input.SocialLinks
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if len(updates) == 0 {
		return s.buildView(ctx, campaign)
	}

	if err := s.repo.Update(ctx, campaign.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update campaign")
	}
	updated, err := s.repo.FindByID(ctx, campaign.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload campaign")
	}
	return s.buildView(ctx, updated)
}

func (s *Service) buildView(ctx context.Context, campaign *models.Campaign) (*View, error) {
	raised, err := s.repo.SumDonations(ctx, campaign.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum donations")
	}
	count, err := s.repo.CountDonations(ctx, campaign.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count donations")
	}
	view := NewView(campaign, raised, count)
	return &view, nil
}

func (s *Service) buildViews(ctx context.Context, list *CampaignList) ([]View, error) {
	views := make([]View, 0, len(list.Campaigns))
	for i := range list.Campaigns {
		view, err := s.buildView(ctx, &list.Campaigns[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}
