package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/internal/campaigns"
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

type mailSender interface {
	Send(ctx context.Context, template enums.TemplateType, to string, data map[string]string) error
}

type changePublisher interface {
	PublishChange(ctx context.Context, table, op, id string)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the approval service.
type ServiceParams struct {
	CampaignRepo      campaigns.Repository
	TransactionRunner txRunner
	Mailer            mailSender
	Publisher         changePublisher
	PublicBaseURL     string
	Logger            *logger.Logger
}

// Service applies admin decisions to campaigns. Every decision re-checks the
// current state under a row lock, so two admins acting at once cannot both
// succeed.
type Service struct {
	campaignRepo  campaigns.Repository
	txRunner      txRunner
	mailer        mailSender
	publisher     changePublisher
	publicBaseURL string
	logger        *logger.Logger
}

// NewService validates dependencies and builds the approval service.
func NewService(params ServiceParams) (*Service, error) {
	if params.CampaignRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "campaign repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		campaignRepo:  params.CampaignRepo,
		txRunner:      params.TransactionRunner,
		mailer:        params.Mailer,
		publisher:     params.Publisher,
		publicBaseURL: params.PublicBaseURL,
		logger:        params.Logger,
	}, nil
}

// Approve takes a paid, awaiting campaign live.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	campaign, err := s.apply(ctx, id, DecisionApprove, map[string]any{"is_approved": true})
	if err != nil {
		return nil, err
	}

	if s.mailer != nil {
		if mailErr := s.mailer.Send(ctx, enums.TemplateCampaignApproved, campaign.Email, map[string]string{
			"organizer_name": campaign.OrganizerName,
			"campaign_title": campaign.Title,
			"campaign_url":   fmt.Sprintf("%s/campaigns/%s", s.publicBaseURL, campaign.ID),
		}); mailErr != nil {
			s.logger.Error(ctx, "send campaign approved email", mailErr)
		}
	}
	return campaign, nil
}

// Reject closes an unapproved campaign. Rejection is terminal; the stored
// timestamp keeps rejected campaigns apart from deactivated ones.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.apply(ctx, id, DecisionReject, map[string]any{
		"is_active":   false,
		"rejected_at": time.Now().UTC(),
	})
}

// Deactivate takes a live or awaiting campaign off the public site.
// Deactivation is terminal; the campaign cannot be re-activated.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.apply(ctx, id, DecisionDeactivate, map[string]any{"is_active": false})
}

func (s *Service) apply(ctx context.Context, id uuid.UUID, decision Decision, updates map[string]any) (*models.Campaign, error) {
	var campaign *models.Campaign

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.campaignRepo.WithTx(tx)
		locked, err := repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load campaign")
		}
		if err := CheckTransition(locked, decision); err != nil {
			return err
		}
		if err := repo.Update(ctx, locked.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update campaign state")
		}
		campaign, err = repo.FindByID(ctx, locked.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload campaign")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logger.WithFields(ctx, map[string]any{
		"campaign_id": campaign.ID.String(),
		"decision":    string(decision),
		"state":       campaign.State().String(),
	})
	s.logger.Info(ctx, "campaign decision applied")

	if s.publisher != nil {
		s.publisher.PublishChange(ctx, "campaigns", "update", campaign.ID.String())
	}
	return campaign, nil
}
