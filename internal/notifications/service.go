package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
)

// Service records and serves the in-app rows on the admin dashboard.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService wires the notifications service.
func NewService(repo Repository, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications repo required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{repo: repo, logger: logg}, nil
}

// Notify writes a dashboard row. Failures are logged, never propagated;
// notifications are best effort and must not break payment flows.
func (s *Service) Notify(ctx context.Context, typ enums.NotificationType, title, body string, campaignID *uuid.UUID) {
	if !typ.IsValid() || title == "" {
		return
	}
	notification := &models.Notification{
		Type:       typ,
		Title:      title,
		Body:       body,
		CampaignID: campaignID,
	}
	if _, err := s.repo.Create(ctx, notification); err != nil {
		s.logger.Error(ctx, "record notification", err)
	}
}

// List pages the dashboard notifications.
func (s *Service) List(ctx context.Context, params pagination.Params, unreadOnly bool) (*NotificationList, error) {
	list, err := s.repo.List(ctx, params, unreadOnly)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	return list, nil
}

// MarkRead stamps one notification as read.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return nil
}

// MarkAllRead stamps every unread notification.
func (s *Service) MarkAllRead(ctx context.Context) error {
	if err := s.repo.MarkAllRead(ctx); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return nil
}

// UnreadCount returns the badge count for the dashboard.
func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	count, err := s.repo.CountUnread(ctx)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count notifications")
	}
	return count, nil
}
