package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
)

// Repository defines persistence operations for admin notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, notification *models.Notification) (*models.Notification, error)
	List(ctx context.Context, params pagination.Params, unreadOnly bool) (*NotificationList, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context) error
	CountUnread(ctx context.Context) (int64, error)
}

// NotificationList is one page of notifications plus the cursor for the next.
type NotificationList struct {
	Notifications []models.Notification
	NextCursor    string
}
