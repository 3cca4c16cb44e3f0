package donations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
)

// Repository defines persistence operations for donations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	FindByID(ctx context.Context, id string) (*models.Donation, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, params pagination.Params) (*DonationList, error)
	SumByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error)
}
