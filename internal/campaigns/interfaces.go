package campaigns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
)

// Repository defines persistence operations for campaigns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	FindByDisplayNumber(ctx context.Context, number int64) (*models.Campaign, error)
	ListPublic(ctx context.Context, params pagination.Params, filters PublicFilters) (*CampaignList, error)
	ListAdmin(ctx context.Context, params pagination.Params, filters AdminFilters) (*CampaignList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	SumDonations(ctx context.Context, id uuid.UUID) (int64, error)
	CountDonations(ctx context.Context, id uuid.UUID) (int64, error)
}
