package packorders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
)

// Repository defines persistence operations for pack orders and pack contents.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PackOrder) (*models.PackOrder, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PackOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.PackOrder, error)
	FindByIntentID(ctx context.Context, intentID string) (*models.PackOrder, error)
	FindByIntentIDForUpdate(ctx context.Context, intentID string) (*models.PackOrder, error)
	FindByCampaignID(ctx context.Context, campaignID uuid.UUID) (*models.PackOrder, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params pagination.Params, filters AdminFilters) (*OrderList, error)
	FindPackContent(ctx context.Context, packType enums.PackType) (*models.PackContent, error)
	ListPackContents(ctx context.Context) ([]models.PackContent, error)
}
