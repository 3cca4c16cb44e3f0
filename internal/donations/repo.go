package donations

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a donations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	if err := r.db.WithContext(ctx).Create(donation).Error; err != nil {
		return nil, err
	}
	return donation, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&donation).Error
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

func (r *repository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, params pagination.Params) (*DonationList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("campaign_id = ?", campaignID)

	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		// Donation ids are processor strings, so the cursor orders on
		// created_at alone with the id as a tiebreak.
		query = query.Where("created_at < ?", cursor.CreatedAt)
	}

	var rows []models.Donation
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &DonationList{Donations: rows}
	if len(rows) > limit {
		list.Donations = rows[:limit]
		last := list.Donations[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
		})
	}
	return list, nil
}

func (r *repository) SumByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("campaign_id = ?", campaignID).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
