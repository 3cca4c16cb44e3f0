package campaigns

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	"github.com/coffeemorning/cmc-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a campaigns repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if err := r.db.WithContext(ctx).Create(campaign).Error; err != nil {
		return nil, err
	}
	return campaign, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repository) FindByDisplayNumber(ctx context.Context, number int64) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Where("display_number = ?", number).
		First(&campaign).Error
	if err != nil {
		return nil, err
	}
	return &campaign, nil
}

func (r *repository) ListPublic(ctx context.Context, params pagination.Params, filters PublicFilters) (*CampaignList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("is_approved = TRUE").
		Where("is_active = TRUE").
		Where("pack_payment_status = ?", enums.PaymentStatusCompleted)

	query = applyCommonFilters(query, filters.County, filters.Search)
	return r.listPage(query, params)
}

func (r *repository) ListAdmin(ctx context.Context, params pagination.Params, filters AdminFilters) (*CampaignList, error) {
	query := r.db.WithContext(ctx).Model(&models.Campaign{})

	switch filters.State {
	case enums.CampaignStatePendingPayment:
		query = query.Where("is_active = TRUE").
			Where("pack_payment_status <> ?", enums.PaymentStatusCompleted)
	case enums.CampaignStateAwaitingApproval:
		query = query.Where("is_active = TRUE").
			Where("is_approved = FALSE").
			Where("pack_payment_status = ?", enums.PaymentStatusCompleted)
	case enums.CampaignStateLive:
		query = query.Where("is_active = TRUE").
			Where("is_approved = TRUE").
			Where("pack_payment_status = ?", enums.PaymentStatusCompleted)
	case enums.CampaignStateRejected:
		query = query.Where("is_active = FALSE").Where("rejected_at IS NOT NULL")
	case enums.CampaignStateInactive:
		query = query.Where("is_active = FALSE").Where("rejected_at IS NULL")
	}

	query = applyCommonFilters(query, filters.County, filters.Search)
	return r.listPage(query, params)
}

func applyCommonFilters(query *gorm.DB, county, search string) *gorm.DB {
	if county = strings.TrimSpace(county); county != "" {
		query = query.Where("LOWER(county) = LOWER(?)", county)
	}
	if search = strings.TrimSpace(search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(organizer_name) LIKE ?", pattern, pattern)
	}
	return query
}

func (r *repository) listPage(query *gorm.DB, params pagination.Params) (*CampaignList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Campaign
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &CampaignList{Campaigns: rows}
	if len(rows) > limit {
		list.Campaigns = rows[:limit]
		last := list.Campaigns[limit-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Campaign{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) SumDonations(ctx context.Context, id uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("campaign_id = ?", id).
		Select("COALESCE(SUM(amount_minor), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repository) CountDonations(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("campaign_id = ?", id).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
