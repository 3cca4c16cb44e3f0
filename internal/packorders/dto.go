package packorders

import (
	"time"

	"github.com/google/uuid"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	"github.com/coffeemorning/cmc-backend/pkg/types"
)

// CreateInput carries everything needed to open a campaign with its pack
// order in one submission.
type CreateInput struct {
	Title         string            `json:"title" validate:"required,min=3,max=120"`
	OrganizerName string            `json:"organizer_name" validate:"required,min=2,max=120"`
	Email         string            `json:"email" validate:"required,email"`
	Phone         string            `json:"phone" validate:"omitempty,max=30"`
	County        string            `json:"county" validate:"required,min=2,max=40"`
	Story         string            `json:"story" validate:"omitempty,max=10000"`
	GoalAmount    int64             `json:"goal_amount_minor" validate:"required,gt=0"`
	EventAt       *time.Time        `json:"event_at"`
	EventLocation string            `json:"event_location" validate:"omitempty,max=250"`
	SocialLinks   types.SocialLinks `json:"social_links"`
	ImageURL      string            `json:"image_url" validate:"omitempty,url"`

	PackType        enums.PackType        `json:"pack_type" validate:"required"`
	GarmentSizes    []string              `json:"garment_sizes" validate:"omitempty,dive,oneof=XS S M L XL XXL"`
	ShippingAddress types.ShippingAddress `json:"shipping_address" validate:"required"`
}

// CreateResult returns the created rows plus the processor client secret for
// browser confirmation. Free packs complete immediately and carry no secret.
type CreateResult struct {
	Campaign     *models.Campaign  `json:"campaign"`
	Order        *models.PackOrder `json:"order"`
	ClientSecret string            `json:"client_secret,omitempty"`
}

// AdminFilters narrows the admin order listing.
type AdminFilters struct {
	PaymentStatus enums.PaymentStatus
	PackType      enums.PackType
}

// OrderList is one page of pack orders plus the cursor for the next.
type OrderList struct {
	Orders     []models.PackOrder
	NextCursor string
}

// ConfirmResult reports what a payment confirmation changed.
type ConfirmResult struct {
	Order       *models.PackOrder
	CampaignID  uuid.UUID
	AlreadyPaid bool
}

// PaymentLinkResult carries the hosted checkout URL an admin can share.
type PaymentLinkResult struct {
	URL    string `json:"url"`
	LinkID string `json:"link_id"`
}
