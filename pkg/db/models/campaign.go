package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/enums"
	"github.com/coffeemorning/cmc-backend/pkg/types"
)

// Campaign is a fundraising page created by an organizer. Approval and
// payment flags are stored separately; the public lifecycle state is
// derived from them, never persisted.
type Campaign struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayNumber int64     `gorm:"autoIncrement;uniqueIndex" json:"display_number"`

	Title         string            `gorm:"not null" json:"title"`
	OrganizerName string            `gorm:"not null" json:"organizer_name"`
	Email         string            `gorm:"not null;index" json:"email"`
	Phone         string            `json:"phone,omitempty"`
	County        string            `gorm:"not null;index" json:"county"`
	Story         string            `gorm:"type:text" json:"story"`
	GoalAmount    int64             `gorm:"not null" json:"goal_amount_minor"`
	EventAt       *time.Time        `json:"event_at,omitempty"`
	EventLocation string            `json:"event_location,omitempty"`
	SocialLinks   types.SocialLinks `gorm:"type:jsonb;serializer:json" json:"social_links,omitempty"`
	ImageURL      string            `json:"image_url,omitempty"`

	IsApproved        bool                `gorm:"not null;default:false;index" json:"is_approved"`
	IsActive          bool                `gorm:"not null;default:true" json:"is_active"`
	RejectedAt        *time.Time          `json:"rejected_at,omitempty"`
	PackPaymentStatus enums.PaymentStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"pack_payment_status"`
	PackOrderID       *uuid.UUID          `gorm:"type:uuid" json:"pack_order_id,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default pluralization.
func (Campaign) TableName() string {
	return "campaigns"
}

// BeforeCreate assigns the identifier when the caller has not.
func (c *Campaign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// State derives the lifecycle state from the stored flags. RejectedAt
// separates rejected campaigns from deactivated ones; both are inactive and
// a campaign can be deactivated before it was ever approved.
func (c *Campaign) State() enums.CampaignState {
	switch {
	case !c.IsActive && c.RejectedAt != nil:
		return enums.CampaignStateRejected
	case !c.IsActive:
		return enums.CampaignStateInactive
	case c.PackPaymentStatus != enums.PaymentStatusCompleted:
		return enums.CampaignStatePendingPayment
	case !c.IsApproved:
		return enums.CampaignStateAwaitingApproval
	default:
		return enums.CampaignStateLive
	}
}

// IsPubliclyVisible reports whether the campaign appears in public listings.
func (c *Campaign) IsPubliclyVisible() bool {
	return c.State() == enums.CampaignStateLive
}
