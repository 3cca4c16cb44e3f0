package models

import (
	"time"

	"github.com/google/uuid"
)

// Donation is a completed contribution to a campaign. The primary key is the
// processor payment intent id, so finalizing the same payment twice cannot
// produce two rows.
type Donation struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index" json:"campaign_id"`

	AmountMinor int64 `gorm:"not null" json:"amount_minor"`

	DonorName   *string `json:"donor_name,omitempty"`
	DonorEmail  *string `json:"donor_email,omitempty"`
	Message     *string `gorm:"type:text" json:"message,omitempty"`
	IsAnonymous bool    `gorm:"not null;default:false" json:"is_anonymous"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default pluralization.
func (Donation) TableName() string {
	return "donations"
}
