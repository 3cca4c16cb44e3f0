package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/enums"
)

// Notification is an in-app row shown on the admin dashboard when something
// that needs attention happens (new campaign, paid order, donation).
type Notification struct {
	ID   uuid.UUID              `gorm:"type:uuid;primaryKey" json:"id"`
	Type enums.NotificationType `gorm:"type:varchar(32);not null;index" json:"type"`

	Title      string     `gorm:"not null" json:"title"`
	Body       string     `gorm:"type:text" json:"body"`
	CampaignID *uuid.UUID `gorm:"type:uuid;index" json:"campaign_id,omitempty"`
	ReadAt     *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default pluralization.
func (Notification) TableName() string {
	return "notifications"
}

// BeforeCreate assigns the identifier when the caller has not.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
