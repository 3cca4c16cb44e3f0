package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/enums"
	"github.com/coffeemorning/cmc-backend/pkg/types"
)

// PackOrder is a starter pack purchase tied to a campaign. Paid packs carry
// a processor payment intent; free packs complete without one.
type PackOrder struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;not null;index" json:"campaign_id"`

	PackType    enums.PackType `gorm:"type:varchar(16);not null" json:"pack_type"`
	AmountMinor int64          `gorm:"not null" json:"amount_minor"`

	GarmentSizes    []string              `gorm:"type:jsonb;serializer:json" json:"garment_sizes,omitempty"`
	ShippingAddress types.ShippingAddress `gorm:"type:jsonb;serializer:json" json:"shipping_address"`
	ContactPhone    string                `json:"contact_phone,omitempty"`

	PaymentStatus   enums.PaymentStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"payment_status"`
	PaymentIntentID *string             `gorm:"uniqueIndex" json:"payment_intent_id,omitempty"`
	PaymentLinkID   *string             `json:"payment_link_id,omitempty"`
	PaidAt          *time.Time          `json:"paid_at,omitempty"`

	TrackingNumber *string `json:"tracking_number,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default pluralization.
func (PackOrder) TableName() string {
	return "pack_orders"
}

// BeforeCreate assigns the identifier when the caller has not.
func (o *PackOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// IsPaid reports whether the order has completed payment.
func (o *PackOrder) IsPaid() bool {
	return o.PaymentStatus == enums.PaymentStatusCompleted
}
