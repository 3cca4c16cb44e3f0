package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/enums"
)

// PackContent describes what ships in each starter pack tier, including its
// price. Prices live here so the order flow never trusts client amounts.
type PackContent struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PackType enums.PackType `gorm:"type:varchar(16);uniqueIndex;not null" json:"pack_type"`

	PriceMinor   int64  `gorm:"not null" json:"price_minor"`
	GarmentSlots int    `gorm:"not null;default:0" json:"garment_slots"`
	Description  string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default pluralization.
func (PackContent) TableName() string {
	return "pack_contents"
}

// BeforeCreate assigns the identifier when the caller has not.
func (p *PackContent) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
