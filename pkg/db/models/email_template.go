package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/coffeemorning/cmc-backend/pkg/enums"
)

// EmailTemplate is a database-managed email body. Templates use {{key}}
// placeholders and {{#key}}...{{/key}} conditional sections.
type EmailTemplate struct {
	ID       uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Type     enums.TemplateType `gorm:"type:varchar(32);uniqueIndex;not null" json:"type"`
	Subject  string             `gorm:"not null" json:"subject"`
	BodyHTML string             `gorm:"type:text;not null" json:"body_html"`
	BodyText string             `gorm:"type:text" json:"body_text"`
	IsActive bool               `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the default pluralization.
func (EmailTemplate) TableName() string {
	return "email_templates"
}

// BeforeCreate assigns the identifier when the caller has not.
func (t *EmailTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
