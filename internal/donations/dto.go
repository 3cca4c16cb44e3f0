package donations

import (
	"time"

	"github.com/google/uuid"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
)

// AnonymousDonorName replaces the donor's name on public views of
// anonymous donations.
const AnonymousDonorName = "Anonymous"

// InitiateInput opens a donation payment. Donor details ride along in the
// processor metadata so finalization can record them after the charge.
type InitiateInput struct {
	CampaignID  uuid.UUID `json:"campaign_id" validate:"required"`
	AmountMinor int64     `json:"amount_minor" validate:"required,gt=0"`
	DonorName   string    `json:"donor_name" validate:"omitempty,max=120"`
	DonorEmail  string    `json:"donor_email" validate:"required,email"`
	Message     string    `json:"message" validate:"omitempty,max=500"`
	IsAnonymous bool      `json:"is_anonymous"`
}

// InitiateResult carries what the browser needs to confirm the payment.
type InitiateResult struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	AmountMinor  int64  `json:"amount_minor"`
}

// FinalizeInput records a completed donation payment. The fields mirror the
// metadata written at initiation.
type FinalizeInput struct {
	IntentID    string
	CampaignID  uuid.UUID
	AmountMinor int64
	DonorName   string
	DonorEmail  string
	Message     string
	IsAnonymous bool
}

// DonationList is one page of donations plus the cursor for the next.
type DonationList struct {
	Donations  []models.Donation
	NextCursor string
}

// PublicView is the donor-wall shape of a donation. Anonymous rows hide the
// donor identity but still count toward the total.
type PublicView struct {
	ID          string    `json:"id"`
	AmountMinor int64     `json:"amount_minor"`
	DonorName   string    `json:"donor_name"`
	Message     string    `json:"message,omitempty"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewPublicView masks anonymous donors.
func NewPublicView(d *models.Donation) PublicView {
	view := PublicView{
		ID:          d.ID,
		AmountMinor: d.AmountMinor,
		DonorName:   AnonymousDonorName,
		IsAnonymous: d.IsAnonymous,
		CreatedAt:   d.CreatedAt,
	}
	if d.Message != nil {
		view.Message = *d.Message
	}
	if !d.IsAnonymous && d.DonorName != nil && *d.DonorName != "" {
		view.DonorName = *d.DonorName
	}
	return view
}
