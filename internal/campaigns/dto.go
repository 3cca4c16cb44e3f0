package campaigns

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	"github.com/coffeemorning/cmc-backend/pkg/types"
)

// PublicFilters narrows the public campaign listing.
type PublicFilters struct {
	County string
	Search string
}

// AdminFilters narrows the admin campaign listing.
type AdminFilters struct {
	State  enums.CampaignState
	County string
	Search string
}

// CampaignList is one page of campaigns plus the cursor for the next.
type CampaignList struct {
	Campaigns  []models.Campaign
	NextCursor string
}

// UpdateDetailsInput carries the organizer-editable fields an admin can
// amend on their behalf.
type UpdateDetailsInput struct {
	Title         *string            `json:"title" validate:"omitempty,min=3,max=120"`
	Story         *string            `json:"story" validate:"omitempty,max=10000"`
	GoalAmount    *int64             `json:"goal_amount_minor" validate:"omitempty,gt=0"`
	EventAt       *time.Time         `json:"event_at"`
	EventLocation *string            `json:"event_location" validate:"omitempty,max=250"`
	SocialLinks   *types.SocialLinks `json:"social_links"`
	ImageURL      *string            `json:"image_url" validate:"omitempty,url"`
}

// View is the public shape of a campaign, including the derived totals.
type View struct {
	ID            uuid.UUID           `json:"id"`
	DisplayNumber int64               `json:"display_number"`
	Title         string              `json:"title"`
	OrganizerName string              `json:"organizer_name"`
	County        string              `json:"county"`
	Story         string              `json:"story"`
	GoalAmount    int64               `json:"goal_amount_minor"`
	Goal          decimal.Decimal     `json:"goal_amount"`
	RaisedMinor   int64               `json:"raised_amount_minor"`
	Raised        decimal.Decimal     `json:"raised_amount"`
	DonationCount int64               `json:"donation_count"`
	EventAt       *time.Time          `json:"event_at,omitempty"`
	EventLocation string              `json:"event_location,omitempty"`
	SocialLinks   types.SocialLinks   `json:"social_links,omitempty"`
	ImageURL      string              `json:"image_url,omitempty"`
	State         enums.CampaignState `json:"state"`
	CreatedAt     time.Time           `json:"created_at"`
}

// MinorToAmount converts integer minor units to a two-decimal euro amount.
func MinorToAmount(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100))
}

// NewView assembles the public view from the stored row and derived totals.
func NewView(c *models.Campaign, raisedMinor, donationCount int64) View {
	return View{
		ID:            c.ID,
		DisplayNumber: c.DisplayNumber,
		Title:         c.Title,
		OrganizerName: c.OrganizerName,
		County:        c.County,
		Story:         c.Story,
		GoalAmount:    c.GoalAmount,
		Goal:          MinorToAmount(c.GoalAmount),
		RaisedMinor:   raisedMinor,
		Raised:        MinorToAmount(raisedMinor),
		DonationCount: donationCount,
		EventAt:       c.EventAt,
		EventLocation: c.EventLocation,
		SocialLinks:   c.SocialLinks,
		ImageURL:      c.ImageURL,
		State:         c.State(),
		CreatedAt:     c.CreatedAt,
	}
}
