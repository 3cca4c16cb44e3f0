package controllers

import (
	"net/http"
	"strings"

	"github.com/coffeemorning/cmc-backend/api/responses"
	"github.com/coffeemorning/cmc-backend/api/validators"
	"github.com/coffeemorning/cmc-backend/internal/campaigns"
	"github.com/coffeemorning/cmc-backend/internal/donations"
	"github.com/coffeemorning/cmc-backend/internal/packorders"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

// ListCampaigns serves the public campaign directory. Only live campaigns
// appear.
func ListCampaigns(svc *campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaigns service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filters := campaigns.PublicFilters{
			County: strings.TrimSpace(r.URL.Query().Get("county")),
			Search: strings.TrimSpace(r.URL.Query().Get("q")),
		}

		views, next, err := svc.ListPublic(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"campaigns":   views,
			"next_cursor": next,
		})
	}
}

// GetCampaign serves one public campaign page with its derived totals.
func GetCampaign(svc *campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "campaigns service unavailable"))
			return
		}

		id, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// CreateCampaign opens a campaign together with its pack order.
func CreateCampaign(svc *packorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pack orders service unavailable"))
			return
		}

		var input packorders.CreateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListCampaignDonations serves the public donor wall.
func ListCampaignDonations(svc *donations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}

		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, next, err := svc.ListForCampaign(r.Context(), campaignID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"donations":   views,
			"next_cursor": next,
		})
	}
}

type initiateDonationBody struct {
	AmountMinor int64  `json:"amount_minor" validate:"required,gt=0"`
	DonorName   string `json:"donor_name" validate:"omitempty,max=120"`
	DonorEmail  string `json:"donor_email" validate:"omitempty,email"`
	Message     string `json:"message" validate:"omitempty,max=500"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// InitiateDonation opens a donation payment. The donation row is recorded by
// the processor webhook once the charge succeeds.
func InitiateDonation(svc *donations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}

		campaignID, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body initiateDonationBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), donations.InitiateInput{
			CampaignID:  campaignID,
			AmountMinor: body.AmountMinor,
			DonorName:   body.DonorName,
			DonorEmail:  body.DonorEmail,
			Message:     body.Message,
			IsAnonymous: body.IsAnonymous,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListPackContents serves the pack tiers and their prices for the public
// signup form.
func ListPackContents(svc *packorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pack orders service unavailable"))
			return
		}

		contents, err := svc.PackContents(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"packs": contents})
	}
}
