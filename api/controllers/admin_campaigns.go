package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/coffeemorning/cmc-backend/api/responses"
	"github.com/coffeemorning/cmc-backend/api/validators"
	"github.com/coffeemorning/cmc-backend/internal/approval"
	"github.com/coffeemorning/cmc-backend/internal/campaigns"
	"github.com/coffeemorning/cmc-backend/internal/donations"
	"github.com/coffeemorning/cmc-backend/pkg/db/models"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

// AdminListCampaigns pages campaigns in any state, filterable by derived
// state, county, and search term.
func AdminListCampaigns(svc *campaigns.Service, logg *logger.Logger) http.HandlerFunc {
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

		filters := campaigns.AdminFilters{
			County: strings.TrimSpace(r.URL.Query().Get("county")),
			Search: strings.TrimSpace(r.URL.Query().Get("q")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("state")); raw != "" {
			state, parseErr := enums.ParseCampaignState(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid state filter"))
				return
			}
			filters.State = state
		}

		views, next, err := svc.ListAdmin(r.Context(), params, filters)
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

// AdminGetCampaign serves one campaign regardless of state.
func AdminGetCampaign(svc *campaigns.Service, logg *logger.Logger) http.HandlerFunc {
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
		view, err := svc.GetAdmin(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminUpdateCampaign applies organizer-facing edits on their behalf.
func AdminUpdateCampaign(svc *campaigns.Service, logg *logger.Logger) http.HandlerFunc {
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

		var input campaigns.UpdateDetailsInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.UpdateDetails(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AdminApproveCampaign takes a paid, awaiting campaign live.
func AdminApproveCampaign(svc *approval.Service, logg *logger.Logger) http.HandlerFunc {
	return decisionHandler(logg, func(r *http.Request, id uuid.UUID) (*models.Campaign, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "approval service unavailable")
		}
		return svc.Approve(r.Context(), id)
	})
}

// AdminRejectCampaign closes an unapproved campaign for good.
func AdminRejectCampaign(svc *approval.Service, logg *logger.Logger) http.HandlerFunc {
	return decisionHandler(logg, func(r *http.Request, id uuid.UUID) (*models.Campaign, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "approval service unavailable")
		}
		return svc.Reject(r.Context(), id)
	})
}

// AdminDeactivateCampaign takes a live campaign off the public site.
func AdminDeactivateCampaign(svc *approval.Service, logg *logger.Logger) http.HandlerFunc {
	return decisionHandler(logg, func(r *http.Request, id uuid.UUID) (*models.Campaign, error) {
		if svc == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "approval service unavailable")
		}
		return svc.Deactivate(r.Context(), id)
	})
}

func decisionHandler(logg *logger.Logger, apply func(*http.Request, uuid.UUID) (*models.Campaign, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campaign, err := apply(r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"id":    campaign.ID,
			"state": campaign.State(),
		})
	}
}

// AdminListCampaignDonations pages a campaign's donations with full donor
// details.
func AdminListCampaignDonations(svc *donations.Service, logg *logger.Logger) http.HandlerFunc {
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

		list, err := svc.ListForAdmin(r.Context(), campaignID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"donations":   list.Donations,
			"next_cursor": list.NextCursor,
		})
	}
}
