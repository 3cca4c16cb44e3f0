package controllers

import (
	"net/http"

	"github.com/coffeemorning/cmc-backend/api/responses"
	"github.com/coffeemorning/cmc-backend/api/validators"
	"github.com/coffeemorning/cmc-backend/internal/donations"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

// DonationIntent opens a donation payment with the campaign named in the
// body. The nested campaign route does the same with the id in the path.
func DonationIntent(svc *donations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}

		var input donations.InitiateInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type finalizeDonationBody struct {
	IntentID string `json:"intent_id" validate:"required"`
}

// FinalizeDonation records a donation after the browser confirms the charge.
// The charge is re-verified with the processor; the webhook path replays
// safely against the same row.
func FinalizeDonation(svc *donations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "donations service unavailable"))
			return
		}

		var body finalizeDonationBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donation, err := svc.FinalizeByIntentID(r.Context(), body.IntentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, donations.NewPublicView(donation))
	}
}
