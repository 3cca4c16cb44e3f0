package controllers

import (
	"net/http"
	"strings"

	"github.com/coffeemorning/cmc-backend/api/responses"
	"github.com/coffeemorning/cmc-backend/api/validators"
	"github.com/coffeemorning/cmc-backend/internal/packorders"
	"github.com/coffeemorning/cmc-backend/pkg/enums"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

// AdminListPackOrders pages pack orders, filterable by payment status and
// pack type.
func AdminListPackOrders(svc *packorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pack orders service unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := packorders.AdminFilters{}
		if raw := strings.TrimSpace(r.URL.Query().Get("payment_status")); raw != "" {
			status, parseErr := enums.ParsePaymentStatus(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid payment status filter"))
				return
			}
			filters.PaymentStatus = status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("pack_type")); raw != "" {
			packType, parseErr := enums.ParsePackType(raw)
			if parseErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, parseErr, "invalid pack type filter"))
				return
			}
			filters.PackType = packType
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"orders":      list.Orders,
			"next_cursor": list.NextCursor,
		})
	}
}

// AdminSendPaymentLink opens a hosted checkout for an unpaid order and emails
// the organizer the URL.
func AdminSendPaymentLink(svc *packorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pack orders service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.SendPaymentLink(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type setTrackingBody struct {
	TrackingNumber string `json:"tracking_number" validate:"required,min=4,max=60"`
}

// AdminSetTracking records the shipping tracking number on a paid order.
func AdminSetTracking(svc *packorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pack orders service unavailable"))
			return
		}

		orderID, err := pathUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body setTrackingBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetTracking(r.Context(), orderID, strings.TrimSpace(body.TrackingNumber)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "updated"})
	}
}
