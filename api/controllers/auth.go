package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/coffeemorning/cmc-backend/api/middleware"
	"github.com/coffeemorning/cmc-backend/api/responses"
	"github.com/coffeemorning/cmc-backend/api/validators"
	"github.com/coffeemorning/cmc-backend/internal/auth"
	pkgerrors "github.com/coffeemorning/cmc-backend/pkg/errors"
	"github.com/coffeemorning/cmc-backend/pkg/logger"
)

// AdminLogin authenticates an admin and returns a bearer token.
func AdminLogin(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var input auth.LoginInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"token": result.Token,
			"user": map[string]any{
				"id":    result.User.ID,
				"email": result.User.Email,
				"name":  result.User.Name,
			},
		})
	}
}

// AdminLogout revokes the caller's session.
func AdminLogout(svc *auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		if err := svc.Logout(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
