package controllers

import (
	"net/http"
	"strings"

	"github.com/propscout/propscout-backend/api/middleware"
	"github.com/propscout/propscout-backend/api/responses"
	"github.com/propscout/propscout-backend/api/validators"
	"github.com/propscout/propscout-backend/internal/payments"
	"github.com/propscout/propscout-backend/pkg/logger"
)

func PaymentInitialize(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := middleware.Identity(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body payments.InitializeInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initialize(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PaymentCallback is where the gateway sends the browser after checkout. It
// never mutates state; the webhook is authoritative.
func PaymentCallback(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		reference := strings.TrimSpace(query.Get("reference"))
		if reference == "" {
			reference = strings.TrimSpace(query.Get("trxref"))
		}

		target, err := svc.Callback(r.Context(), reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		http.Redirect(w, r, target, http.StatusFound)
	}
}
