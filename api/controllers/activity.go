package controllers

import (
	"net/http"
	"strings"

	"github.com/propscout/propscout-backend/api/middleware"
	"github.com/propscout/propscout-backend/api/responses"
	"github.com/propscout/propscout-backend/api/validators"
	"github.com/propscout/propscout-backend/internal/activity"
	"github.com/propscout/propscout-backend/pkg/pagination"
	"github.com/propscout/propscout-backend/pkg/logger"
)

// ActivityList returns the caller's feed, newest first, cursor paginated.
func ActivityList(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := middleware.Identity(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), activity.ListParams{
			UserID: userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
