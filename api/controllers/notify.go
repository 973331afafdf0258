package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bali1973/alo17-alerts/api/responses"
	"github.com/bali1973/alo17-alerts/api/validators"
	"github.com/bali1973/alo17-alerts/internal/dispatch"
	"github.com/bali1973/alo17-alerts/internal/listings"
	pkgerrors "github.com/bali1973/alo17-alerts/pkg/errors"
	"github.com/bali1973/alo17-alerts/pkg/logger"
)

type notifyRequest struct {
	ListingID uuid.UUID `json:"listingId" validate:"required"`
}

// AdminNotifyListing re-runs instant dispatch for a stored listing. Used to
// recover after transport incidents without replaying the event.
func AdminNotifyListing(listingsRepo listings.Repository, svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || listingsRepo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		var req notifyRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := listingsRepo.GetByID(r.Context(), req.ListingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing"))
			return
		}
		if listing == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found"))
			return
		}

		result, err := svc.NotifyNewListing(r.Context(), *listing)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
