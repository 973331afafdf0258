package controllers

import (
	"net/http"

	"github.com/bali1973/alo17-alerts/api/responses"
	"github.com/bali1973/alo17-alerts/internal/digest"
	pkgerrors "github.com/bali1973/alo17-alerts/pkg/errors"
	"github.com/bali1973/alo17-alerts/pkg/logger"
)

// AdminSendDailyDigest triggers a daily digest run outside the schedule.
func AdminSendDailyDigest(svc digest.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "digest service unavailable"))
			return
		}

		result, err := svc.SendDailyDigest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminSendWeeklyDigest triggers a weekly digest run outside the schedule.
func AdminSendWeeklyDigest(svc digest.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "digest service unavailable"))
			return
		}

		result, err := svc.SendWeeklyDigest(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
