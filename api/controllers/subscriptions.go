package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bali1973/alo17-alerts/api/responses"
	"github.com/bali1973/alo17-alerts/api/validators"
	"github.com/bali1973/alo17-alerts/internal/subscriptions"
	pkgerrors "github.com/bali1973/alo17-alerts/pkg/errors"
	"github.com/bali1973/alo17-alerts/pkg/logger"
)

type createSubscriptionRequest struct {
	Email        string           `json:"email" validate:"required,email"`
	UserID       *uuid.UUID       `json:"userId"`
	Category     *string          `json:"category"`
	Subcategory  *string          `json:"subcategory"`
	Keywords     []string         `json:"keywords"`
	PriceMin     *decimal.Decimal `json:"priceMin"`
	PriceMax     *decimal.Decimal `json:"priceMax"`
	Location     *string          `json:"location"`
	Frequency    string           `json:"frequency" validate:"omitempty,oneof=instant daily weekly"`
	EmailEnabled *bool            `json:"emailEnabled"`
	PushEnabled  *bool            `json:"pushEnabled"`
	PushToken    *string          `json:"pushToken"`
}

// CreateSubscription registers a new listing alert subscription.
func CreateSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		var req createSubscriptionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub, err := svc.Create(r.Context(), subscriptions.CreateParams{
			Email:        req.Email,
			UserID:       req.UserID,
			Category:     req.Category,
			Subcategory:  req.Subcategory,
			Keywords:     req.Keywords,
			PriceMin:     req.PriceMin,
			PriceMax:     req.PriceMax,
			Location:     req.Location,
			Frequency:    req.Frequency,
			EmailEnabled: req.EmailEnabled,
			PushEnabled:  req.PushEnabled,
			PushToken:    req.PushToken,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sub)
	}
}

// ListSubscriptions returns the subscriptions for an email address.
func ListSubscriptions(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "email query parameter required"))
			return
		}

		activeOnly := false
		if value := strings.TrimSpace(r.URL.Query().Get("activeOnly")); value == "true" {
			activeOnly = true
		}

		subs, err := svc.List(r.Context(), subscriptions.ListParams{Email: email, ActiveOnly: activeOnly})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, subs)
	}
}

// DeleteSubscription removes a subscription by id.
func DeleteSubscription(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscriptions service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "subscriptionId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subscription id"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
