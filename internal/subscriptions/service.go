package subscriptions

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bali1973/alo17-alerts/pkg/db/models"
	"github.com/bali1973/alo17-alerts/pkg/enums"
	pkgerrors "github.com/bali1973/alo17-alerts/pkg/errors"
)

// Service defines subscription lifecycle operations.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Subscription, error)
	List(ctx context.Context, params ListParams) ([]models.Subscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// CreateParams carries a new subscription's fields.
type CreateParams struct {
	Email        string
	UserID       *uuid.UUID
	Category     *string
	Subcategory  *string
	Keywords     []string
	PriceMin     *decimal.Decimal
	PriceMax     *decimal.Decimal
	Location     *string
	Frequency    string
	EmailEnabled *bool
	PushEnabled  *bool
	PushToken    *string
}

// ListParams filters the subscription listing.
type ListParams struct {
	Email      string
	ActiveOnly bool
}

// NewService wires subscription dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscriptions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Subscription, error) {
	email := strings.TrimSpace(params.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}

	frequency := enums.FrequencyInstant
	if params.Frequency != "" {
		parsed, err := enums.ParseFrequency(params.Frequency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid frequency")
		}
		frequency = parsed
	}

	if params.PriceMin != nil && params.PriceMin.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price min must not be negative")
	}
	if params.PriceMax != nil && params.PriceMax.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price max must not be negative")
	}
	if params.PriceMin != nil && params.PriceMax != nil && params.PriceMin.GreaterThan(*params.PriceMax) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price min must not exceed price max")
	}

	sub := &models.Subscription{
		Email:        email,
		UserID:       params.UserID,
		Category:     normalizeOptional(params.Category),
		Subcategory:  normalizeOptional(params.Subcategory),
		PriceMin:     params.PriceMin,
		PriceMax:     params.PriceMax,
		Location:     normalizeOptional(params.Location),
		Frequency:    frequency,
		EmailEnabled: true,
		PushEnabled:  true,
		PushToken:    normalizeOptional(params.PushToken),
		IsActive:     true,
	}
	if params.EmailEnabled != nil {
		sub.EmailEnabled = *params.EmailEnabled
	}
	if params.PushEnabled != nil {
		sub.PushEnabled = *params.PushEnabled
	}

	if encoded, err := encodeKeywords(params.Keywords); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encoding keywords")
	} else if encoded != nil {
		sub.Keywords = encoded
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
	}
	return sub, nil
}

func (s *service) List(ctx context.Context, params ListParams) ([]models.Subscription, error) {
	subs, err := s.repo.List(ctx, listSubscriptionsParams{
		Email:      strings.TrimSpace(params.Email),
		ActiveOnly: params.ActiveOnly,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscriptions")
	}
	return subs, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription id required")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subscription")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
	}
	return nil
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func encodeKeywords(keywords []string) (*string, error) {
	cleaned := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if trimmed := strings.TrimSpace(kw); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	raw, err := json.Marshal(cleaned)
	if err != nil {
		return nil, err
	}
	encoded := string(raw)
	return &encoded, nil
}
