package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bali1973/alo17-alerts/pkg/db/models"
	"github.com/bali1973/alo17-alerts/pkg/enums"
	pkgerrors "github.com/bali1973/alo17-alerts/pkg/errors"
	"github.com/bali1973/alo17-alerts/pkg/logger"
	"github.com/bali1973/alo17-alerts/pkg/pagination"
)

// Service defines in-app notification operations.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Notification, error)
	ListForUser(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (bool, error)
	Cleanup(ctx context.Context) (CleanupResult, error)
}

type service struct {
	repo        Repository
	logg        *logger.Logger
	retention   time.Duration
	maxRetained int
}

// Params configures the notifications service.
type Params struct {
	Repo        Repository
	Logger      *logger.Logger
	Retention   time.Duration
	MaxRetained int
}

// CreateParams carries a new in-app notification.
type CreateParams struct {
	UserID  *uuid.UUID
	Email   string
	Type    enums.NotificationType
	Title   string
	Message string
	Data    string
}

// ListParams configures pagination for a user's notifications.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// CleanupResult reports what a cleanup pass removed.
type CleanupResult struct {
	Pruned  int64 `json:"pruned"`
	Evicted int64 `json:"evicted"`
}

// NewService wires notification dependencies.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if params.Retention <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notification retention required")
	}
	return &service{
		repo:        params.Repo,
		logg:        params.Logger,
		retention:   params.Retention,
		maxRetained: params.MaxRetained,
	}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Notification, error) {
	if params.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if params.Title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}

	now := time.Now().UTC()
	notification := &models.Notification{
		UserID:    params.UserID,
		Email:     params.Email,
		Type:      params.Type,
		Title:     params.Title,
		Message:   params.Message,
		Data:      params.Data,
		CreatedAt: now,
		ExpiresAt: now.Add(s.retention),
	}
	if notification.Type == "" {
		notification.Type = enums.NotificationTypeSystem
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return notification, nil
}

func (s *service) ListForUser(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID: params.UserID,
		Limit:  params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{
		Items:  rows,
		Cursor: cursor,
	}, nil
}

func (s *service) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (bool, error) {
	if notificationID == uuid.Nil || userID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "notification id and user id required")
	}

	updated, err := s.repo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	return updated, nil
}

func (s *service) Cleanup(ctx context.Context) (CleanupResult, error) {
	pruned, err := s.repo.PruneExpired(ctx, time.Now().UTC())
	if err != nil {
		return CleanupResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "prune expired notifications")
	}

	evicted, err := s.repo.CapTo(ctx, s.maxRetained)
	if err != nil {
		return CleanupResult{Pruned: pruned}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cap notifications")
	}

	if s.logg != nil && (pruned > 0 || evicted > 0) {
		ctx = s.logg.WithFields(ctx, map[string]any{"pruned": pruned, "evicted": evicted})
		s.logg.Info(ctx, "notification cleanup removed rows")
	}
	return CleanupResult{Pruned: pruned, Evicted: evicted}, nil
}
