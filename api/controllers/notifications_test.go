package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/bali1973/alo17-alerts/internal/notifications"
	"github.com/bali1973/alo17-alerts/pkg/db/models"
)

type testNotificationsService struct {
	listFn     func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error)
	markReadFn func(ctx context.Context, notificationID, userID uuid.UUID) (bool, error)
}

func (s *testNotificationsService) Create(ctx context.Context, params notifications.CreateParams) (*models.Notification, error) {
	return nil, nil
}

func (s *testNotificationsService) ListForUser(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params)
	}
	return &notifications.ListResult{}, nil
}

func (s *testNotificationsService) MarkRead(ctx context.Context, notificationID, userID uuid.UUID) (bool, error) {
	if s.markReadFn != nil {
		return s.markReadFn(ctx, notificationID, userID)
	}
	return false, nil
}

func (s *testNotificationsService) Cleanup(ctx context.Context) (notifications.CleanupResult, error) {
	return notifications.CleanupResult{}, nil
}

func TestListNotificationsRequiresUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testLogger(t))(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestListNotificationsPassesPagination(t *testing.T) {
	userID := uuid.New()
	svc := &testNotificationsService{
		listFn: func(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
			if params.UserID != userID {
				t.Fatalf("unexpected user %s", params.UserID)
			}
			if params.Limit != 5 || params.Cursor != "abc" {
				t.Fatalf("unexpected pagination %+v", params)
			}
			return &notifications.ListResult{Items: []models.Notification{{ID: uuid.New()}}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?userId="+userID.String()+"&limit=5&cursor=abc", nil)
	resp := httptest.NewRecorder()
	ListNotifications(svc, testLogger(t))(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications?userId="+uuid.NewString()+"&limit=-1", nil)
	resp := httptest.NewRecorder()
	ListNotifications(&testNotificationsService{}, testLogger(t))(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestMarkNotificationReadSuccess(t *testing.T) {
	userID := uuid.New()
	notificationID := uuid.New()
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, nid, uid uuid.UUID) (bool, error) {
			if nid != notificationID || uid != userID {
				t.Fatalf("unexpected ids %s %s", nid, uid)
			}
			return true, nil
		},
	}

	body := `{"userId":"` + userID.String() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+notificationID.String()+"/read", strings.NewReader(body))
	req = addRouteParam(req, "notificationId", notificationID.String())
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger(t))(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !envelope.Data["updated"] {
		t.Fatal("expected updated flag")
	}
}

func TestMarkNotificationReadForeignUserReturnsFalse(t *testing.T) {
	svc := &testNotificationsService{
		markReadFn: func(ctx context.Context, nid, uid uuid.UUID) (bool, error) {
			return false, nil
		},
	}

	notificationID := uuid.NewString()
	body := `{"userId":"` + uuid.NewString() + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/"+notificationID+"/read", strings.NewReader(body))
	req = addRouteParam(req, "notificationId", notificationID)
	resp := httptest.NewRecorder()
	MarkNotificationRead(svc, testLogger(t))(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var envelope struct {
		Data map[string]bool `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data["updated"] {
		t.Fatal("expected updated=false for foreign notification")
	}
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/bad/read", strings.NewReader(`{"userId":"`+uuid.NewString()+`"}`))
	req = addRouteParam(req, "notificationId", "bad")
	resp := httptest.NewRecorder()
	MarkNotificationRead(&testNotificationsService{}, testLogger(t))(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
