package dispatch

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bali1973/alo17-alerts/internal/notifications"
	"github.com/bali1973/alo17-alerts/pkg/db/models"
	"github.com/bali1973/alo17-alerts/pkg/enums"
	pkgerrors "github.com/bali1973/alo17-alerts/pkg/errors"
	"github.com/bali1973/alo17-alerts/pkg/logger"
	"github.com/bali1973/alo17-alerts/pkg/mailer"
	"github.com/bali1973/alo17-alerts/pkg/push"
)

type fakeSubsRepo struct {
	listActiveByFrequencyFn func(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error)
}

func (f *fakeSubsRepo) ListActiveByFrequency(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error) {
	if f.listActiveByFrequencyFn != nil {
		return f.listActiveByFrequencyFn(ctx, frequency)
	}
	return nil, nil
}

type fakeNotifService struct {
	created []notifications.CreateParams
	err     error
}

func (f *fakeNotifService) Create(ctx context.Context, params notifications.CreateParams) (*models.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, params)
	return &models.Notification{ID: uuid.New(), Email: params.Email}, nil
}

type fakeHistRepo struct {
	appended  []models.HistoryEntry
	capCalls  []int
	appendErr error
}

func (f *fakeHistRepo) Append(ctx context.Context, entry *models.HistoryEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, *entry)
	return nil
}
func (f *fakeHistRepo) CapTo(ctx context.Context, maxCount int) (int64, error) {
	f.capCalls = append(f.capCalls, maxCount)
	return 0, nil
}

type fakeMailer struct {
	sent   []mailer.Email
	failTo map[string]error
}

func (f *fakeMailer) Send(ctx context.Context, email mailer.Email) error {
	if err, ok := f.failTo[email.To]; ok {
		return err
	}
	f.sent = append(f.sent, email)
	return nil
}

type fakePusher struct {
	sent []string
	err  error
}

func (f *fakePusher) SendToDevice(ctx context.Context, token string, msg push.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, token)
	return nil
}

func strPtr(s string) *string { return &s }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newTestService(t *testing.T, subs *fakeSubsRepo, notifs *fakeNotifService, hist *fakeHistRepo, mail *fakeMailer, pusher Pusher) Service {
	t.Helper()
	svc, err := NewService(Params{
		Subscriptions:  subs,
		Notifications:  notifs,
		History:        hist,
		Mailer:         mail,
		Pusher:         pusher,
		Logger:         testLogger(),
		SiteBaseURL:    "https://alo17.tr",
		ChannelTimeout: time.Second,
		MaxHistory:     100,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func electronicsListing(price int64) models.Listing {
	return models.Listing{
		ID:       uuid.New(),
		Title:    "iPhone 14",
		Price:    decimal.NewFromInt(price),
		Location: "Çanakkale",
		Category: "elektronik",
		Status:   enums.ListingStatusApproved,
	}
}

func TestNotifyNewListing_MatchSendsAllChannels(t *testing.T) {
	sub := models.Subscription{
		ID:           uuid.New(),
		Email:        "a@x.com",
		Category:     strPtr("elektronik"),
		PriceMax:     decPtr(30000),
		Frequency:    enums.FrequencyInstant,
		EmailEnabled: true,
		PushEnabled:  true,
		IsActive:     true,
	}
	subs := &fakeSubsRepo{
		listActiveByFrequencyFn: func(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error) {
			if frequency != enums.FrequencyInstant {
				t.Fatalf("expected instant frequency, got %q", frequency)
			}
			return []models.Subscription{sub}, nil
		},
	}
	notifs := &fakeNotifService{}
	hist := &fakeHistRepo{}
	mail := &fakeMailer{}

	svc := newTestService(t, subs, notifs, hist, mail, nil)
	result, err := svc.NotifyNewListing(context.Background(), electronicsListing(25000))
	if err != nil {
		t.Fatalf("NotifyNewListing: %v", err)
	}
	if result.NotificationsSent != 1 {
		t.Fatalf("expected 1 notification sent, got %d", result.NotificationsSent)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mail.sent))
	}
	if mail.sent[0].To != "a@x.com" {
		t.Fatalf("unexpected recipient %q", mail.sent[0].To)
	}
	if mail.sent[0].Subject != "Yeni İlan: iPhone 14" {
		t.Fatalf("unexpected subject %q", mail.sent[0].Subject)
	}

	if len(notifs.created) != 1 {
		t.Fatalf("expected one in-app notification, got %d", len(notifs.created))
	}
	if notifs.created[0].Email != "a@x.com" {
		t.Fatalf("unexpected in-app email %q", notifs.created[0].Email)
	}

	if len(hist.appended) != 1 {
		t.Fatalf("expected one history entry, got %d", len(hist.appended))
	}
	entry := hist.appended[0]
	if entry.SubscriptionID != sub.ID || entry.Channel != enums.ChannelEmail || entry.Status != enums.SendStatusSent {
		t.Fatalf("unexpected history entry %+v", entry)
	}

	if len(hist.capCalls) != 1 || hist.capCalls[0] != 100 {
		t.Fatalf("expected history cap call, got %v", hist.capCalls)
	}
}

func TestNotifyNewListing_PriceAboveMaxDoesNotMatch(t *testing.T) {
	sub := models.Subscription{
		ID:           uuid.New(),
		Email:        "a@x.com",
		Category:     strPtr("elektronik"),
		PriceMax:     decPtr(30000),
		Frequency:    enums.FrequencyInstant,
		EmailEnabled: true,
		IsActive:     true,
	}
	subs := &fakeSubsRepo{
		listActiveByFrequencyFn: func(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error) {
			return []models.Subscription{sub}, nil
		},
	}
	notifs := &fakeNotifService{}
	hist := &fakeHistRepo{}
	mail := &fakeMailer{}

	svc := newTestService(t, subs, notifs, hist, mail, nil)
	result, err := svc.NotifyNewListing(context.Background(), electronicsListing(35000))
	if err != nil {
		t.Fatalf("NotifyNewListing: %v", err)
	}
	if result.NotificationsSent != 0 {
		t.Fatalf("expected 0 sent, got %d", result.NotificationsSent)
	}
	if len(mail.sent) != 0 || len(notifs.created) != 0 || len(hist.appended) != 0 {
		t.Fatal("expected no writes for non-matching listing")
	}
}

func TestNotifyNewListing_LocationMismatchNeverMatches(t *testing.T) {
	sub := models.Subscription{
		ID:           uuid.New(),
		Email:        "a@x.com",
		Location:     strPtr("İstanbul"),
		Frequency:    enums.FrequencyInstant,
		EmailEnabled: true,
		IsActive:     true,
	}
	subs := &fakeSubsRepo{
		listActiveByFrequencyFn: func(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error) {
			return []models.Subscription{sub}, nil
		},
	}
	mail := &fakeMailer{}

	svc := newTestService(t, subs, &fakeNotifService{}, &fakeHistRepo{}, mail, nil)
	listing := electronicsListing(1000)
	listing.Location = "Ankara"

	result, err := svc.NotifyNewListing(context.Background(), listing)
	if err != nil {
		t.Fatalf("NotifyNewListing: %v", err)
	}
	if result.NotificationsSent != 0 {
		t.Fatalf("expected 0 sent, got %d", result.NotificationsSent)
	}
}

func TestNotifyNewListing_FanOutIsolation(t *testing.T) {
	subA := models.Subscription{ID: uuid.New(), Email: "a@x.com", Frequency: enums.FrequencyInstant, EmailEnabled: true, IsActive: true}
	subB := models.Subscription{ID: uuid.New(), Email: "b@x.com", Frequency: enums.FrequencyInstant, EmailEnabled: true, IsActive: true}

	subs := &fakeSubsRepo{
		listActiveByFrequencyFn: func(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error) {
			return []models.Subscription{subA, subB}, nil
		},
	}
	notifs := &fakeNotifService{}
	hist := &fakeHistRepo{}
	mail := &fakeMailer{failTo: map[string]error{"a@x.com": errors.New("smtp down")}}

	svc := newTestService(t, subs, notifs, hist, mail, nil)
	result, err := svc.NotifyNewListing(context.Background(), electronicsListing(1000))
	if err != nil {
		t.Fatalf("NotifyNewListing: %v", err)
	}
	if result.NotificationsSent != 2 {
		t.Fatalf("expected both matches counted, got %d", result.NotificationsSent)
	}

	if len(notifs.created) != 2 {
		t.Fatalf("expected in-app notifications for both, got %d", len(notifs.created))
	}
	if len(hist.appended) != 2 {
		t.Fatalf("expected history entries for both, got %d", len(hist.appended))
	}

	statusByEmail := map[string]enums.SendStatus{}
	for _, entry := range hist.appended {
		statusByEmail[entry.Email] = entry.Status
	}
	if statusByEmail["a@x.com"] != enums.SendStatusFailed {
		t.Fatalf("expected failed status for a@x.com, got %q", statusByEmail["a@x.com"])
	}
	if statusByEmail["b@x.com"] != enums.SendStatusSent {
		t.Fatalf("expected sent status for b@x.com, got %q", statusByEmail["b@x.com"])
	}
}

func TestNotifyNewListing_PushOnlyWithToken(t *testing.T) {
	withToken := models.Subscription{
		ID: uuid.New(), Email: "a@x.com", Frequency: enums.FrequencyInstant,
		EmailEnabled: false, PushEnabled: true, PushToken: strPtr("tok-1"), IsActive: true,
	}
	withoutToken := models.Subscription{
		ID: uuid.New(), Email: "b@x.com", Frequency: enums.FrequencyInstant,
		EmailEnabled: false, PushEnabled: true, IsActive: true,
	}

	subs := &fakeSubsRepo{
		listActiveByFrequencyFn: func(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error) {
			return []models.Subscription{withToken, withoutToken}, nil
		},
	}
	pusher := &fakePusher{}

	svc := newTestService(t, subs, &fakeNotifService{}, &fakeHistRepo{}, &fakeMailer{}, pusher)
	result, err := svc.NotifyNewListing(context.Background(), electronicsListing(1000))
	if err != nil {
		t.Fatalf("NotifyNewListing: %v", err)
	}
	if result.NotificationsSent != 2 {
		t.Fatalf("expected 2 matches, got %d", result.NotificationsSent)
	}
	if len(pusher.sent) != 1 || pusher.sent[0] != "tok-1" {
		t.Fatalf("expected single push to tok-1, got %v", pusher.sent)
	}
}

func TestNotifyNewListing_SubscriptionListFailureIsFatal(t *testing.T) {
	subs := &fakeSubsRepo{
		listActiveByFrequencyFn: func(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error) {
			return nil, errors.New("db down")
		},
	}

	svc := newTestService(t, subs, &fakeNotifService{}, &fakeHistRepo{}, &fakeMailer{}, nil)
	_, err := svc.NotifyNewListing(context.Background(), electronicsListing(1000))
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNotifyNewListing_MalformedKeywordsStillDispatches(t *testing.T) {
	sub := models.Subscription{
		ID: uuid.New(), Email: "a@x.com", Frequency: enums.FrequencyInstant,
		Keywords: strPtr("{broken"), EmailEnabled: true, IsActive: true,
	}
	subs := &fakeSubsRepo{
		listActiveByFrequencyFn: func(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error) {
			return []models.Subscription{sub}, nil
		},
	}
	mail := &fakeMailer{}

	svc := newTestService(t, subs, &fakeNotifService{}, &fakeHistRepo{}, mail, nil)
	result, err := svc.NotifyNewListing(context.Background(), electronicsListing(1000))
	if err != nil {
		t.Fatalf("NotifyNewListing: %v", err)
	}
	if result.NotificationsSent != 1 {
		t.Fatalf("expected malformed filter to be treated as absent, got %d", result.NotificationsSent)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mail.sent))
	}
}
