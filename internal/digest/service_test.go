package digest

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bali1973/alo17-alerts/pkg/db/models"
	"github.com/bali1973/alo17-alerts/pkg/enums"
	pkgerrors "github.com/bali1973/alo17-alerts/pkg/errors"
	"github.com/bali1973/alo17-alerts/pkg/logger"
	"github.com/bali1973/alo17-alerts/pkg/mailer"
)

type fakeSubs struct {
	subs []models.Subscription
	err  error
	last enums.Frequency
}

func (f *fakeSubs) ListActiveByFrequency(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error) {
	f.last = frequency
	return f.subs, f.err
}

type fakeListings struct {
	rows []models.Listing
	err  error
	last time.Time
}

func (f *fakeListings) ListApprovedSince(ctx context.Context, since time.Time) ([]models.Listing, error) {
	f.last = since
	return f.rows, f.err
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

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T, subs *fakeSubs, listings *fakeListings, mail *fakeMailer) Service {
	t.Helper()
	svc, err := NewService(Params{
		Subscriptions:  subs,
		Listings:       listings,
		Mailer:         mail,
		Logger:         logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		SiteBaseURL:    "https://alo17.tr",
		ChannelTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func approvedListing(title string, createdAt time.Time) models.Listing {
	return models.Listing{
		ID:        uuid.New(),
		Title:     title,
		Price:     decimal.NewFromInt(100),
		Category:  "elektronik",
		Status:    enums.ListingStatusApproved,
		CreatedAt: createdAt,
	}
}

func TestSendDailyDigest_SendsOneEmailPerSubscription(t *testing.T) {
	now := time.Now().UTC()
	subs := &fakeSubs{subs: []models.Subscription{
		{ID: uuid.New(), Email: "a@x.com", Frequency: enums.FrequencyDaily, IsActive: true},
	}}
	listings := &fakeListings{rows: []models.Listing{
		approvedListing("İlan 1", now.Add(-time.Hour)),
		approvedListing("İlan 2", now.Add(-2*time.Hour)),
	}}
	mail := &fakeMailer{}

	svc := newTestService(t, subs, listings, mail)
	result, err := svc.SendDailyDigest(context.Background())
	if err != nil {
		t.Fatalf("SendDailyDigest: %v", err)
	}

	if subs.last != enums.FrequencyDaily {
		t.Fatalf("expected daily frequency, got %q", subs.last)
	}
	if result.EmailsSent != 1 {
		t.Fatalf("expected 1 email, got %d", result.EmailsSent)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 sent email, got %d", len(mail.sent))
	}
	if mail.sent[0].Subject != "Daily İlan Özeti" {
		t.Fatalf("unexpected subject %q", mail.sent[0].Subject)
	}
	if !strings.Contains(mail.sent[0].HTMLBody, "İlan 1") || !strings.Contains(mail.sent[0].HTMLBody, "İlan 2") {
		t.Fatal("expected both listings in digest body")
	}

	wantCutoff := time.Now().UTC().Add(-24 * time.Hour)
	if listings.last.Before(wantCutoff.Add(-time.Minute)) || listings.last.After(wantCutoff.Add(time.Minute)) {
		t.Fatalf("unexpected cutoff %v", listings.last)
	}
}

func TestSendWeeklyDigest_UsesWeeklyWindowAndSubject(t *testing.T) {
	now := time.Now().UTC()
	subs := &fakeSubs{subs: []models.Subscription{
		{ID: uuid.New(), Email: "a@x.com", Frequency: enums.FrequencyWeekly, IsActive: true},
	}}
	listings := &fakeListings{rows: []models.Listing{approvedListing("İlan", now.Add(-3*24*time.Hour))}}
	mail := &fakeMailer{}

	svc := newTestService(t, subs, listings, mail)
	result, err := svc.SendWeeklyDigest(context.Background())
	if err != nil {
		t.Fatalf("SendWeeklyDigest: %v", err)
	}

	if subs.last != enums.FrequencyWeekly {
		t.Fatalf("expected weekly frequency, got %q", subs.last)
	}
	if result.EmailsSent != 1 || len(mail.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(mail.sent))
	}
	if mail.sent[0].Subject != "Weekly İlan Özeti" {
		t.Fatalf("unexpected subject %q", mail.sent[0].Subject)
	}

	wantCutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)
	if listings.last.Before(wantCutoff.Add(-time.Minute)) || listings.last.After(wantCutoff.Add(time.Minute)) {
		t.Fatalf("unexpected cutoff %v", listings.last)
	}
}

func TestSendDailyDigest_NoEmptyDigests(t *testing.T) {
	subs := &fakeSubs{subs: []models.Subscription{
		{ID: uuid.New(), Email: "a@x.com", Category: strPtr("emlak"), Frequency: enums.FrequencyDaily, IsActive: true},
	}}
	listings := &fakeListings{rows: []models.Listing{approvedListing("İlan", time.Now().UTC())}}
	mail := &fakeMailer{}

	svc := newTestService(t, subs, listings, mail)
	result, err := svc.SendDailyDigest(context.Background())
	if err != nil {
		t.Fatalf("SendDailyDigest: %v", err)
	}
	if result.EmailsSent != 0 || len(mail.sent) != 0 {
		t.Fatalf("expected no emails for zero matches, got %d", len(mail.sent))
	}
}

func TestSendDailyDigest_CapsAtTenListings(t *testing.T) {
	now := time.Now().UTC()
	var rows []models.Listing
	for i := 0; i < 15; i++ {
		rows = append(rows, approvedListing("İlan", now.Add(-time.Duration(i)*time.Minute)))
	}
	subs := &fakeSubs{subs: []models.Subscription{
		{ID: uuid.New(), Email: "a@x.com", Frequency: enums.FrequencyDaily, IsActive: true},
	}}
	listings := &fakeListings{rows: rows}
	mail := &fakeMailer{}

	svc := newTestService(t, subs, listings, mail)
	if _, err := svc.SendDailyDigest(context.Background()); err != nil {
		t.Fatalf("SendDailyDigest: %v", err)
	}

	if len(mail.sent) != 1 {
		t.Fatalf("expected one email, got %d", len(mail.sent))
	}
	if got := strings.Count(mail.sent[0].HTMLBody, "İlanı Görüntüle"); got != 10 {
		t.Fatalf("expected 10 listings in digest, got %d", got)
	}
}

func TestSendDailyDigest_TransportFailureIsolatedPerSubscription(t *testing.T) {
	subs := &fakeSubs{subs: []models.Subscription{
		{ID: uuid.New(), Email: "a@x.com", Frequency: enums.FrequencyDaily, IsActive: true},
		{ID: uuid.New(), Email: "b@x.com", Frequency: enums.FrequencyDaily, IsActive: true},
	}}
	listings := &fakeListings{rows: []models.Listing{approvedListing("İlan", time.Now().UTC())}}
	mail := &fakeMailer{failTo: map[string]error{"a@x.com": errors.New("smtp down")}}

	svc := newTestService(t, subs, listings, mail)
	result, err := svc.SendDailyDigest(context.Background())
	if err != nil {
		t.Fatalf("SendDailyDigest: %v", err)
	}
	if result.EmailsSent != 1 {
		t.Fatalf("expected 1 email sent, got %d", result.EmailsSent)
	}
	if len(mail.sent) != 1 || mail.sent[0].To != "b@x.com" {
		t.Fatalf("expected delivery to b@x.com only, got %+v", mail.sent)
	}
}

func TestSendDailyDigest_SubscriptionListFailureIsFatal(t *testing.T) {
	subs := &fakeSubs{err: errors.New("db down")}
	svc := newTestService(t, subs, &fakeListings{}, &fakeMailer{})

	_, err := svc.SendDailyDigest(context.Background())
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
