// Package digest builds the daily and weekly consolidated listing emails.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/bali1973/alo17-alerts/internal/match"
	"github.com/bali1973/alo17-alerts/pkg/db/models"
	"github.com/bali1973/alo17-alerts/pkg/enums"
	pkgerrors "github.com/bali1973/alo17-alerts/pkg/errors"
	"github.com/bali1973/alo17-alerts/pkg/logger"
	"github.com/bali1973/alo17-alerts/pkg/mailer"
	"github.com/bali1973/alo17-alerts/pkg/metrics"
)

const (
	dailyWindow  = 24 * time.Hour
	weeklyWindow = 7 * 24 * time.Hour

	// maxListingsPerDigest bounds how many listings one digest email carries.
	maxListingsPerDigest = 10
)

// SubscriptionSource reads the active subscriptions for a digest frequency.
type SubscriptionSource interface {
	ListActiveByFrequency(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error)
}

// ListingSource reads recently approved listings.
type ListingSource interface {
	ListApprovedSince(ctx context.Context, since time.Time) ([]models.Listing, error)
}

// Mailer delivers rendered emails.
type Mailer interface {
	Send(ctx context.Context, email mailer.Email) error
}

// Service exposes the digest entry points.
type Service interface {
	SendDailyDigest(ctx context.Context) (Result, error)
	SendWeeklyDigest(ctx context.Context) (Result, error)
}

// Result summarizes one digest run.
type Result struct {
	Subscriptions int `json:"subscriptions"`
	EmailsSent    int `json:"emailsSent"`
}

// Params wires digest dependencies.
type Params struct {
	Subscriptions  SubscriptionSource
	Listings       ListingSource
	Mailer         Mailer
	Logger         *logger.Logger
	Metrics        *metrics.DispatchMetrics
	SiteBaseURL    string
	ChannelTimeout time.Duration
}

type service struct {
	subs           SubscriptionSource
	listings       ListingSource
	mail           Mailer
	logg           *logger.Logger
	metrics        *metrics.DispatchMetrics
	siteBaseURL    string
	channelTimeout time.Duration
	now            func() time.Time
}

// NewService validates and wires the digest service.
func NewService(params Params) (Service, error) {
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscriptions source required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "listings source required")
	}
	if params.Mailer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mailer required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	if params.ChannelTimeout <= 0 {
		params.ChannelTimeout = 10 * time.Second
	}
	return &service{
		subs:           params.Subscriptions,
		listings:       params.Listings,
		mail:           params.Mailer,
		logg:           params.Logger,
		metrics:        params.Metrics,
		siteBaseURL:    params.SiteBaseURL,
		channelTimeout: params.ChannelTimeout,
		now:            func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) SendDailyDigest(ctx context.Context) (Result, error) {
	return s.sendDigest(ctx, enums.FrequencyDaily, dailyWindow, mailer.DailyDigestSubject)
}

func (s *service) SendWeeklyDigest(ctx context.Context) (Result, error) {
	return s.sendDigest(ctx, enums.FrequencyWeekly, weeklyWindow, mailer.WeeklyDigestSubject)
}

// sendDigest delivers one consolidated email per subscription with at least
// one matching listing inside the window. Subscriptions with no matches are
// skipped entirely; digest runs never write in-app notifications or history.
func (s *service) sendDigest(ctx context.Context, frequency enums.Frequency, window time.Duration, subject string) (Result, error) {
	cutoff := s.now().Add(-window)
	ctx = s.logg.WithField(ctx, "frequency", string(frequency))

	subs, err := s.subs.ListActiveByFrequency(ctx, frequency)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list digest subscriptions")
	}
	if len(subs) == 0 {
		return Result{}, nil
	}

	recent, err := s.listings.ListApprovedSince(ctx, cutoff)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent listings")
	}

	result := Result{Subscriptions: len(subs)}
	for _, sub := range subs {
		matched := matchListings(recent, sub)
		if len(matched) == 0 {
			continue
		}

		if err := s.sendOne(ctx, sub, matched, subject); err != nil {
			s.metrics.IncSend(string(enums.ChannelEmail), string(enums.SendStatusFailed))
			subCtx := s.logg.WithSubscriptionID(ctx, sub.ID.String())
			s.logg.Error(subCtx, "digest send failed", err)
			continue
		}
		s.metrics.IncSend(string(enums.ChannelEmail), string(enums.SendStatusSent))
		result.EmailsSent++
	}

	return result, nil
}

// matchListings keeps the newest-first order of the source and stops at the
// per-digest cap.
func matchListings(recent []models.Listing, sub models.Subscription) []models.Listing {
	var matched []models.Listing
	for _, listing := range recent {
		if !match.Matches(listing, sub) {
			continue
		}
		matched = append(matched, listing)
		if len(matched) == maxListingsPerDigest {
			break
		}
	}
	return matched
}

func (s *service) sendOne(ctx context.Context, sub models.Subscription, matched []models.Listing, subject string) error {
	items := make([]mailer.DigestItem, 0, len(matched))
	for _, listing := range matched {
		items = append(items, mailer.DigestItem{
			Title:       listing.Title,
			Description: listing.Description,
			Price:       listing.Price.String(),
			Location:    listing.Location,
			URL:         fmt.Sprintf("%s/ilan/%s", s.siteBaseURL, listing.ID),
		})
	}

	body, err := mailer.RenderDigest(mailer.DigestData{Heading: subject, Items: items})
	if err != nil {
		return err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.channelTimeout)
	defer cancel()
	return s.mail.Send(sendCtx, mailer.Email{
		To:       sub.Email,
		Subject:  subject,
		HTMLBody: body,
	})
}
