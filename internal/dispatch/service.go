// Package dispatch fans a newly approved listing out to every matching
// instant subscription across the email, push, and in-app channels.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bali1973/alo17-alerts/internal/match"
	"github.com/bali1973/alo17-alerts/internal/notifications"
	"github.com/bali1973/alo17-alerts/pkg/db/models"
	"github.com/bali1973/alo17-alerts/pkg/enums"
	pkgerrors "github.com/bali1973/alo17-alerts/pkg/errors"
	"github.com/bali1973/alo17-alerts/pkg/logger"
	"github.com/bali1973/alo17-alerts/pkg/mailer"
	"github.com/bali1973/alo17-alerts/pkg/metrics"
	"github.com/bali1973/alo17-alerts/pkg/push"
)

// SubscriptionSource reads the active subscriptions for a dispatch path.
type SubscriptionSource interface {
	ListActiveByFrequency(ctx context.Context, frequency enums.Frequency) ([]models.Subscription, error)
}

// NotificationCreator writes in-app notifications.
type NotificationCreator interface {
	Create(ctx context.Context, params notifications.CreateParams) (*models.Notification, error)
}

// HistorySink records outbound sends in the audit log.
type HistorySink interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
	CapTo(ctx context.Context, maxCount int) (int64, error)
}

// Mailer delivers rendered emails.
type Mailer interface {
	Send(ctx context.Context, email mailer.Email) error
}

// Pusher delivers push notifications to a device token.
type Pusher interface {
	SendToDevice(ctx context.Context, token string, msg push.Message) error
}

// Service is the instant notification entry point.
type Service interface {
	NotifyNewListing(ctx context.Context, listing models.Listing) (Result, error)
}

// Result reports how many subscriptions matched the listing. Channel-level
// failures do not reduce the count.
type Result struct {
	NotificationsSent int `json:"notificationsSent"`
}

// Params wires dispatcher dependencies.
type Params struct {
	Subscriptions  SubscriptionSource
	Notifications  NotificationCreator
	History        HistorySink
	Mailer         Mailer
	Pusher         Pusher
	Logger         *logger.Logger
	Metrics        *metrics.DispatchMetrics
	SiteBaseURL    string
	ChannelTimeout time.Duration
	MaxHistory     int
}

type service struct {
	subs           SubscriptionSource
	notifs         NotificationCreator
	hist           HistorySink
	mail           Mailer
	pusher         Pusher
	logg           *logger.Logger
	metrics        *metrics.DispatchMetrics
	siteBaseURL    string
	channelTimeout time.Duration
	maxHistory     int
}

// NewService validates and wires the dispatcher.
func NewService(params Params) (Service, error) {
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "subscriptions repository required")
	}
	if params.Notifications == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications service required")
	}
	if params.History == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "history repository required")
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
		notifs:         params.Notifications,
		hist:           params.History,
		mail:           params.Mailer,
		pusher:         params.Pusher,
		logg:           params.Logger,
		metrics:        params.Metrics,
		siteBaseURL:    params.SiteBaseURL,
		channelTimeout: params.ChannelTimeout,
		maxHistory:     params.MaxHistory,
	}, nil
}

// NotifyNewListing matches the listing against every active instant
// subscription and dispatches per match. Only a failure to read the
// subscription list is fatal; everything past that point is isolated
// per subscription and per channel.
func (s *service) NotifyNewListing(ctx context.Context, listing models.Listing) (Result, error) {
	ctx = s.logg.WithListingID(ctx, listing.ID.String())

	subs, err := s.subs.ListActiveByFrequency(ctx, enums.FrequencyInstant)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list instant subscriptions")
	}

	matched := 0
	for _, sub := range subs {
		if kw := match.DecodeKeywords(sub.Keywords); kw.State == match.FilterMalformed {
			subCtx := s.logg.WithSubscriptionID(ctx, sub.ID.String())
			s.logg.Warn(subCtx, "malformed keyword filter, treating as absent")
		}
		if !match.Matches(listing, sub) {
			continue
		}
		matched++
		s.metrics.IncMatch()
		s.dispatchOne(ctx, sub, listing)
	}

	if matched > 0 {
		if _, err := s.hist.CapTo(ctx, s.maxHistory); err != nil {
			s.logg.Error(ctx, "capping history failed", err)
		}
	}

	return Result{NotificationsSent: matched}, nil
}

func (s *service) dispatchOne(ctx context.Context, sub models.Subscription, listing models.Listing) {
	ctx = s.logg.WithSubscriptionID(ctx, sub.ID.String())

	subject := mailer.ListingAlertSubject(listing.Title)
	emailStatus := enums.SendStatusSent

	if sub.EmailEnabled {
		if err := s.sendEmail(ctx, sub, listing, subject); err != nil {
			emailStatus = enums.SendStatusFailed
			s.metrics.IncSend(string(enums.ChannelEmail), string(enums.SendStatusFailed))
			s.logg.Error(ctx, "email send failed", err)
		} else {
			s.metrics.IncSend(string(enums.ChannelEmail), string(enums.SendStatusSent))
		}
	}

	if sub.PushEnabled && sub.PushToken != nil && *sub.PushToken != "" && s.pusher != nil {
		if err := s.sendPush(ctx, sub, listing); err != nil {
			s.metrics.IncSend(string(enums.ChannelPush), string(enums.SendStatusFailed))
			s.logg.Error(ctx, "push send failed", err)
		} else {
			s.metrics.IncSend(string(enums.ChannelPush), string(enums.SendStatusSent))
		}
	}

	if _, err := s.notifs.Create(ctx, notifications.CreateParams{
		UserID:  sub.UserID,
		Email:   sub.Email,
		Type:    enums.NotificationTypeNewListing,
		Title:   "Yeni ilan eşleşmesi",
		Message: fmt.Sprintf("%s aramanızla eşleşen yeni bir ilan yayında", listing.Title),
		Data:    s.listingData(listing),
	}); err != nil {
		s.logg.Error(ctx, "creating in-app notification failed", err)
	}

	if err := s.hist.Append(ctx, &models.HistoryEntry{
		SubscriptionID: sub.ID,
		ListingID:      listing.ID,
		Email:          sub.Email,
		Subject:        subject,
		Content:        listing.Title,
		Channel:        enums.ChannelEmail,
		Status:         emailStatus,
	}); err != nil {
		s.logg.Error(ctx, "appending history entry failed", err)
	}
}

func (s *service) sendEmail(ctx context.Context, sub models.Subscription, listing models.Listing, subject string) error {
	body, err := mailer.RenderListingAlert(mailer.ListingAlertData{
		Title:    listing.Title,
		Price:    listing.Price.String(),
		Location: listing.Location,
		URL:      s.listingURL(listing),
	})
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

func (s *service) sendPush(ctx context.Context, sub models.Subscription, listing models.Listing) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.channelTimeout)
	defer cancel()
	return s.pusher.SendToDevice(sendCtx, *sub.PushToken, push.Message{
		Title: "Yeni ilan eşleşmesi",
		Body:  fmt.Sprintf("%s - %s TL", listing.Title, listing.Price.String()),
		Data: map[string]string{
			"listingId": listing.ID.String(),
			"url":       s.listingURL(listing),
		},
	})
}

func (s *service) listingURL(listing models.Listing) string {
	return fmt.Sprintf("%s/ilan/%s", s.siteBaseURL, listing.ID)
}

func (s *service) listingData(listing models.Listing) string {
	payload, err := json.Marshal(map[string]string{
		"listingId": listing.ID.String(),
		"url":       s.listingURL(listing),
	})
	if err != nil {
		return ""
	}
	return string(payload)
}
