// Package listings consumes listing approval events and feeds them to the
// notification dispatcher.
package listings

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/bali1973/alo17-alerts/internal/dispatch"
	listingstore "github.com/bali1973/alo17-alerts/internal/listings"
	"github.com/bali1973/alo17-alerts/pkg/db/models"
	"github.com/bali1973/alo17-alerts/pkg/enums"
	"github.com/bali1973/alo17-alerts/pkg/events"
	"github.com/bali1973/alo17-alerts/pkg/logger"
)

const listingEventsConsumer = "listing-alerts"

// Notifier is the dispatch entry point the consumer drives. dispatch.Service
// satisfies it.
type Notifier interface {
	NotifyNewListing(ctx context.Context, listing models.Listing) (dispatch.Result, error)
}

type idempotencyGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer watches listing events and dispatches instant notifications for
// approved listings.
type Consumer struct {
	listings     listingstore.Repository
	notifier     Notifier
	subscription *pubsub.Subscriber
	idempotency  idempotencyGuard
	logg         *logger.Logger
}

// NewConsumer builds a listing events consumer.
func NewConsumer(listings listingstore.Repository, notifier Notifier, subscription *pubsub.Subscriber, guard idempotencyGuard, logg *logger.Logger) (*Consumer, error) {
	if listings == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("listing subscription required")
	}
	if guard == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		listings:     listings,
		notifier:     notifier,
		subscription: subscription,
		idempotency:  guard,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	}
	logCtx := c.logg.WithFields(ctx, fields)

	if eventType != events.EventTypeListingApproved {
		c.logg.Info(logCtx, "skipping non-approval event")
		return processResult{ack: true}
	}

	var envelope events.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, listingEventsConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload events.ListingApproved
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, listingEventsConsumer, eventID)
		return processResult{ack: true}
	}

	logCtx = c.logg.WithListingID(logCtx, payload.ListingID.String())

	listing := models.Listing{
		ID:          payload.ListingID,
		Title:       payload.Title,
		Description: payload.Description,
		Price:       payload.Price,
		Location:    payload.Location,
		Category:    payload.Category,
		Subcategory: payload.Subcategory,
		Status:      enums.ListingStatusApproved,
		CreatedAt:   payload.CreatedAt,
	}

	if err := c.listings.Upsert(ctx, &listing); err != nil {
		c.logg.Error(logCtx, "storing listing failed", err)
		_ = c.idempotency.Delete(ctx, listingEventsConsumer, eventID)
		return processResult{nack: true}
	}

	result, err := c.notifier.NotifyNewListing(ctx, listing)
	if err != nil {
		c.logg.Error(logCtx, "dispatch failed", err)
		_ = c.idempotency.Delete(ctx, listingEventsConsumer, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithField(logCtx, "notifications_sent", result.NotificationsSent), "listing dispatched")
	return processResult{ack: true}
}
