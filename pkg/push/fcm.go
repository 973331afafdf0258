package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/bali1973/alo17-alerts/pkg/config"
	"github.com/bali1973/alo17-alerts/pkg/logger"
)

// Message is a push notification payload.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// FCMClient delivers push notifications through Firebase Cloud Messaging.
type FCMClient struct {
	messagingClient *messaging.Client
	logg            *logger.Logger
}

// NewFCMClient initializes Firebase messaging with the configured credentials.
// With no credentials file it falls back to application default credentials.
func NewFCMClient(ctx context.Context, cfg config.FCMConfig, logg *logger.Logger) (*FCMClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting messaging client: %w", err)
	}

	return &FCMClient{
		messagingClient: messagingClient,
		logg:            logg,
	}, nil
}

// SendToDevice sends a push notification to a single device token.
func (c *FCMClient) SendToDevice(ctx context.Context, token string, msg Message) error {
	if token == "" {
		return fmt.Errorf("device token is required")
	}

	message := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	}

	if _, err := c.messagingClient.Send(ctx, message); err != nil {
		return fmt.Errorf("sending fcm message: %w", err)
	}

	if c.logg != nil {
		c.logg.Info(ctx, "push notification sent")
	}
	return nil
}
