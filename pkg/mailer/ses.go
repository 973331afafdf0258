package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/bali1973/alo17-alerts/pkg/config"
	"github.com/bali1973/alo17-alerts/pkg/logger"
)

// Email is a rendered outbound message.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
}

// SESMailer delivers email through Amazon SES.
type SESMailer struct {
	client *ses.Client
	source string
	logg   *logger.Logger
}

// NewSESMailer builds an SES-backed mailer for the configured region and sender.
func NewSESMailer(ctx context.Context, cfg config.SESConfig, logg *logger.Logger) (*SESMailer, error) {
	if cfg.FromAddress == "" {
		return nil, errors.New("ses from address is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	source := cfg.FromAddress
	if cfg.FromName != "" {
		source = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}

	return &SESMailer{
		client: ses.NewFromConfig(awsCfg),
		source: source,
		logg:   logg,
	}, nil
}

// Send delivers a single email.
func (m *SESMailer) Send(ctx context.Context, email Email) error {
	if email.To == "" {
		return errors.New("recipient address is required")
	}

	input := &ses.SendEmailInput{
		Source: aws.String(m.source),
		Destination: &types.Destination{
			ToAddresses: []string{email.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(email.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(email.HTMLBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("sending email via ses: %w", err)
	}

	if m.logg != nil {
		m.logg.Info(m.logg.WithField(ctx, "subject", email.Subject), "email sent")
	}
	return nil
}
