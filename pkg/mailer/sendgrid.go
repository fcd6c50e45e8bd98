package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/vendfleet/vendfleet-backend/pkg/config"
	"github.com/vendfleet/vendfleet-backend/pkg/logger"
)

var errAPIKeyRequired = errors.New("sendgrid api key is required")

// SendgridMailer delivers HTML mail through the SendGrid v3 API.
type SendgridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
	logger *logger.Logger
}

// NewSendgrid validates the credentials and returns a ready mailer.
func NewSendgrid(cfg config.SendgridConfig, logg *logger.Logger) (*SendgridMailer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	return &SendgridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logg,
	}, nil
}

// Send delivers one HTML message to every recipient in a single API call.
func (m *SendgridMailer) Send(ctx context.Context, recipients []string, subject, htmlBody string) error {
	if len(recipients) == 0 {
		return errors.New("at least one recipient is required")
	}

	message := mail.NewV3Mail()
	message.SetFrom(m.from)
	message.Subject = subject

	personalization := mail.NewPersonalization()
	for _, rcpt := range recipients {
		personalization.AddTos(mail.NewEmail("", rcpt))
	}
	message.AddPersonalizations(personalization)
	message.AddContent(mail.NewContent("text/html", htmlBody))

	resp, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
