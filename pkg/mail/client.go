// Package mail sends transactional email through SendGrid.
package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/minhvu-dev/courseloop-backend/pkg/config"
	"github.com/minhvu-dev/courseloop-backend/pkg/logger"
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Client wraps the SendGrid API client.
type Client struct {
	api       *sendgrid.Client
	fromName  string
	fromEmail string
	logg      *logger.Logger
}

// New builds a SendGrid-backed sender. Returns a disabled client when
// no API key is configured; Send then logs and drops the message so
// local environments work without credentials.
func New(cfg config.MailConfig, logg *logger.Logger) *Client {
	c := &Client{
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
		logg:      logg,
	}
	if cfg.SendgridAPIKey != "" {
		c.api = sendgrid.NewSendClient(cfg.SendgridAPIKey)
	}
	return c
}

// Send delivers an HTML email to a single recipient.
func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	if c.api == nil {
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "recipient", to), "mail client disabled, dropping email")
		}
		return nil
	}

	from := sgmail.NewEmail(c.fromName, c.fromEmail)
	recipient := sgmail.NewEmail("", to)
	message := sgmail.NewSingleEmail(from, subject, recipient, "", htmlBody)

	resp, err := c.api.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
