package mail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const sendgridHost = "https://api.sendgrid.com"

// SendGridMailer sends mail through the SendGrid v3 API.
type SendGridMailer struct {
	apiKey string
	host   string
	logger *slog.Logger
}

func NewSendGridMailer(apiKey string, logger *slog.Logger) *SendGridMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridMailer{apiKey: apiKey, host: sendgridHost, logger: logger}
}

func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	email := sgmail.NewV3Mail()
	email.SetFrom(sgmail.NewEmail(msg.FromName, msg.From))
	email.Subject = msg.Subject
	if msg.ReplyTo != "" {
		email.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}
	email.AddPersonalizations(p)
	email.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)

	request := sendgrid.GetRequest(m.apiKey, "/v3/mail/send", m.host)
	request.Method = "POST"
	client := &sendgrid.Client{Request: request}

	resp, err := client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("mail: sendgrid: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail: sendgrid: HTTP %d: %s", resp.StatusCode, resp.Body)
	}

	m.logger.Info("mail sent", "transport", "sendgrid", "status", resp.StatusCode, "recipients", len(msg.To))
	return nil
}
