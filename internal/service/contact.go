package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	netmail "net/mail"
	"strings"
	"unicode/utf8"

	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/apperror"
	"github.com/MinuraPunchihewa/the-issue-is-backend/internal/mail"
)

const MaxContactBodyLength = 5000

// ContactService forwards contact-form messages to a fixed inbox.
// Nothing is stored.
type ContactService struct {
	mailer    mail.Mailer
	from      string
	recipient string
	logger    *slog.Logger
}

func NewContactService(mailer mail.Mailer, from, recipient string, logger *slog.Logger) *ContactService {
	return &ContactService{mailer: mailer, from: from, recipient: recipient, logger: logger}
}

// Send mails body to the contact inbox with Reply-To set to email.
func (s *ContactService) Send(ctx context.Context, email, body string) error {
	email = strings.TrimSpace(email)
	body = strings.TrimSpace(body)

	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	addr, err := netmail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperror.ValidationFailed("email", "invalid email format")
	}
	if body == "" {
		return apperror.ValidationFailed("body", "body is required")
	}
	if utf8.RuneCountInString(body) > MaxContactBodyLength {
		return apperror.ValidationFailed("body", fmt.Sprintf("body must be %d characters or fewer", MaxContactBodyLength))
	}

	msg := mail.Message{
		From:     s.from,
		FromName: "The Issue Is",
		To:       []string{s.recipient},
		ReplyTo:  email,
		Subject:  "New contact request from " + email,
		Text:     fmt.Sprintf("From: %s\n\n%s\n", email, body),
		HTML: fmt.Sprintf("<p><strong>From:</strong> %s</p><p style=\"white-space: pre-wrap;\">%s</p>",
			html.EscapeString(email), html.EscapeString(body)),
	}

	if err := s.mailer.Send(ctx, msg); err != nil {
		return apperror.UpstreamUnavailable(0, "could not send the message, try again later", err)
	}

	s.logger.Info("contact message forwarded")
	return nil
}
