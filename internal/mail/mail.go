// Package mail sends the contact-form notification through SMTP or SendGrid.
package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
	"time"
)

// Message is a multipart/alternative email with a text and an HTML body.
type Message struct {
	From     string
	FromName string
	To       []string
	ReplyTo  string
	Subject  string
	Text     string
	HTML     string
}

// Mailer delivers a Message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if m.From == "" {
		return errors.New("mail: sender is required")
	}
	if len(m.To) == 0 {
		return errors.New("mail: at least one recipient is required")
	}
	for _, addr := range append([]string{m.From, m.ReplyTo}, m.To...) {
		if strings.ContainsAny(addr, "\r\n") {
			return fmt.Errorf("mail: invalid address %q", addr)
		}
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return errors.New("mail: subject must be a single line")
	}
	return nil
}

// bytes renders the message in RFC 5322 form.
func (m Message) bytes(now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	body := multipart.NewWriter(&buf)

	from := m.From
	if m.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", m.FromName), m.From)
	}

	var head bytes.Buffer
	writeHeader := func(k, v string) {
		fmt.Fprintf(&head, "%s: %s\r\n", k, v)
	}
	writeHeader("From", from)
	writeHeader("To", strings.Join(m.To, ", "))
	if m.ReplyTo != "" {
		writeHeader("Reply-To", m.ReplyTo)
	}
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	writeHeader("Date", now.Format(time.RFC1123Z))
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", "multipart/alternative; boundary="+body.Boundary())
	head.WriteString("\r\n")

	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=UTF-8", m.Text},
		{"text/html; charset=UTF-8", m.HTML},
	} {
		w, err := body.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {part.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, fmt.Errorf("mail: writing part: %w", err)
		}
		if _, err := w.Write([]byte(part.content)); err != nil {
			return nil, fmt.Errorf("mail: writing part: %w", err)
		}
	}
	if err := body.Close(); err != nil {
		return nil, fmt.Errorf("mail: closing body: %w", err)
	}

	return append(head.Bytes(), buf.Bytes()...), nil
}
