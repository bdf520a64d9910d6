package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// ContactSender forwards a visitor's message to the maintainers.
type ContactSender interface {
	Send(ctx context.Context, email, body string) error
}

type ContactHandler struct {
	contact ContactSender
	logger  *slog.Logger
}

func NewContactHandler(contact ContactSender, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{contact: contact, logger: logger}
}

type contactRequest struct {
	Email string `json:"email"`
	Body  string `json:"body"`
}

// HandleContactUs emails the message to the configured recipient.
//
// HTTP: POST /contact_us
func (h *ContactHandler) HandleContactUs(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.contact.Send(r.Context(), req.Email, req.Body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Message sent"})
}
