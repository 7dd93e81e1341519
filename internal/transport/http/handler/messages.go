package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/notifylight/server/internal/application/inbox"
)

// InboxHandler handles in-app message consumption.
type InboxHandler struct {
	svc inbox.Service
}

func NewInboxHandler(svc inbox.Service) *InboxHandler { return &InboxHandler{svc: svc} }

// List returns the user's active messages, oldest first.
func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.svc.ListActive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	bodies := make([]MessageBody, len(messages))
	for i := range messages {
		bodies[i] = toMessageBody(&messages[i])
	}
	writeJSON(w, http.StatusOK, InboxEnvelope{
		Success:  true,
		Messages: bodies,
		Count:    len(bodies),
	})
}

// Next returns the single oldest active message, or a null message when the
// inbox is empty.
func (h *InboxHandler) Next(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.PeekOldest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	env := NextMessageEnvelope{Success: true}
	if m != nil {
		body := toMessageBody(m)
		env.Message = &body
	}
	writeJSON(w, http.StatusOK, env)
}

// MarkRead consumes a message. A second call for the same id returns 404.
func (h *InboxHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.MarkRead(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReadEnvelope{
		Success:   true,
		MessageID: m.MessageID,
		ReadAt:    *m.ReadAt,
	})
}
