package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/notifylight/server/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// DeviceEnvelope wraps register-device responses.
type DeviceEnvelope struct {
	Success bool       `json:"success"`
	Device  DeviceBody `json:"device"`
}

// DeviceBody is the public view of a registered device. The raw token is
// echoed back only implicitly (the client already holds it).
type DeviceBody struct {
	ID       string `json:"id"`
	Platform string `json:"platform"`
	UserID   string `json:"user_id"`
}

// NotifyEnvelope wraps notification dispatch responses.
type NotifyEnvelope struct {
	Success        bool        `json:"success"`
	NotificationID string      `json:"notification_id"`
	Type           string      `json:"type"`
	Results        ResultsBody `json:"results"`
}

// ResultsBody aggregates the per-target outcome of one dispatch.
type ResultsBody struct {
	Total        int      `json:"total"`
	Successful   int      `json:"successful"`
	Failed       int      `json:"failed"`
	DeliveryRate int      `json:"delivery_rate"`
	Errors       []string `json:"errors,omitempty"`
}

// StatusEnvelope wraps per-notification delivery status lookups.
type StatusEnvelope struct {
	Success        bool   `json:"success"`
	NotificationID string `json:"notification_id"`
	Sent           int    `json:"sent"`
	Failed         int    `json:"failed"`
	DeliveryRate   int    `json:"delivery_rate"`
}

// InboxEnvelope wraps in-app message listings.
type InboxEnvelope struct {
	Success  bool          `json:"success"`
	Messages []MessageBody `json:"messages"`
	Count    int           `json:"count"`
}

// NextMessageEnvelope wraps the one-at-a-time consumption endpoint.
// Message is null when the inbox has no active messages.
type NextMessageEnvelope struct {
	Success bool         `json:"success"`
	Message *MessageBody `json:"message"`
}

// MessageBody is the public view of an in-app message.
type MessageBody struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
}

// ReadEnvelope wraps mark-read responses.
type ReadEnvelope struct {
	Success   bool      `json:"success"`
	MessageID string    `json:"message_id"`
	ReadAt    time.Time `json:"read_at"`
}

func toMessageBody(m *domain.InAppMessage) MessageBody {
	return MessageBody{
		ID:        m.MessageID,
		Title:     m.Title,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
		Status:    m.Status,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP status codes.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoDevices):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
