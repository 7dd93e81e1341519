package domain

import "time"

// Outcome of one per-device delivery attempt as recorded in the ledger.
const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)

// DeliveryLogEntry is one append-only ledger row. Many entries map to one
// logical notification dispatch (one per targeted device). Entries are never
// mutated after insert.
type DeliveryLogEntry struct {
	DeliveryID     string    `json:"id" dynamodbav:"delivery_id"`
	NotificationID string    `json:"notification_id" dynamodbav:"notification_id"`
	DeviceToken    string    `json:"device_token" dynamodbav:"device_token"`
	Status         string    `json:"status" dynamodbav:"status"`
	ErrorMessage   string    `json:"error_message,omitempty" dynamodbav:"error_message,omitempty"`
	Timestamp      time.Time `json:"timestamp" dynamodbav:"timestamp"`
}
