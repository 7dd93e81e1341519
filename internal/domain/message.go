package domain

import "time"

// In-app message lifecycle. A message is created active and transitions to
// read exactly once; read rows are immutable.
const (
	MessageStatusActive = "active"
	MessageStatusRead   = "read"
)

// InAppMessage is one persisted in-app notification. ReadAt is set if and
// only if Status is read.
type InAppMessage struct {
	MessageID string     `json:"id" dynamodbav:"message_id"`
	Title     string     `json:"title" dynamodbav:"title"`
	Message   string     `json:"message" dynamodbav:"message"`
	UserID    string     `json:"user_id" dynamodbav:"user_id"`
	Status    string     `json:"status" dynamodbav:"status"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty" dynamodbav:"read_at,omitempty"`
}
