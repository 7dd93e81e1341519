package domain

// Notification delivery pipelines.
const (
	NotificationTypePush  = "push"
	NotificationTypeInApp = "in-app"
)

// NotifyRequest is the payload of POST /notify. It is transient: its only
// persisted effects are InAppMessage rows or DeliveryLogEntry rows.
type NotifyRequest struct {
	Title   string            `json:"title" validate:"max=255"`
	Message string            `json:"message" validate:"max=4096"`
	Type    string            `json:"type" validate:"omitempty,oneof=push in-app"`
	Users   []string          `json:"users" validate:"required,min=1,dive,required"`
	Actions map[string]string `json:"actions,omitempty" validate:"omitempty,max=10"`
}
