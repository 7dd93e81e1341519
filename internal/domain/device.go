package domain

import "time"

// Platforms a device token can belong to. The platform decides which push
// channel delivers to the device (ios -> APNs, android -> FCM).
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
)

// TargetAll is the sentinel user id that fans a notification out to every
// known device (push) or every distinct user (in-app).
const TargetAll = "all"

// Device is one registered push token. Tokens are globally unique:
// re-registering an existing token updates platform/user_id in place and
// preserves DeviceID and CreatedAt.
type Device struct {
	DeviceID  string    `json:"id" dynamodbav:"device_id"`
	Token     string    `json:"token" dynamodbav:"token"`
	Platform  string    `json:"platform" dynamodbav:"platform"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// RegisterDeviceRequest is the payload of POST /register-device.
type RegisterDeviceRequest struct {
	Token    string `json:"token" validate:"required,min=1,max=4096"`
	Platform string `json:"platform" validate:"required,oneof=ios android"`
	UserID   string `json:"user_id" validate:"required,min=1,max=255"`
}
