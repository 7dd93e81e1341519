package apns

import (
	"context"
	"fmt"

	"github.com/notifylight/server/internal/application/delivery"
	"github.com/notifylight/server/internal/config"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// permanentReasons are APNs rejection codes that no amount of retrying can
// fix. Everything else (throttling, 5xx, transport errors) stays retryable.
var permanentReasons = map[string]bool{
	apns2.ReasonBadDeviceToken:         true,
	apns2.ReasonUnregistered:           true,
	apns2.ReasonDeviceTokenNotForTopic: true,
}

// Channel delivers pushes to iOS devices through APNs using provider-token
// authentication.
type Channel struct {
	client *apns2.Client
	topic  string
}

// NewChannel loads the .p8 signing key and builds the APNs client against
// the development or production gateway per cfg.Production.
func NewChannel(cfg config.ChannelAPNs) (*Channel, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("load APNs auth key: %w", err)
	}
	t := &token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	}
	client := apns2.NewTokenClient(t)
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	return &Channel{client: client, topic: cfg.BundleID}, nil
}

// Send pushes one notification and returns the APNs id. Rejections with a
// reason in permanentReasons are wrapped as non-retryable.
func (c *Channel) Send(ctx context.Context, deviceToken string, p delivery.Payload) (string, error) {
	pl := payload.NewPayload().
		AlertTitle(p.Title).
		AlertBody(p.Message).
		Sound("default")
	for k, v := range p.Data {
		pl = pl.Custom(k, v)
	}

	n := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       c.topic,
		Payload:     pl,
	}

	res, err := c.client.PushWithContext(ctx, n)
	if err != nil {
		return "", fmt.Errorf("apns push: %w", err)
	}
	if !res.Sent() {
		err := fmt.Errorf("apns rejected: %s (status %d)", res.Reason, res.StatusCode)
		if permanentReasons[res.Reason] {
			return "", delivery.Permanent(err)
		}
		return "", err
	}
	return res.ApnsID, nil
}
