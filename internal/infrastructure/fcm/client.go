package fcm

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/errorutils"
	"firebase.google.com/go/v4/messaging"
	"github.com/notifylight/server/internal/application/delivery"
	"github.com/notifylight/server/internal/config"
	"google.golang.org/api/option"
)

// permanentChecks classify FCM errors that retrying cannot fix: tokens the
// service no longer knows, tokens minted for a different sender, and
// malformed requests. The SDK exposes these as predicates over its
// structured error codes, so no message-string matching is involved.
var permanentChecks = []func(error) bool{
	messaging.IsUnregistered,
	messaging.IsSenderIDMismatch,
	errorutils.IsInvalidArgument,
}

// Channel delivers pushes to Android devices through Firebase Cloud Messaging.
type Channel struct {
	client *messaging.Client
}

// NewChannel initialises the Firebase app from the service-account
// credentials file and opens a messaging client.
func NewChannel(ctx context.Context, cfg config.ChannelFCM) (*Channel, error) {
	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cfg.ProjectID},
		option.WithCredentialsFile(cfg.CredentialsPath),
	)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}
	return &Channel{client: client}, nil
}

// Send pushes one notification and returns the FCM message id.
func (c *Channel) Send(ctx context.Context, deviceToken string, p delivery.Payload) (string, error) {
	msg := &messaging.Message{
		Token: deviceToken,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Message,
		},
		Data: p.Data,
	}
	id, err := c.client.Send(ctx, msg)
	if err != nil {
		for _, permanent := range permanentChecks {
			if permanent(err) {
				return "", delivery.Permanent(fmt.Errorf("fcm rejected: %w", err))
			}
		}
		return "", fmt.Errorf("fcm send: %w", err)
	}
	return id, nil
}
