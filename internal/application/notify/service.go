package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/notifylight/server/internal/application/delivery"
	"github.com/notifylight/server/internal/domain"
	"github.com/notifylight/server/internal/pkg/id"
	"github.com/notifylight/server/internal/pkg/validate"
)

// Outcome is the aggregate result of one notification dispatch.
type Outcome struct {
	NotificationID string   `json:"notification_id"`
	Type           string   `json:"type"`
	Total          int      `json:"total"`
	Successful     int      `json:"successful"`
	Failed         int      `json:"failed"`
	DeliveryRate   int      `json:"delivery_rate"`
	Errors         []string `json:"errors,omitempty"`
}

// DeliveryStatus is the ledger-derived view of one past dispatch.
type DeliveryStatus struct {
	NotificationID string `json:"notification_id"`
	Sent           int    `json:"sent"`
	Failed         int    `json:"failed"`
	DeliveryRate   int    `json:"delivery_rate"`
}

// Service is the notification orchestrator: it resolves fan-out, picks the
// push or in-app pipeline, and aggregates one result per request.
type Service interface {
	Dispatch(ctx context.Context, req domain.NotifyRequest) (*Outcome, error)
	// Status recomputes a past dispatch's counts from the delivery ledger.
	Status(ctx context.Context, notificationID string) (*DeliveryStatus, error)
}

type deviceResolver interface {
	Resolve(ctx context.Context, userIDs []string) ([]domain.Device, error)
	DistinctUsers(ctx context.Context) ([]string, error)
}

type messageCreator interface {
	Create(ctx context.Context, messageID, title, body, userID string) (*domain.InAppMessage, error)
}

type batchSender interface {
	SendBatch(ctx context.Context, devices []domain.Device, p delivery.Payload, notificationID string) delivery.BatchResult
}

type ledger interface {
	Append(ctx context.Context, e *domain.DeliveryLogEntry) error
	StatsFor(ctx context.Context, notificationID string) (sent, failed int, err error)
}

type service struct {
	registry deviceResolver
	inbox    messageCreator
	engine   batchSender
	ledger   ledger
}

func NewService(registry deviceResolver, inbox messageCreator, engine batchSender, ledger ledger) Service {
	return &service{registry: registry, inbox: inbox, engine: engine, ledger: ledger}
}

func (s *service) Dispatch(ctx context.Context, req domain.NotifyRequest) (*Outcome, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	if req.Type == "" {
		req.Type = domain.NotificationTypePush
	}
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBadRequest, err)
	}

	notificationID := id.New()
	slog.Info("dispatching notification",
		"notification", notificationID, "type", req.Type, "targets", len(req.Users))

	if req.Type == domain.NotificationTypeInApp {
		return s.dispatchInApp(ctx, notificationID, req)
	}
	return s.dispatchPush(ctx, notificationID, req)
}

// dispatchInApp creates one message per distinct target user. A failure for
// one user is collected and never aborts the loop.
func (s *service) dispatchInApp(ctx context.Context, notificationID string, req domain.NotifyRequest) (*Outcome, error) {
	users, err := s.targetUsers(ctx, req.Users)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		NotificationID: notificationID,
		Type:           domain.NotificationTypeInApp,
		Total:          len(users),
	}
	for _, uid := range users {
		if _, err := s.inbox.Create(ctx, id.New(), req.Title, req.Message, uid); err != nil {
			out.Failed++
			out.Errors = append(out.Errors, fmt.Sprintf("user %s: %v", uid, err))
			continue
		}
		out.Successful++
	}
	out.DeliveryRate = deliveryRate(out.Successful, out.Failed)
	return out, nil
}

// dispatchPush resolves devices, sends the batch, and records one ledger
// entry per device result.
func (s *service) dispatchPush(ctx context.Context, notificationID string, req domain.NotifyRequest) (*Outcome, error) {
	devices, err := s.registry.Resolve(ctx, req.Users)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no registered devices for targets: %w", domain.ErrNoDevices)
	}

	p := delivery.Payload{
		Title:   req.Title,
		Message: req.Message,
		Data:    req.Actions,
	}
	batch := s.engine.SendBatch(ctx, devices, p, notificationID)

	for _, r := range batch.Results {
		status := domain.DeliveryStatusSent
		if !r.Success {
			status = domain.DeliveryStatusFailed
		}
		entry := &domain.DeliveryLogEntry{
			DeliveryID:     id.New(),
			NotificationID: notificationID,
			DeviceToken:    r.Token,
			Status:         status,
			ErrorMessage:   r.ErrorMessage(),
			Timestamp:      time.Now().UTC(),
		}
		if err := s.ledger.Append(ctx, entry); err != nil {
			return nil, fmt.Errorf("record delivery for %s: %w", r.Token, err)
		}
	}

	return &Outcome{
		NotificationID: notificationID,
		Type:           domain.NotificationTypePush,
		Total:          batch.Total,
		Successful:     batch.Successful,
		Failed:         batch.Failed,
		DeliveryRate:   deliveryRate(batch.Successful, batch.Failed),
	}, nil
}

// targetUsers expands the request's user list for the in-app path: the
// sentinel "all" means every distinct user known to the registry. Distinct
// users, not devices: a user with three devices gets one message.
func (s *service) targetUsers(ctx context.Context, userIDs []string) ([]string, error) {
	for _, uid := range userIDs {
		if uid == domain.TargetAll {
			return s.registry.DistinctUsers(ctx)
		}
	}
	seen := make(map[string]struct{}, len(userIDs))
	out := make([]string, 0, len(userIDs))
	for _, uid := range userIDs {
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	return out, nil
}

func (s *service) Status(ctx context.Context, notificationID string) (*DeliveryStatus, error) {
	sent, failed, err := s.ledger.StatsFor(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if sent+failed == 0 {
		return nil, fmt.Errorf("notification %s: %w", notificationID, domain.ErrNotFound)
	}
	return &DeliveryStatus{
		NotificationID: notificationID,
		Sent:           sent,
		Failed:         failed,
		DeliveryRate:   deliveryRate(sent, failed),
	}, nil
}

func deliveryRate(successful, failed int) int {
	total := successful + failed
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(successful) / float64(total) * 100))
}
