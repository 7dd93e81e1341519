package inbox

import (
	"context"
	"time"

	"github.com/notifylight/server/internal/domain"
)

// Service is the in-app message store: a per-user FIFO inbox with an
// active -> read lifecycle. Read rows are immutable and are kept forever;
// no retention policy prunes them.
type Service interface {
	Create(ctx context.Context, messageID, title, body, userID string) (*domain.InAppMessage, error)
	// ListActive returns the user's unread messages, oldest first.
	ListActive(ctx context.Context, userID string) ([]domain.InAppMessage, error)
	// PeekOldest returns the single oldest active message, or nil when the
	// inbox is empty, for clients that display one message at a time.
	PeekOldest(ctx context.Context, userID string) (*domain.InAppMessage, error)
	// MarkRead consumes a message exactly once. It fails with
	// domain.ErrNotFound when the message is absent or already read.
	MarkRead(ctx context.Context, messageID string) (*domain.InAppMessage, error)
	Stats(ctx context.Context) (active, read int, err error)
}

type messageStore interface {
	Put(ctx context.Context, m *domain.InAppMessage) error
	ListActive(ctx context.Context, userID string) ([]domain.InAppMessage, error)
	MarkRead(ctx context.Context, messageID string, readAt time.Time) (*domain.InAppMessage, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

type service struct {
	repo messageStore
}

func NewService(repo messageStore) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, messageID, title, body, userID string) (*domain.InAppMessage, error) {
	m := &domain.InAppMessage{
		MessageID: messageID,
		Title:     title,
		Message:   body,
		UserID:    userID,
		Status:    domain.MessageStatusActive,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) ListActive(ctx context.Context, userID string) ([]domain.InAppMessage, error) {
	return s.repo.ListActive(ctx, userID)
}

func (s *service) PeekOldest(ctx context.Context, userID string) (*domain.InAppMessage, error) {
	messages, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &messages[0], nil
}

func (s *service) MarkRead(ctx context.Context, messageID string) (*domain.InAppMessage, error) {
	return s.repo.MarkRead(ctx, messageID, time.Now().UTC())
}

func (s *service) Stats(ctx context.Context) (int, int, error) {
	active, err := s.repo.CountByStatus(ctx, domain.MessageStatusActive)
	if err != nil {
		return 0, 0, err
	}
	read, err := s.repo.CountByStatus(ctx, domain.MessageStatusRead)
	if err != nil {
		return 0, 0, err
	}
	return active, read, nil
}
