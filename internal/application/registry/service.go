package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/notifylight/server/internal/domain"
	"github.com/notifylight/server/internal/pkg/id"
	"github.com/notifylight/server/internal/pkg/validate"
)

// Service is the device registry: it owns token registration and target
// resolution for push dispatch.
type Service interface {
	// Register validates the request and upserts the token. Re-registering
	// an existing token rebinds it to the new user/platform in place.
	Register(ctx context.Context, req domain.RegisterDeviceRequest) (*domain.Device, error)
	// Resolve returns the devices for the given users, newest-updated first.
	// The sentinel "all" anywhere in the list resolves every device.
	Resolve(ctx context.Context, userIDs []string) ([]domain.Device, error)
	// DistinctUsers returns every user id with at least one device.
	DistinctUsers(ctx context.Context) ([]string, error)
	// Counts returns the device total and a per-platform breakdown.
	Counts(ctx context.Context) (int, map[string]int, error)
}

type deviceStore interface {
	Upsert(ctx context.Context, token, platform, userID, newID string, now time.Time) (*domain.Device, error)
	ListByUsers(ctx context.Context, userIDs []string) ([]domain.Device, error)
	ListAll(ctx context.Context) ([]domain.Device, error)
	DistinctUserIDs(ctx context.Context) ([]string, error)
	Counts(ctx context.Context) (int, map[string]int, error)
}

type service struct {
	repo deviceStore
}

func NewService(repo deviceStore) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, req domain.RegisterDeviceRequest) (*domain.Device, error) {
	req.Token = strings.TrimSpace(req.Token)
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	req.UserID = strings.TrimSpace(req.UserID)
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrBadRequest, err)
	}
	return s.repo.Upsert(ctx, req.Token, req.Platform, req.UserID, id.New(), time.Now().UTC())
}

func (s *service) Resolve(ctx context.Context, userIDs []string) ([]domain.Device, error) {
	for _, uid := range userIDs {
		if uid == domain.TargetAll {
			return s.repo.ListAll(ctx)
		}
	}
	return s.repo.ListByUsers(ctx, dedupe(userIDs))
}

func (s *service) DistinctUsers(ctx context.Context) ([]string, error) {
	return s.repo.DistinctUserIDs(ctx)
}

func (s *service) Counts(ctx context.Context) (int, map[string]int, error) {
	return s.repo.Counts(ctx)
}

// dedupe removes duplicate ids preserving first-seen order, so a repeated
// user in the target list never doubles its devices in the fan-out.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
