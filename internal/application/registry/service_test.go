package registry

import (
	"context"
	"testing"
	"time"

	"github.com/notifylight/server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockDeviceStore struct{ mock.Mock }

func (m *mockDeviceStore) Upsert(ctx context.Context, token, platform, userID, newID string, now time.Time) (*domain.Device, error) {
	args := m.Called(ctx, token, platform, userID, newID, now)
	if d, _ := args.Get(0).(*domain.Device); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockDeviceStore) ListByUsers(ctx context.Context, userIDs []string) ([]domain.Device, error) {
	args := m.Called(ctx, userIDs)
	return args.Get(0).([]domain.Device), args.Error(1)
}
func (m *mockDeviceStore) ListAll(ctx context.Context) ([]domain.Device, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Device), args.Error(1)
}
func (m *mockDeviceStore) DistinctUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}
func (m *mockDeviceStore) Counts(ctx context.Context) (int, map[string]int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Get(1).(map[string]int), args.Error(2)
}

// --- tests ---

func TestRegister_Valid(t *testing.T) {
	repo := new(mockDeviceStore)
	repo.On("Upsert", mock.Anything, "tok-1", "ios", "u1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Return(&domain.Device{DeviceID: "d1", Token: "tok-1", Platform: "ios", UserID: "u1"}, nil)

	svc := NewService(repo)
	d, err := svc.Register(context.Background(), domain.RegisterDeviceRequest{
		Token: "tok-1", Platform: "ios", UserID: "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "d1", d.DeviceID)
	repo.AssertExpectations(t)
}

func TestRegister_SanitizesInput(t *testing.T) {
	repo := new(mockDeviceStore)
	repo.On("Upsert", mock.Anything, "tok-1", "ios", "u1", mock.Anything, mock.Anything).
		Return(&domain.Device{DeviceID: "d1"}, nil)

	svc := NewService(repo)
	_, err := svc.Register(context.Background(), domain.RegisterDeviceRequest{
		Token: "  tok-1 ", Platform: " IOS ", UserID: " u1 ",
	})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRegister_RejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		req  domain.RegisterDeviceRequest
	}{
		{"empty token", domain.RegisterDeviceRequest{Platform: "ios", UserID: "u1"}},
		{"whitespace token", domain.RegisterDeviceRequest{Token: "   ", Platform: "ios", UserID: "u1"}},
		{"unknown platform", domain.RegisterDeviceRequest{Token: "tok-1", Platform: "windows", UserID: "u1"}},
		{"empty user", domain.RegisterDeviceRequest{Token: "tok-1", Platform: "android"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(mockDeviceStore)
			svc := NewService(repo)
			_, err := svc.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, domain.ErrBadRequest)
			repo.AssertNotCalled(t, "Upsert")
		})
	}
}

func TestResolve_AllSentinel(t *testing.T) {
	repo := new(mockDeviceStore)
	all := []domain.Device{{Token: "a"}, {Token: "b"}}
	repo.On("ListAll", mock.Anything).Return(all, nil)

	svc := NewService(repo)
	devices, err := svc.Resolve(context.Background(), []string{"u1", "all"})
	require.NoError(t, err)
	assert.Equal(t, all, devices)
	repo.AssertNotCalled(t, "ListByUsers")
}

func TestResolve_DeduplicatesUsers(t *testing.T) {
	repo := new(mockDeviceStore)
	repo.On("ListByUsers", mock.Anything, []string{"u1", "u2"}).
		Return([]domain.Device{{Token: "a"}}, nil)

	svc := NewService(repo)
	_, err := svc.Resolve(context.Background(), []string{"u1", "u2", "u1"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
