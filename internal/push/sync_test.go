// internal/push/sync_test.go
package push

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"kitchen-hub/internal/common/errors"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTokenBackend struct {
	RegisterTokenFunc   func(ctx context.Context, token models.PushToken, identity string) error
	UnregisterTokenFunc func(ctx context.Context, token string) error
}

func (m *mockTokenBackend) RegisterToken(ctx context.Context, token models.PushToken, identity string) error {
	return m.RegisterTokenFunc(ctx, token, identity)
}

func (m *mockTokenBackend) UnregisterToken(ctx context.Context, token string) error {
	return m.UnregisterTokenFunc(ctx, token)
}

type mockTokenRegistry struct {
	CurrentFunc             func(ctx context.Context) (models.PushToken, error)
	ClearFunc               func(ctx context.Context) error
	MarkAdminRegisteredFunc func(ctx context.Context, at time.Time) error
	cleared                 int
	adminMarks              []time.Time
}

func (m *mockTokenRegistry) Current(ctx context.Context) (models.PushToken, error) {
	return m.CurrentFunc(ctx)
}

func (m *mockTokenRegistry) Clear(ctx context.Context) error {
	m.cleared++
	if m.ClearFunc != nil {
		return m.ClearFunc(ctx)
	}
	return nil
}

func (m *mockTokenRegistry) MarkAdminRegistered(ctx context.Context, at time.Time) error {
	m.adminMarks = append(m.adminMarks, at)
	if m.MarkAdminRegisteredFunc != nil {
		return m.MarkAdminRegisteredFunc(ctx, at)
	}
	return nil
}

func TestSyncRegister_NoTokenFailsWithoutBackendCall(t *testing.T) {
	backend := &mockTokenBackend{
		RegisterTokenFunc: func(ctx context.Context, token models.PushToken, identity string) error {
			t.Fatal("no backend call may happen without a token")
			return nil
		},
	}
	registry := &mockTokenRegistry{
		CurrentFunc: func(ctx context.Context) (models.PushToken, error) {
			return models.PushToken{}, nil
		},
	}

	sync := NewSync(backend, registry, logger.NewTestLogger(t))
	err := sync.Register(context.Background(), "kitchen-1", false)

	assert.True(t, errors.HasCode(err, errors.ErrCodeNoToken))
}

func TestSyncRegister_RoutesAdminFlag(t *testing.T) {
	tests := []struct {
		name    string
		isAdmin bool
	}{
		{name: "customer registry", isAdmin: false},
		{name: "admin registry", isAdmin: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var registeredAs *models.PushToken
			backend := &mockTokenBackend{
				RegisterTokenFunc: func(ctx context.Context, token models.PushToken, identity string) error {
					registeredAs = &token
					assert.Equal(t, "kitchen-1", identity)
					return nil
				},
			}
			registry := &mockTokenRegistry{
				CurrentFunc: func(ctx context.Context) (models.PushToken, error) {
					return models.PushToken{Value: "tok", Platform: models.PlatformWeb}, nil
				},
			}

			sync := NewSync(backend, registry, logger.NewTestLogger(t))
			require.NoError(t, sync.Register(context.Background(), "kitchen-1", tt.isAdmin))

			require.NotNil(t, registeredAs)
			assert.Equal(t, tt.isAdmin, registeredAs.IsAdmin)

			if tt.isAdmin {
				assert.Len(t, registry.adminMarks, 1)
			} else {
				assert.Empty(t, registry.adminMarks)
			}
		})
	}
}

func TestSyncRegister_AdminMarkerFailureIsNotFatal(t *testing.T) {
	backend := &mockTokenBackend{
		RegisterTokenFunc: func(ctx context.Context, token models.PushToken, identity string) error {
			return nil
		},
	}
	registry := &mockTokenRegistry{
		CurrentFunc: func(ctx context.Context) (models.PushToken, error) {
			return models.PushToken{Value: "tok", Platform: models.PlatformIOS}, nil
		},
		MarkAdminRegisteredFunc: func(ctx context.Context, at time.Time) error {
			return stderrors.New("store down")
		},
	}

	sync := NewSync(backend, registry, logger.NewTestLogger(t))
	assert.NoError(t, sync.Register(context.Background(), "kitchen-1", true))
}

func TestSyncRegister_BackendRejectionPropagates(t *testing.T) {
	backend := &mockTokenBackend{
		RegisterTokenFunc: func(ctx context.Context, token models.PushToken, identity string) error {
			return errors.NewBackendRejectedError(422, "token malformed")
		},
	}
	registry := &mockTokenRegistry{
		CurrentFunc: func(ctx context.Context) (models.PushToken, error) {
			return models.PushToken{Value: "tok", Platform: models.PlatformWeb}, nil
		},
	}

	sync := NewSync(backend, registry, logger.NewTestLogger(t))
	err := sync.Register(context.Background(), "kitchen-1", false)

	assert.True(t, errors.HasCode(err, errors.ErrCodeBackendRejected))
}

func TestSyncUnregister_ClearsLocallyEvenWhenBackendFails(t *testing.T) {
	backend := &mockTokenBackend{
		UnregisterTokenFunc: func(ctx context.Context, token string) error {
			return stderrors.New("backend unreachable")
		},
	}
	registry := &mockTokenRegistry{
		CurrentFunc: func(ctx context.Context) (models.PushToken, error) {
			return models.PushToken{Value: "tok", Platform: models.PlatformWeb}, nil
		},
	}

	sync := NewSync(backend, registry, logger.NewTestLogger(t))
	require.NoError(t, sync.Unregister(context.Background()))
	assert.Equal(t, 1, registry.cleared, "local state is cleared regardless of the backend outcome")
}

func TestSyncUnregister_NoTokenStillClears(t *testing.T) {
	backend := &mockTokenBackend{
		UnregisterTokenFunc: func(ctx context.Context, token string) error {
			t.Fatal("no backend call without a token")
			return nil
		},
	}
	registry := &mockTokenRegistry{
		CurrentFunc: func(ctx context.Context) (models.PushToken, error) {
			return models.PushToken{}, nil
		},
	}

	sync := NewSync(backend, registry, logger.NewTestLogger(t))
	require.NoError(t, sync.Unregister(context.Background()))
	assert.Equal(t, 1, registry.cleared)
}
