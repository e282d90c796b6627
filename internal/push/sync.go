// internal/push/sync.go
package push

import (
	"context"
	"time"

	"kitchen-hub/internal/common/errors"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"
)

// TokenBackend is the slice of the backend client used for token sync.
type TokenBackend interface {
	RegisterToken(ctx context.Context, token models.PushToken, identity string) error
	UnregisterToken(ctx context.Context, token string) error
}

// TokenRegistry is the slice of the token registry used for sync.
type TokenRegistry interface {
	Current(ctx context.Context) (models.PushToken, error)
	Clear(ctx context.Context) error
	MarkAdminRegistered(ctx context.Context, at time.Time) error
}

// Sync registers the current token with the order backend. Registration is
// idempotent on the backend side, so calling it on every app foreground is
// safe.
type Sync struct {
	backend  TokenBackend
	registry TokenRegistry
	logger   logger.Logger
	now      func() time.Time
}

func NewSync(backend TokenBackend, registry TokenRegistry, log logger.Logger) *Sync {
	return &Sync{
		backend:  backend,
		registry: registry,
		logger:   log.WithFields(map[string]interface{}{"component": "push.sync"}),
		now:      time.Now,
	}
}

// Register pushes the current token to the backend registry selected by
// isAdmin. Fails with NO_TOKEN when no current or persisted token exists;
// it never attempts a phantom registration.
func (s *Sync) Register(ctx context.Context, identity string, isAdmin bool) error {
	token, err := s.registry.Current(ctx)
	if err != nil {
		return err
	}
	if token.Empty() {
		return errors.NewNoTokenError()
	}

	// Admin vs customer routing must be exact: the backend treats the two
	// registries as distinct notification targets.
	token.IsAdmin = isAdmin

	if err := s.backend.RegisterToken(ctx, token, identity); err != nil {
		return err
	}

	if isAdmin {
		if err := s.registry.MarkAdminRegistered(ctx, s.now()); err != nil {
			s.logger.Warn("admin marker not persisted", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.logger.Info("token registered with backend", map[string]interface{}{
		"identity": identity,
		"isAdmin":  isAdmin,
		"platform": token.Platform,
	})
	return nil
}

// Unregister clears local token state unconditionally. The backend call is
// best effort: a failed or timed-out unregister leaves the backend possibly
// stale but the local session always consistent.
func (s *Sync) Unregister(ctx context.Context) error {
	token, err := s.registry.Current(ctx)
	if err == nil && !token.Empty() {
		if err := s.backend.UnregisterToken(ctx, token.Value); err != nil {
			s.logger.Warn("backend unregister failed, clearing local state anyway", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return s.registry.Clear(ctx)
}
