// internal/tokens/registry.go
package tokens

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"kitchen-hub/internal/common/errors"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"

	"github.com/redis/go-redis/v9"
)

// Fixed storage keys. These names are a stable contract with existing
// installs; renaming them orphans persisted tokens.
const (
	KeyToken             = "kds:push_token"
	KeyPlatform          = "kds:push_platform"
	KeyAdminRegisteredAt = "kds:admin_token_registered_at"
)

// Store is the slice of the Redis client the registry needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Registry owns the current push token. No other component mutates token
// state; everyone else receives copies.
type Registry struct {
	store  Store
	logger logger.Logger

	mu      sync.RWMutex
	current models.PushToken
}

func NewRegistry(store Store, log logger.Logger) *Registry {
	return &Registry{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "tokens"}),
	}
}

// Save records token as current and persists it immediately, so a crash
// between channel initialization and backend sync still leaves a locally
// recoverable token. The in-memory copy is set only after persistence
// succeeds.
func (r *Registry) Save(ctx context.Context, token models.PushToken) error {
	if err := r.store.Set(ctx, KeyToken, token.Value, 0); err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	if err := r.store.Set(ctx, KeyPlatform, string(token.Platform), 0); err != nil {
		return errors.NewStoreUnavailableError(err)
	}

	r.mu.Lock()
	r.current = token
	r.mu.Unlock()

	r.logger.Info("push token persisted", map[string]interface{}{
		"platform": token.Platform,
		"isAdmin":  token.IsAdmin,
	})
	return nil
}

// Current returns the session token, falling back to the persisted one from
// a previous session. A zero-value token means none exists.
func (r *Registry) Current(ctx context.Context) (models.PushToken, error) {
	r.mu.RLock()
	current := r.current
	r.mu.RUnlock()

	if !current.Empty() {
		return current, nil
	}

	value, err := r.store.Get(ctx, KeyToken)
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return models.PushToken{}, nil
		}
		return models.PushToken{}, errors.NewStoreUnavailableError(err)
	}

	platform, err := r.store.Get(ctx, KeyPlatform)
	if err != nil && !stderrors.Is(err, redis.Nil) {
		return models.PushToken{}, errors.NewStoreUnavailableError(err)
	}

	token := models.PushToken{Value: value, Platform: models.Platform(platform)}

	r.mu.Lock()
	r.current = token
	r.mu.Unlock()

	return token, nil
}

// Clear wipes token state. The in-memory copy goes first and unconditionally;
// a failing store delete leaves the session consistent even if stale keys
// survive until the next Save.
func (r *Registry) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.current = models.PushToken{}
	r.mu.Unlock()

	if err := r.store.Del(ctx, KeyToken, KeyPlatform, KeyAdminRegisteredAt); err != nil {
		r.logger.Warn("token keys not deleted from store", map[string]interface{}{
			"error": err.Error(),
		})
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

// MarkAdminRegistered records when the operator token was last synced to the
// backend's admin registry.
func (r *Registry) MarkAdminRegistered(ctx context.Context, at time.Time) error {
	if err := r.store.Set(ctx, KeyAdminRegisteredAt, at.UTC().Format(time.RFC3339), 0); err != nil {
		return errors.NewStoreUnavailableError(err)
	}
	return nil
}

// AdminRegisteredAt returns the last admin sync time, or zero if never synced.
func (r *Registry) AdminRegisteredAt(ctx context.Context) (time.Time, error) {
	value, err := r.store.Get(ctx, KeyAdminRegisteredAt)
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, errors.NewStoreUnavailableError(err)
	}

	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, nil
	}
	return at, nil
}
