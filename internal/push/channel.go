// internal/push/channel.go
package push

import (
	"context"
	"time"

	"kitchen-hub/internal/common/config"
	"kitchen-hub/internal/common/errors"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"
)

// PermissionPrompter asks the user for notification permission.
type PermissionPrompter interface {
	Request(ctx context.Context) (bool, error)
}

// NativeTransport is the OS push transport on ios/android. Register kicks
// off the asynchronous OS round trip; the outcome arrives on the emitter as
// one of the four typed events.
type NativeTransport interface {
	Register(ctx context.Context) error
	Events() *Emitter
}

// TokenExchanger swaps a raw device token for a delivery-service token.
type TokenExchanger interface {
	Exchange(ctx context.Context, deviceToken string) (string, error)
}

// WorkerRegistration identifies a registered background worker script.
type WorkerRegistration struct {
	Scope string
}

// WorkerRegistrar registers the background worker script on web.
type WorkerRegistrar interface {
	Register(ctx context.Context, script string) (WorkerRegistration, error)
}

// WebTokenSource requests a delivery token scoped to a worker registration.
type WebTokenSource interface {
	Token(ctx context.Context, registration WorkerRegistration, vapidKey string) (string, error)
}

// TokenSaver is the slice of the token registry the channel needs.
type TokenSaver interface {
	Save(ctx context.Context, token models.PushToken) error
}

// Channel produces a deliverable push token for the configured platform.
// It is constructed once by the composition root; all of its mutable state
// lives in the registry it saves to.
type Channel struct {
	cfg       config.PushConfig
	platform  models.Platform
	prompter  PermissionPrompter
	native    NativeTransport
	exchanger TokenExchanger
	registrar WorkerRegistrar
	webTokens WebTokenSource
	registry  TokenSaver
	logger    logger.Logger
}

func NewChannel(
	cfg config.PushConfig,
	prompter PermissionPrompter,
	native NativeTransport,
	exchanger TokenExchanger,
	registrar WorkerRegistrar,
	webTokens WebTokenSource,
	registry TokenSaver,
	log logger.Logger,
) *Channel {
	return &Channel{
		cfg:       cfg,
		platform:  models.Platform(cfg.Platform),
		prompter:  prompter,
		native:    native,
		exchanger: exchanger,
		registrar: registrar,
		webTokens: webTokens,
		registry:  registry,
		logger:    log.WithFields(map[string]interface{}{"component": "push.channel"}),
	}
}

// Events exposes the transport emitter so consumers can subscribe to
// foreground pushes and notification taps. Nil on web, where those signals
// arrive through the worker instead.
func (c *Channel) Events() *Emitter {
	if c.native == nil {
		return nil
	}
	return c.native.Events()
}

// Initialize requests permission, registers the platform channel and returns
// the deliverable token. The token is persisted before Initialize returns,
// so a crash before backend sync still leaves a recoverable token.
func (c *Channel) Initialize(ctx context.Context) (models.PushToken, error) {
	granted, err := c.prompter.Request(ctx)
	if err != nil {
		// The prompt itself failing is a retryable transport problem, not a
		// denial; PERMISSION_DENIED is reserved for the user saying no.
		return models.PushToken{}, errors.NewRegistrationFailedError(err)
	}
	if !granted {
		// No registration side effect may happen past this point.
		return models.PushToken{}, errors.NewPermissionDeniedError("user declined the prompt")
	}

	var value string
	switch c.platform {
	case models.PlatformIOS, models.PlatformAndroid:
		value, err = c.initializeNative(ctx)
	default:
		value, err = c.initializeWeb(ctx)
	}
	if err != nil {
		return models.PushToken{}, err
	}

	token := models.PushToken{
		Value:    value,
		Platform: c.platform,
		IsAdmin:  c.cfg.IsAdmin,
	}
	if err := c.registry.Save(ctx, token); err != nil {
		return models.PushToken{}, err
	}

	c.logger.Info("push channel initialized", map[string]interface{}{
		"platform": c.platform,
	})
	return token, nil
}

// initializeNative composes the transport's independent callback events into
// one awaited outcome: resolve on the first registration event, fail on the
// first error event, ignore everything else.
func (c *Channel) initializeNative(ctx context.Context) (string, error) {
	registered := make(chan string, 1)
	failed := make(chan error, 1)

	unsubReg := c.native.Events().Subscribe(EventRegistration, func(ev Event) {
		select {
		case registered <- ev.Token:
		default:
		}
	})
	defer unsubReg()

	unsubErr := c.native.Events().Subscribe(EventRegistrationError, func(ev Event) {
		select {
		case failed <- ev.Err:
		default:
		}
	})
	defer unsubErr()

	if err := c.native.Register(ctx); err != nil {
		return "", errors.NewRegistrationFailedError(err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.RegisterTimeoutDuration())
	defer cancel()

	var deviceToken string
	select {
	case deviceToken = <-registered:
	case err := <-failed:
		return "", errors.NewRegistrationFailedError(err)
	case <-waitCtx.Done():
		return "", errors.NewRegistrationFailedError(waitCtx.Err())
	}

	return c.exchangeWithFallback(ctx, deviceToken), nil
}

// exchangeWithFallback trades the raw device token for a delivery-service
// token after a bounded propagation delay. On exchange failure the raw
// device token is used instead: degraded delivery beats no delivery, so
// TOKEN_EXCHANGE_FAILED never fails initialization.
func (c *Channel) exchangeWithFallback(ctx context.Context, deviceToken string) string {
	select {
	case <-time.After(c.cfg.ExchangeDelayDuration()):
	case <-ctx.Done():
		return deviceToken
	}

	delivery, err := c.exchanger.Exchange(ctx, deviceToken)
	if err != nil {
		exchangeErr := errors.NewTokenExchangeFailedError(err)
		c.logger.Warn("falling back to raw device token", map[string]interface{}{
			"error": exchangeErr.Error(),
		})
		return deviceToken
	}
	return delivery
}

// initializeWeb registers the worker script and requests a token scoped to
// it. No fallback exists here; any failure fails initialization.
func (c *Channel) initializeWeb(ctx context.Context) (string, error) {
	registration, err := c.registrar.Register(ctx, c.cfg.WorkerScript)
	if err != nil {
		return "", errors.NewRegistrationFailedError(err)
	}

	value, err := c.webTokens.Token(ctx, registration, c.cfg.VAPIDPublicKey)
	if err != nil {
		return "", errors.NewRegistrationFailedError(err)
	}
	return value, nil
}
