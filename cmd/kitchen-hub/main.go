// cmd/kitchen-hub/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kitchen-hub/internal/alerts"
	"kitchen-hub/internal/backend"
	"kitchen-hub/internal/common/config"
	"kitchen-hub/internal/common/database"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/common/observability"
	"kitchen-hub/internal/feed"
	"kitchen-hub/internal/gesture"
	"kitchen-hub/internal/models"
	"kitchen-hub/internal/push"
	"kitchen-hub/internal/status"
	"kitchen-hub/internal/tokens"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting kitchen hub agent...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("kitchen-hub")
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init PostgreSQL (optional, transition journal only) ---
	// Recorder stays a nil interface when no journal exists; wrapping a nil
	// *Journal would defeat the machine's nil check.
	var recorder status.Recorder
	if cfg.Database.Postgres.Host != "" {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		journal := status.NewJournal(pg.GetDB(), log)
		if err := journal.Migrate(ctx); err != nil {
			zapLog.Fatal("journal migration failed", zap.Error(err))
		}
		recorder = journal
		zapLog.Info("PostgreSQL connected, transition journal ready")
	} else {
		zapLog.Info("No postgres host configured, transition journal disabled")
	}

	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout(), cfg.Feed.FetchLimit, log)
	registry := tokens.NewRegistry(redis, log)

	// --- Push channel ---
	// Web installs register their worker script and token inside the shell;
	// the agent only handles the kiosk (native) path, where the device token
	// comes from provisioning instead of an interactive OS round trip.
	var channel *push.Channel
	platform := models.Platform(cfg.Push.Platform)
	if (platform == models.PlatformIOS || platform == models.PlatformAndroid) && cfg.Push.DeviceToken != "" {
		exchanger, err := push.NewSNSExchanger(ctx, cfg.Push.AWS, platform, log)
		if err != nil {
			zapLog.Fatal("sns exchanger init failed", zap.Error(err))
		}

		transport := newProvisionedTransport(cfg.Push.DeviceToken, log)
		channel = push.NewChannel(cfg.Push, grantedPrompter{}, transport, exchanger, nil, nil, registry, log)

		if _, err := channel.Initialize(ctx); err != nil {
			// A push-less board still shows orders via polling.
			zapLog.Warn("push channel initialization failed, continuing without push", zap.Error(err))
			channel = nil
		}
	} else {
		zapLog.Info("push channel not initialized by the agent",
			zap.String("platform", cfg.Push.Platform))
	}

	syncer := push.NewSync(backendClient, registry, log)
	if channel != nil {
		if err := syncer.Register(ctx, cfg.Backend.Identity, cfg.Push.IsAdmin); err != nil {
			zapLog.Warn("token sync with backend failed", zap.Error(err))
		}
	}

	// --- Feed, alerts, status ---
	player := alerts.NewCommandPlayer("paplay", cfg.Alerts.SoundFile, log)

	var poller *feed.Poller
	coordinator := alerts.NewCoordinator(player, refresherFunc(func() {
		poller.ForceRefresh()
	}), cfg.Alerts.Muted, log)

	poller = feed.NewPoller(backendClient, cfg.Feed.IntervalDuration(), func(result feed.Result) {
		coordinator.HandleFeedResult(ctx, result)
	}, obs, log)

	machine := status.NewMachine(backendClient, recorder, poller, log)
	interpreter := gesture.NewInterpreter()

	if channel != nil && channel.Events() != nil {
		channel.Events().Subscribe(push.EventPushReceived, func(push.Event) {
			coordinator.HandlePush(true)
		})
	}

	poller.Start(ctx)
	zapLog.Info("Order feed poller started",
		zap.Duration("interval", cfg.Feed.IntervalDuration()))

	// --- Control, health & metrics server ---
	go func() {
		mux := http.NewServeMux()

		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"feed":   string(poller.Health()),
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Local control surface for the display shell.
		mux.HandleFunc("/control/refresh", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			poller.ForceRefresh()
			w.WriteHeader(http.StatusAccepted)
		})
		mux.HandleFunc("/control/mute", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			var body struct {
				Muted bool `json:"muted"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			coordinator.SetMuted(body.Muted)
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("/control/orders/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			orderID := strings.TrimPrefix(r.URL.Path, "/control/orders/")
			orderID = strings.TrimSuffix(orderID, "/status")
			if orderID == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			var body struct {
				From   string `json:"from"`
				To     string `json:"to"`
				Origin string `json:"origin"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			origin := status.Origin(body.Origin)
			if origin != status.OriginGesture {
				origin = status.OriginAction
			}

			intent := status.NewIntent(orderID, models.Status(body.From), models.Status(body.To), origin)
			order, err := machine.Commit(r.Context(), intent)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(order)
		})

		// Swipe gestures from the display shell drive the interpreter; a
		// committed release carries its intent straight into the machine.
		mux.HandleFunc("/control/gesture/begin", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			var body struct {
				OrderID string `json:"orderId"`
				Status  string `json:"status"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.OrderID == "" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			interpreter.Begin(body.OrderID, models.Status(body.Status))
			w.WriteHeader(http.StatusOK)
		})
		mux.HandleFunc("/control/gesture/move", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			var body struct {
				DX float64 `json:"dx"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			interpreter.Move(body.DX)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]float64{
				"offset":  interpreter.Offset(),
				"opacity": interpreter.Opacity(),
			})
		})
		mux.HandleFunc("/control/gesture/release", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			intent, outcome := interpreter.Release()
			w.Header().Set("Content-Type", "application/json")
			if outcome == gesture.OutcomeReverted {
				json.NewEncoder(w).Encode(map[string]string{"outcome": string(outcome)})
				return
			}

			order, err := machine.Commit(r.Context(), intent)
			if err != nil {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"outcome": string(outcome),
				"order":   order,
			})
		})
		mux.HandleFunc("/control/gesture/cancel", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			interpreter.Cancel()
			w.WriteHeader(http.StatusOK)
		})

		mux.Handle("/metrics", promhttp.Handler())

		address := cfg.Metrics.Address
		if address == "" {
			address = ":9102"
		}
		zapLog.Info("Control/Metrics server listening", zap.String("address", address))
		if err := http.ListenAndServe(address, mux); err != nil {
			zapLog.Error("Control/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping poller...")
	poller.Stop()
	cancel()

	zapLog.Info("Kitchen hub agent stopped gracefully")
}

// grantedPrompter answers the permission prompt affirmatively. Kiosk devices
// are provisioned with notification permission at install time.
type grantedPrompter struct{}

func (grantedPrompter) Request(ctx context.Context) (bool, error) {
	return true, nil
}

// provisionedTransport stands in for the OS push transport on kiosk hardware:
// Register emits the provisioned device token instead of running an
// interactive registration round trip.
type provisionedTransport struct {
	emitter *push.Emitter
	token   string
}

func newProvisionedTransport(token string, log logger.Logger) *provisionedTransport {
	return &provisionedTransport{
		emitter: push.NewEmitter(log),
		token:   token,
	}
}

func (t *provisionedTransport) Register(ctx context.Context) error {
	go t.emitter.Emit(push.Event{Type: push.EventRegistration, Token: t.token})
	return nil
}

func (t *provisionedTransport) Events() *push.Emitter {
	return t.emitter
}

// refresherFunc lets a closure satisfy the alerts.Refresher interface.
type refresherFunc func()

func (f refresherFunc) ForceRefresh() { f() }
