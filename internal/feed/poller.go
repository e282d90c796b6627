// internal/feed/poller.go
package feed

import (
	"context"
	"sync"
	"time"

	"kitchen-hub/internal/common/errors"
	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/common/metrics"
	"kitchen-hub/internal/common/observability"
	"kitchen-hub/internal/models"
)

// Health is the tri-state connection signal the poller maintains. It reflects
// the last poll outcome only; it says nothing about order data freshness.
type Health string

const (
	HealthConnected Health = "connected"
	HealthChecking  Health = "checking"
	HealthError     Health = "error"
)

func healthGaugeValue(h Health) float64 {
	switch h {
	case HealthConnected:
		return 2
	case HealthChecking:
		return 1
	default:
		return 0
	}
}

// OrderSource fetches the current order list.
type OrderSource interface {
	Orders(ctx context.Context) ([]models.Order, error)
}

// Result is what one completed tick hands to the consumer. Orders and NewIDs
// are copies; the poller retains sole ownership of its snapshot.
type Result struct {
	Orders       []models.Order
	NewIDs       []string
	HasNewOrders bool
	Health       Health
}

// Consumer receives tick results on the poller goroutine.
type Consumer func(Result)

// Poller periodically fetches the order list and diffs identifier sets
// against the previous snapshot ("smart refresh"). Poll failures degrade the
// health signal and never stop the loop.
type Poller struct {
	source   OrderSource
	interval time.Duration
	consumer Consumer
	logger   logger.Logger
	obs      *observability.Observability

	mu       sync.RWMutex
	previous map[string]struct{}
	health   Health

	kick     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewPoller(source OrderSource, interval time.Duration, consumer Consumer, obs *observability.Observability, log logger.Logger) *Poller {
	return &Poller{
		source:   source,
		interval: interval,
		consumer: consumer,
		logger:   log.WithFields(map[string]interface{}{"component": "feed"}),
		obs:      obs,
		previous: nil, // first observed snapshot is a baseline, not news
		health:   HealthChecking,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the polling loop. Ticks run sequentially on one goroutine,
// so a slow tick suppresses the next timer fire instead of racing it.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ticker.C:
			p.tick(ctx)
		case <-p.kick:
			p.tick(ctx)
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop cancels the timer and waits for the loop goroutine to exit. Safe to
// call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
	})
	<-p.done
}

// ForceRefresh requests an immediate tick, used when a foreground push makes
// waiting for the next interval pointless. Coalesces when a request is
// already pending.
func (p *Poller) ForceRefresh() {
	select {
	case p.kick <- struct{}{}:
	default:
	}
}

// Health returns the current connection health signal.
func (p *Poller) Health() Health {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

// Snapshot returns a copy of the current order-id snapshot.
func (p *Poller) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.previous))
	for id := range p.previous {
		ids = append(ids, id)
	}
	return ids
}

func (p *Poller) tick(ctx context.Context) {
	p.setHealth(HealthChecking)

	start := time.Now()
	orders, err := p.source.Orders(ctx)
	if err != nil {
		// Swallowed by contract: the board must keep functioning, so a poll
		// failure surfaces only through the health signal. Previous snapshot
		// is retained unchanged.
		p.setHealth(HealthError)
		metrics.FeedPollsTotal.WithLabelValues("error").Inc()
		if p.obs != nil {
			p.obs.RecordPollDuration(ctx, time.Since(start), "error")
		}
		p.logger.Warn("poll failed", map[string]interface{}{
			"error": errors.NewPollFailureError(err).Error(),
		})

		if p.consumer != nil {
			p.consumer(Result{Health: HealthError})
		}
		return
	}

	current := make(map[string]struct{}, len(orders))
	for _, order := range orders {
		current[order.ID] = struct{}{}
	}

	p.mu.Lock()
	newIDs := make([]string, 0)
	for id := range current {
		if _, seen := p.previous[id]; !seen {
			newIDs = append(newIDs, id)
		}
	}
	hasNew := len(p.previous) > 0 && len(newIDs) > 0
	p.previous = current
	p.health = HealthConnected
	p.mu.Unlock()
	metrics.FeedHealth.Set(healthGaugeValue(HealthConnected))

	metrics.FeedPollsTotal.WithLabelValues("success").Inc()
	if hasNew {
		metrics.FeedNewOrdersDetected.Add(float64(len(newIDs)))
	}
	if p.obs != nil {
		p.obs.RecordPollDuration(ctx, time.Since(start), "success")
	}

	if p.consumer != nil {
		result := Result{
			Orders:       append([]models.Order(nil), orders...),
			NewIDs:       newIDs,
			HasNewOrders: hasNew,
			Health:       HealthConnected,
		}
		p.consumer(result)
	}
}

func (p *Poller) setHealth(h Health) {
	p.mu.Lock()
	p.health = h
	p.mu.Unlock()
	metrics.FeedHealth.Set(healthGaugeValue(h))
}
