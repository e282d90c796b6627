// internal/alerts/coordinator.go
package alerts

import (
	"context"
	"strconv"
	"sync"

	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/common/metrics"
	"kitchen-hub/internal/feed"
)

// SoundPlayer abstracts the shell's audio output. Play restarts the clip from
// the beginning when it is already playing; the alert never overlaps itself.
type SoundPlayer interface {
	Play(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Refresher is the slice of the feed poller the coordinator pokes when a
// foreground push arrives.
type Refresher interface {
	ForceRefresh()
}

// Coordinator decides when the new-order alert sound actually plays. It
// dedups per order id, so an order alerts at most once no matter how many
// signal paths (poll diff, foreground push) report it.
type Coordinator struct {
	player    SoundPlayer
	refresher Refresher
	logger    logger.Logger

	mu      sync.Mutex
	muted   bool
	alerted map[string]struct{}
}

func NewCoordinator(player SoundPlayer, refresher Refresher, muted bool, log logger.Logger) *Coordinator {
	return &Coordinator{
		player:    player,
		refresher: refresher,
		logger:    log.WithFields(map[string]interface{}{"component": "alerts"}),
		muted:     muted,
		alerted:   make(map[string]struct{}),
	}
}

// SetMuted toggles alert audio. Mute suppresses playback only; detection,
// dedup bookkeeping, and tray notifications are unaffected, so unmuting does
// not replay alerts for orders seen while muted.
func (c *Coordinator) SetMuted(muted bool) {
	c.mu.Lock()
	c.muted = muted
	c.mu.Unlock()
}

// Muted reports the current mute state.
func (c *Coordinator) Muted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// HandleFeedResult consumes one poller tick. It plays the alert exactly once
// per newly seen order id, regardless of how many new ids one tick carries.
func (c *Coordinator) HandleFeedResult(ctx context.Context, result feed.Result) {
	if !result.HasNewOrders {
		return
	}

	c.mu.Lock()
	fresh := make([]string, 0, len(result.NewIDs))
	for _, id := range result.NewIDs {
		if _, seen := c.alerted[id]; seen {
			continue
		}
		c.alerted[id] = struct{}{}
		fresh = append(fresh, id)
	}
	muted := c.muted
	c.mu.Unlock()

	if len(fresh) == 0 {
		return
	}

	metrics.AlertsPlayed.WithLabelValues(strconv.FormatBool(muted)).Inc()
	c.logger.Info("new orders detected", map[string]interface{}{
		"orderIds": fresh,
		"muted":    muted,
	})

	if muted {
		return
	}
	if err := c.player.Play(ctx); err != nil {
		// Audio failure must not disturb the board; the tray notification
		// already carries the signal.
		c.logger.Warn("alert playback failed", map[string]interface{}{"error": err.Error()})
	}
}

// HandlePush records an incoming push and, for foreground delivery, forces an
// immediate feed poll instead of alerting directly. Routing the signal
// through the poller keeps the snapshot diff the single source of truth, so
// a push and the overlapping scheduled poll cannot double-alert.
func (c *Coordinator) HandlePush(foreground bool) {
	metrics.PushesReceived.WithLabelValues(strconv.FormatBool(foreground)).Inc()

	if foreground && c.refresher != nil {
		c.refresher.ForceRefresh()
	}
}
