// internal/feed/poller_test.go
package feed

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"kitchen-hub/internal/common/logger"
	"kitchen-hub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedSource struct {
	mu        sync.Mutex
	responses []func() ([]models.Order, error)
	calls     int
}

func (s *scriptedSource) Orders(ctx context.Context) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.responses) {
		return nil, stderrors.New("unexpected extra poll")
	}
	response := s.responses[s.calls]
	s.calls++
	return response()
}

func ordersWithIDs(ids ...string) func() ([]models.Order, error) {
	return func() ([]models.Order, error) {
		orders := make([]models.Order, 0, len(ids))
		for _, id := range ids {
			orders = append(orders, models.Order{ID: id, Status: models.StatusPending})
		}
		return orders, nil
	}
}

func pollError(msg string) func() ([]models.Order, error) {
	return func() ([]models.Order, error) { return nil, stderrors.New(msg) }
}

type resultCollector struct {
	mu      sync.Mutex
	results []Result
}

func (c *resultCollector) consume(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, r)
}

func (c *resultCollector) all() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Result(nil), c.results...)
}

func TestPoller_SnapshotDiffSequence(t *testing.T) {
	source := &scriptedSource{responses: []func() ([]models.Order, error){
		ordersWithIDs("1", "2", "3"),
		ordersWithIDs("1", "2", "3", "4"),
		pollError("backend down"),
		ordersWithIDs("1", "2", "3", "4", "5"),
	}}
	collector := &resultCollector{}
	poller := NewPoller(source, time.Hour, collector.consume, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	// First snapshot is a baseline: three orders appear, nothing is "new".
	poller.tick(ctx)
	results := collector.all()
	require.Len(t, results, 1)
	assert.False(t, results[0].HasNewOrders)
	assert.Len(t, results[0].Orders, 3)
	assert.Equal(t, HealthConnected, poller.Health())

	// Order 4 arrives.
	poller.tick(ctx)
	results = collector.all()
	require.Len(t, results, 2)
	assert.True(t, results[1].HasNewOrders)
	assert.Equal(t, []string{"4"}, results[1].NewIDs)

	// A failed poll degrades health and keeps the snapshot.
	poller.tick(ctx)
	assert.Equal(t, HealthError, poller.Health())
	assert.ElementsMatch(t, []string{"1", "2", "3", "4"}, poller.Snapshot())
	results = collector.all()
	require.Len(t, results, 3)
	assert.Equal(t, HealthError, results[2].Health)
	assert.False(t, results[2].HasNewOrders)

	// Recovery: the retained snapshot still detects order 5 as new.
	poller.tick(ctx)
	assert.Equal(t, HealthConnected, poller.Health())
	results = collector.all()
	require.Len(t, results, 4)
	assert.True(t, results[3].HasNewOrders)
	assert.Equal(t, []string{"5"}, results[3].NewIDs)
}

func TestPoller_BaselineWithNoOrders(t *testing.T) {
	source := &scriptedSource{responses: []func() ([]models.Order, error){
		ordersWithIDs(),
		ordersWithIDs("1"),
	}}
	collector := &resultCollector{}
	poller := NewPoller(source, time.Hour, collector.consume, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	poller.tick(ctx)
	poller.tick(ctx)

	results := collector.all()
	require.Len(t, results, 2)
	// An empty previous snapshot never alerts, even for genuinely new ids:
	// there is no baseline to be new against.
	assert.False(t, results[1].HasNewOrders)
	assert.Equal(t, []string{"1"}, results[1].NewIDs)
}

func TestPoller_RemovedOrdersAreNotNews(t *testing.T) {
	source := &scriptedSource{responses: []func() ([]models.Order, error){
		ordersWithIDs("1", "2", "3"),
		ordersWithIDs("1"),
		ordersWithIDs("1", "2"),
	}}
	collector := &resultCollector{}
	poller := NewPoller(source, time.Hour, collector.consume, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	poller.tick(ctx)
	poller.tick(ctx)
	results := collector.all()
	assert.False(t, results[1].HasNewOrders, "completed orders disappearing is not news")

	// Order 2 coming back counts as new; the snapshot forgot it.
	poller.tick(ctx)
	results = collector.all()
	assert.True(t, results[2].HasNewOrders)
	assert.Equal(t, []string{"2"}, results[2].NewIDs)
}

func TestPoller_StartStop(t *testing.T) {
	source := &scriptedSource{responses: []func() ([]models.Order, error){
		ordersWithIDs("1"),
		ordersWithIDs("1"),
		ordersWithIDs("1"),
	}}
	collector := &resultCollector{}
	poller := NewPoller(source, time.Hour, collector.consume, nil, logger.NewTestLogger(t))

	poller.Start(context.Background())

	require.Eventually(t, func() bool {
		return len(collector.all()) >= 1
	}, 2*time.Second, 10*time.Millisecond, "immediate first poll")

	poller.Stop()
	poller.Stop() // idempotent

	ticks := len(collector.all())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, ticks, len(collector.all()), "no ticks after Stop")
}

func TestPoller_ForceRefresh(t *testing.T) {
	source := &scriptedSource{responses: []func() ([]models.Order, error){
		ordersWithIDs("1"),
		ordersWithIDs("1", "2"),
	}}
	collector := &resultCollector{}
	poller := NewPoller(source, time.Hour, collector.consume, nil, logger.NewTestLogger(t))

	poller.Start(context.Background())
	defer poller.Stop()

	require.Eventually(t, func() bool {
		return len(collector.all()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	poller.ForceRefresh()
	require.Eventually(t, func() bool {
		return len(collector.all()) >= 2
	}, 2*time.Second, 10*time.Millisecond, "forced refresh polls without waiting for the interval")

	results := collector.all()
	assert.True(t, results[1].HasNewOrders)
}

func TestPoller_ConsumerGetsACopy(t *testing.T) {
	source := &scriptedSource{responses: []func() ([]models.Order, error){
		ordersWithIDs("1", "2"),
		ordersWithIDs("1", "2"),
	}}

	var captured []models.Order
	poller := NewPoller(source, time.Hour, func(r Result) {
		captured = r.Orders
	}, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	poller.tick(ctx)
	captured[0].ID = "tampered"

	poller.tick(ctx)
	assert.ElementsMatch(t, []string{"1", "2"}, poller.Snapshot(), "consumer mutation cannot corrupt the snapshot")
}
