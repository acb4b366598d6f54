package alerts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ScamDunk/internal/domain/repository"
	"ScamDunk/pkg/cache"
	"ScamDunk/pkg/logger"
)

type recordingSink struct {
	mu     sync.Mutex
	alerts []repository.OutageAlert
	err    error
}

func (s *recordingSink) Send(ctx context.Context, alert repository.OutageAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *recordingSink) Name() string { return "recording" }

func (s *recordingSink) received() []repository.OutageAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.OutageAlert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

type countingMetrics struct {
	mu      sync.Mutex
	results map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{results: map[string]int{}}
}

func (m *countingMetrics) RecordAlert(sink, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[sink+"/"+result]++
}

func (m *countingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[key]
}

func (m *countingMetrics) RecordAssessment(source, riskLevel string) {}

func (m *countingMetrics) RecordFallback(reason string) {}

func (m *countingMetrics) RecordHardFailure(apiName string) {}

func (m *countingMetrics) RecordError(kind string) {}

func (m *countingMetrics) RecordLatency(op string, sec float64) {}

type brokenDedup struct{}

func (brokenDedup) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return errors.New("dedup down")
}

func (brokenDedup) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("dedup down")
}

func (brokenDedup) Delete(ctx context.Context, keys ...string) error {
	return errors.New("dedup down")
}

func (brokenDedup) Exists(ctx context.Context, keys ...string) (bool, error) {
	return false, errors.New("dedup down")
}

func (brokenDedup) Increment(ctx context.Context, key string) (int64, error) {
	return 0, errors.New("dedup down")
}

func (brokenDedup) Expire(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	return false, errors.New("dedup down")
}

func (brokenDedup) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, errors.New("dedup down")
}

func (brokenDedup) Unlock(ctx context.Context, key string) error {
	return errors.New("dedup down")
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return log
}

func outage(apiName, ticker string) repository.OutageAlert {
	return repository.OutageAlert{
		APIName:       apiName,
		Ticker:        ticker,
		AssetType:     "stock",
		OriginalError: "rate limit exceeded",
	}
}

func TestDispatchDeliversAndDedups(t *testing.T) {
	sink := &recordingSink{}
	metrics := newCountingMetrics()
	d := NewDispatcher([]repository.AlertSink{sink}, cache.NewMemoryCache(), metrics, testLogger(t), Options{
		DedupWindow: time.Minute,
	})

	// Same outage twice within the window, plus a distinct ticker.
	d.Dispatch(outage("alpha_vantage", "GME"))
	d.Dispatch(outage("alpha_vantage", "GME"))
	d.Dispatch(outage("alpha_vantage", "AMC"))
	d.Close()

	got := sink.received()
	require.Len(t, got, 2, "duplicate within the window must be suppressed")
	assert.Equal(t, "GME", got[0].Ticker)
	assert.Equal(t, "AMC", got[1].Ticker)

	assert.Equal(t, 1, metrics.count("dedup/suppressed"))
	assert.Equal(t, 2, metrics.count("recording/ok"))
}

func TestDispatchBrokenDedupStillDelivers(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher([]repository.AlertSink{sink}, brokenDedup{}, newCountingMetrics(), testLogger(t), Options{})

	d.Dispatch(outage("alpha_vantage", "GME"))
	d.Close()

	require.Len(t, sink.received(), 1, "a broken dedup store must not silence alerts")
}

func TestDispatchSinkErrorDoesNotStopOthers(t *testing.T) {
	failing := &recordingSink{err: errors.New("webhook 500")}
	healthy := &recordingSink{}
	metrics := newCountingMetrics()
	d := NewDispatcher([]repository.AlertSink{failing, healthy}, cache.NewMemoryCache(), metrics, testLogger(t), Options{})

	d.Dispatch(outage("coingecko", "BTC"))
	d.Close()

	require.Len(t, healthy.received(), 1)
	assert.Equal(t, 1, metrics.count("recording/error"))
	assert.Equal(t, 1, metrics.count("recording/ok"))
}

func TestDispatchFullQueueDrops(t *testing.T) {
	// A sink that blocks until released keeps the worker busy so the queue
	// can fill.
	release := make(chan struct{})
	blocking := sinkFunc(func(ctx context.Context, alert repository.OutageAlert) error {
		<-release
		return nil
	})
	metrics := newCountingMetrics()
	d := NewDispatcher([]repository.AlertSink{blocking}, cache.NewMemoryCache(), metrics, testLogger(t), Options{
		QueueSize: 1,
	})

	// First alert occupies the worker, second fills the queue; everything
	// after that must be dropped without blocking.
	d.Dispatch(outage("alpha_vantage", "AAAA"))
	d.Dispatch(outage("alpha_vantage", "BBBB"))
	d.Dispatch(outage("alpha_vantage", "CCCC"))
	d.Dispatch(outage("alpha_vantage", "DDDD"))

	assert.GreaterOrEqual(t, metrics.count("queue/dropped"), 1)

	close(release)
	d.Close()
}

type sinkFunc func(ctx context.Context, alert repository.OutageAlert) error

func (f sinkFunc) Send(ctx context.Context, alert repository.OutageAlert) error { return f(ctx, alert) }

func (f sinkFunc) Name() string { return "blocking" }
