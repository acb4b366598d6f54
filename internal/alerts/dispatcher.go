package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ScamDunk/internal/domain/repository"
	"ScamDunk/pkg/cache"
	"ScamDunk/pkg/logger"
)

// Dispatcher delivers outage alerts without ever touching the response
// path: enqueue is non-blocking, delivery happens on a worker goroutine,
// and every failure mode is swallowed after logging.
type Dispatcher struct {
	sinks       []repository.AlertSink
	dedup       cache.Service
	dedupWindow time.Duration
	sendTimeout time.Duration
	queue       chan repository.OutageAlert
	metrics     repository.Metrics
	log         *logger.Logger
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// Options holds dispatcher tunables.
type Options struct {
	QueueSize   int
	DedupWindow time.Duration
	SendTimeout time.Duration
}

func NewDispatcher(sinks []repository.AlertSink, dedup cache.Service, metrics repository.Metrics, log *logger.Logger, opts Options) *Dispatcher {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = 60 * time.Second
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		sinks:       sinks,
		dedup:       dedup,
		dedupWindow: opts.DedupWindow,
		sendTimeout: opts.SendTimeout,
		queue:       make(chan repository.OutageAlert, opts.QueueSize),
		metrics:     metrics,
		log:         log,
		cancel:      cancel,
	}

	d.wg.Add(1)
	go d.worker(ctx)
	return d
}

// Dispatch enqueues an alert. It never blocks: a full queue drops the alert
// with a log line instead of stalling a request.
func (d *Dispatcher) Dispatch(alert repository.OutageAlert) {
	select {
	case d.queue <- alert:
	default:
		d.log.Warn("alert queue full, dropping alert",
			logger.String("api_name", alert.APIName),
			logger.String("ticker", alert.Ticker),
		)
		d.metrics.RecordAlert("queue", "dropped")
	}
}

// Close stops the worker after draining queued alerts.
func (d *Dispatcher) Close() {
	close(d.queue)
	d.wg.Wait()
	d.cancel()
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("alert worker panicked", logger.Any("panic", r))
		}
	}()

	for alert := range d.queue {
		d.deliver(ctx, alert)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, alert repository.OutageAlert) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	key := fmt.Sprintf("alerts:%s:%s", alert.APIName, alert.Ticker)
	acquired, err := d.dedup.TryLock(sendCtx, key, d.dedupWindow)
	if err != nil {
		// A broken dedup store must not silence alerts; deliver anyway.
		d.log.Warn("alert dedup unavailable", logger.Error(err))
	} else if !acquired {
		d.log.Debug("alert suppressed by dedup window",
			logger.String("api_name", alert.APIName),
			logger.String("ticker", alert.Ticker),
		)
		d.metrics.RecordAlert("dedup", "suppressed")
		return
	}

	for _, sink := range d.sinks {
		if err := sink.Send(sendCtx, alert); err != nil {
			d.log.Error("alert delivery failed",
				logger.String("sink", sink.Name()),
				logger.String("api_name", alert.APIName),
				logger.String("ticker", alert.Ticker),
				logger.Error(err),
			)
			d.metrics.RecordAlert(sink.Name(), "error")
			continue
		}
		d.metrics.RecordAlert(sink.Name(), "ok")
	}
}
