package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"CatalogHooks/internal/catalog"
)

const (
	OutcomeDelivered = "delivered"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
	OutcomeDropped   = "dropped"

	defaultWorkers = 8
	defaultTimeout = 5 * time.Second
	drainPoll      = 20 * time.Millisecond
)

var ErrBadStatus = errors.New("subscriber returned non-2xx status")

type Config struct {
	Workers int
	Timeout time.Duration
	// RatePerSec caps outbound requests across all workers. Zero means no cap.
	RatePerSec float64
}

// Result describes one delivery attempt. Nothing waits for it; it exists for
// metrics and for tests.
type Result struct {
	Subscriber Subscriber
	Event      string
	StatusCode int
	Err        error
	Duration   time.Duration
}

// Dispatcher fans each catalog event out to every registered subscriber. Each
// subscriber gets one independent POST attempt; failures are counted and
// otherwise dropped.
type Dispatcher struct {
	registry *Registry
	client   *http.Client
	limiter  *rate.Limiter
	workers  int
	log      *zap.Logger
	q        *queue

	deliveries *prometheus.CounterVec

	// OnResult, when set before Start, is called from the worker after every
	// attempt.
	OnResult func(Result)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(registry *Registry, cfg Config, log *zap.Logger, reg prometheus.Registerer) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	limit := rate.Inf
	burst := 0
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
		burst = int(math.Max(1, math.Ceil(cfg.RatePerSec)))
	}

	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Webhook delivery attempts by event and outcome",
	}, []string{"event", "outcome"})
	if reg != nil {
		reg.MustRegister(deliveries)
	}

	return &Dispatcher{
		registry:   registry,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		workers:    cfg.Workers,
		log:        log,
		q:          newQueue(),
		deliveries: deliveries,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cancel != nil {
		return
	}

	wctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(wctx)
	}
	d.log.Info("webhook dispatcher started", zap.Int("workers", d.workers))
}

// Notify enqueues one delivery per current subscriber and returns at once.
func (d *Dispatcher) Notify(ev catalog.Event) {
	subs := d.registry.List()
	if len(subs) == 0 {
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		d.log.Error("encode webhook event", zap.String("event", ev.Name), zap.Error(err))
		return
	}

	batch := make([]delivery, len(subs))
	for i, sub := range subs {
		batch[i] = delivery{sub: sub, event: ev.Name, body: body}
	}

	if !d.q.push(batch...) {
		d.deliveries.WithLabelValues(ev.Name, OutcomeDropped).Add(float64(len(batch)))
		d.log.Warn("webhook intake closed", zap.String("event", ev.Name), zap.Int("subscribers", len(batch)))
	}
}

// Stop refuses new events, waits for queued deliveries until ctx ends, then
// stops the workers. Deliveries still queued at that point are abandoned.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.q.closeIntake()

	var err error
	t := time.NewTicker(drainPoll)
	defer t.Stop()

drain:
	for !d.q.idle() {
		select {
		case <-ctx.Done():
			err = fmt.Errorf("webhook drain: %d deliveries abandoned: %w", d.q.backlogSize(), ctx.Err())
			break drain
		case <-t.C:
		}
	}

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.mu.Unlock()
	d.wg.Wait()

	return err
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		if job, ok := d.q.pop(); ok {
			d.deliver(ctx, job)
			d.q.markDone()
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-d.q.notify:
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, job delivery) {
	start := time.Now()
	res := Result{Subscriber: job.sub, Event: job.event}

	res.StatusCode, res.Err = d.post(ctx, job)
	res.Duration = time.Since(start)

	outcome := OutcomeDelivered
	switch {
	case errors.Is(res.Err, ErrBadStatus):
		outcome = OutcomeRejected
	case res.Err != nil:
		outcome = OutcomeFailed
	}
	d.deliveries.WithLabelValues(job.event, outcome).Inc()

	if res.Err != nil {
		d.log.Debug("webhook delivery failed",
			zap.String("subscriber_id", job.sub.ID),
			zap.String("url", job.sub.URL),
			zap.String("event", job.event),
			zap.Error(res.Err),
		)
	}

	if d.OnResult != nil {
		d.OnResult(res)
	}
}

func (d *Dispatcher) post(ctx context.Context, job delivery) (int, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, job.sub.URL, bytes.NewReader(job.body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}
	return resp.StatusCode, nil
}
