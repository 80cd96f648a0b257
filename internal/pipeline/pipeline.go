package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/thames-conditions-service/internal/domain"
	"github.com/couchcryptid/thames-conditions-service/internal/observability"
)

// NoticeSource scrapes the current closures and river conditions.
type NoticeSource interface {
	Closures(ctx context.Context) ([]domain.Closure, error)
	Conditions(ctx context.Context) ([]domain.Condition, error)
}

// BatchLoader writes multiple output events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.OutputEvent) error
}

// Publisher periodically scrapes notices and writes them downstream.
type Publisher struct {
	source   NoticeSource
	loader   BatchLoader
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	interval time.Duration
	ready    atomic.Bool
}

// New creates a Publisher that runs every interval on clock.
func New(source NoticeSource, loader BatchLoader, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration, clock clockwork.Clock) *Publisher {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Publisher{
		source:   source,
		loader:   loader,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
		interval: interval,
	}
}

// CheckReadiness returns nil once a publish cycle has written notices.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("publisher has not completed a cycle yet")
	}
	return nil
}

// Ready reports whether a publish cycle has succeeded.
func (p *Publisher) Ready() bool {
	return p.ready.Load()
}

// Run publishes immediately and then on every tick until ctx is cancelled.
// Failed cycles are logged and retried on the next tick.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("publisher started", "interval", p.interval)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if ctx.Err() != nil {
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		}
		p.cycle(ctx)

		select {
		case <-ctx.Done():
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

func (p *Publisher) cycle(ctx context.Context) {
	start := p.clock.Now()
	n, err := p.PublishOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish cycle failed", "error", err, "published", n)
		return
	}
	p.logger.Info("publish cycle complete", "published", n, "duration", p.clock.Since(start))
}

// PublishOnce scrapes both pages and writes every row as a notice. A failed
// page does not stop the other from being published; the returned error
// joins all failures.
func (p *Publisher) PublishOnce(ctx context.Context) (int, error) {
	var errs []error

	// A failed page contributes nothing, even if rows came back with the error.
	closures, err := p.source.Closures(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("scrape closures: %w", err))
		closures = nil
	}
	conditions, err := p.source.Conditions(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("scrape conditions: %w", err))
		conditions = nil
	}

	events, err := Transform(closures, conditions)
	if err != nil {
		return 0, errors.Join(append(errs, err)...)
	}

	if len(events) > 0 {
		if err := p.loader.LoadBatch(ctx, events); err != nil {
			errs = append(errs, fmt.Errorf("load notices: %w", err))
			return 0, errors.Join(errs...)
		}
		p.metrics.NoticesPublished.Add(float64(len(events)))
	}

	if len(errs) > 0 {
		return len(events), errors.Join(errs...)
	}
	p.ready.Store(true)
	return len(events), nil
}
