package ingestor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"trade-ingestor-go/internal/metrics"
	"trade-ingestor-go/internal/models"
	"trade-ingestor-go/internal/publisher"
)

const DefaultInterval = time.Second

// ErrUnrecoveredFault wraps a panic that escaped a tick.
var ErrUnrecoveredFault = errors.New("unrecovered fault in publish loop")

type TradeSource interface {
	NextBatch(n int) models.Batch
}

type Config struct {
	Interval  time.Duration
	BatchSize int
	// MaxTicks stops the loop after that many ticks; zero runs until the
	// context is cancelled.
	MaxTicks int
}

// Ingestor drives the generate, publish, log cycle. Ticks never overlap: the
// wait for the next one starts after the previous outcome is known.
type Ingestor struct {
	cfg       Config
	source    TradeSource
	publisher publisher.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	stats     *Stats
}

func New(cfg Config, source TradeSource, pub publisher.Publisher, logger *slog.Logger, m *metrics.Metrics) *Ingestor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		cfg:       cfg,
		source:    source,
		publisher: pub,
		logger:    logger,
		metrics:   m,
		stats:     NewStats(),
	}
}

func (i *Ingestor) Stats() *Stats {
	return i.stats
}

func (i *Ingestor) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrUnrecoveredFault, r)
		}
	}()

	i.logger.InfoContext(ctx, "publish loop started", "interval", i.cfg.Interval, "batch_size", i.cfg.BatchSize)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for ticks := 0; i.cfg.MaxTicks == 0 || ticks < i.cfg.MaxTicks; ticks++ {
		select {
		case <-ctx.Done():
			i.logger.InfoContext(ctx, "publish loop stopped", "ticks", ticks)
			return nil
		case <-timer.C:
		}

		i.Tick(ctx)
		timer.Reset(i.cfg.Interval)
	}

	i.logger.InfoContext(ctx, "publish loop finished", "ticks", i.cfg.MaxTicks)
	return nil
}

// Tick publishes one batch and writes exactly one log line for it.
func (i *Ingestor) Tick(ctx context.Context) models.Ack {
	batch := i.source.NextBatch(i.cfg.BatchSize)

	start := time.Now()
	ack := i.publisher.PublishBatch(ctx, batch)
	elapsed := time.Since(start)

	// A publish cut short by shutdown is logged but not counted.
	if ctx.Err() == nil {
		i.stats.Record(batch, ack)
		i.metrics.ObservePublish(instruments(batch), ack.Success, elapsed)
	}

	if !ack.Success {
		i.logger.WarnContext(ctx, "publish failed",
			"message", ack.Message,
			"trades", len(batch),
		)
		return ack
	}

	last := batch[len(batch)-1]
	i.logger.InfoContext(ctx, "published",
		"participant", last.ParticipantID,
		"side", last.Side,
		"quantity", fmt.Sprintf("%.4f", last.Quantity),
		"venue", last.Venue,
		"instrument", last.Instrument,
		"trades", len(batch),
	)
	return ack
}

func instruments(batch models.Batch) []string {
	out := make([]string, 0, len(batch))
	for _, trade := range batch {
		out = append(out, trade.Instrument)
	}
	return out
}
