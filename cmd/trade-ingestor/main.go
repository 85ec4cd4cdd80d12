package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"trade-ingestor-go/internal/app"
	"trade-ingestor-go/internal/config"
	httpserver "trade-ingestor-go/internal/http"
	"trade-ingestor-go/internal/infrastructure/repository"
	"trade-ingestor-go/internal/ingestor"
	"trade-ingestor-go/internal/logger"
	"trade-ingestor-go/internal/metrics"
	"trade-ingestor-go/internal/publisher"
	tradegenerator "trade-ingestor-go/internal/trade-generator"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv(config.PathEnv))
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log, err := logger.Init(cfg.Logger)
	if err != nil {
		slog.Error("Failed to init logger", "error", err)
		os.Exit(1)
	}

	gen, err := newGenerator(cfg.Generator)
	if err != nil {
		logger.Fatal(ctx, "Failed to build trade generator", "error", err)
	}

	pub, target, err := newPublisher(cfg.Publisher, log)
	if err != nil {
		logger.Fatal(ctx, "Failed to connect publisher", "transport", cfg.Publisher.Transport, "error", err)
	}

	m := metrics.New()
	reg, err := metrics.NewRegistry(m)
	if err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}

	ing := ingestor.New(ingestor.Config{
		Interval:  cfg.Ingestor.Interval,
		BatchSize: cfg.Ingestor.BatchSize,
		MaxTicks:  cfg.Ingestor.MaxTicks,
	}, gen, pub, log, m)

	var runErr error
	if cfg.Ingestor.WaitForKey {
		fmt.Printf("Publishing to %s. Press Enter to start...\n", target)
		runErr = waitForEnter(ctx)
	}

	if runErr == nil {
		application := app.NewApp().
			WithService(ing).
			WithService(app.Interrupter{})
		if cfg.HTTP.Enabled {
			application.WithService(httpserver.NewServer(cfg.HTTP.Addr, ing.Stats(), reg, log))
		}

		logger.Info(ctx, "Trade ingestor starting", "target", target, "interval", cfg.Ingestor.Interval)
		runErr = application.Run(ctx)
	}

	if err := pub.Close(); err != nil {
		logger.Warn(ctx, "Failed to close publisher", "error", err)
	}
	ing.Stats().WriteReport(os.Stdout)

	if runErr != nil && !errors.Is(runErr, app.ErrInterrupted) {
		logger.Fatal(ctx, "Trade ingestor stopped", "error", runErr)
	}
	logger.Info(ctx, "Trade ingestor stopped", "reason", runErr)
}

// waitForEnter returns nil once Enter is pressed and an ErrInterrupted error
// when a signal arrives first. An unreadable stdin starts the run.
func waitForEnter(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	go func() { cancel(app.Interrupter{}.Run(ctx)) }()

	err := app.WaitForEnter(ctx, os.Stdin)
	if errors.Is(err, app.ErrInterrupted) {
		return err
	}
	if err != nil {
		logger.Warn(ctx, "Failed to read stdin, starting anyway", "error", err)
	}
	return nil
}

func newGenerator(cfg config.GeneratorConfig) (*tradegenerator.Generator, error) {
	tradeCfg, err := cfg.TradeConfig()
	if err != nil {
		return nil, err
	}

	if cfg.InstrumentsFile != "" {
		catalog, err := repository.LoadInstruments(cfg.InstrumentsFile)
		if err != nil {
			return nil, fmt.Errorf("load instruments: %w", err)
		}
		tradeCfg = tradeCfg.WithCatalog(catalog)
	}

	return tradegenerator.New(tradeCfg, cfg.Source())
}

func newPublisher(cfg config.PublisherConfig, log *slog.Logger) (publisher.Publisher, string, error) {
	switch cfg.Transport {
	case config.TransportKafka:
		pub := publisher.NewKafkaPublisher(publisher.KafkaOptions{
			Topic:          cfg.Kafka.Topic,
			RequestTimeout: cfg.RequestTimeout,
			Logger:         log,
		})
		target := fmt.Sprintf("kafka://%s/%s", strings.Join(cfg.Kafka.Brokers, ","), cfg.Kafka.Topic)
		return pub, target, pub.Connect(cfg.Kafka.Brokers...)
	default:
		pub := publisher.NewGRPCPublisher(publisher.Options{
			RequestTimeout:    cfg.RequestTimeout,
			KeepaliveInterval: cfg.KeepaliveInterval,
			Logger:            log,
		})
		if err := pub.Connect(cfg.Address); err != nil {
			return nil, cfg.Address, err
		}
		return pub, pub.Target(), nil
	}
}
