package main

import (
	"context"
	"errors"
	"net"
	"os"

	"trade-ingestor-go/internal/app"
	"trade-ingestor-go/internal/config"
	grpcserver "trade-ingestor-go/internal/grpc"
	"trade-ingestor-go/internal/logger"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv(config.PathEnv))
	if err != nil {
		logger.Fatal(ctx, "Failed to load config", "error", err)
	}

	log, err := logger.Init(cfg.Logger)
	if err != nil {
		logger.Fatal(ctx, "Failed to init logger", "error", err)
	}

	listener, err := net.Listen("tcp", cfg.Stub.ListenAddr)
	if err != nil {
		logger.Fatal(ctx, "Failed to listen", "addr", cfg.Stub.ListenAddr, "error", err)
	}

	server := grpcserver.NewServer(grpcserver.NewSurveillanceServer(log, cfg.Stub.Validate))

	serve := app.ServiceFunc(func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() { errCh <- server.Serve(listener) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			server.GracefulStop()
			return nil
		}
	})

	logger.Info(ctx, "gRPC Server listening", "addr", listener.Addr().String(), "validate", cfg.Stub.Validate)

	err = app.NewApp().WithService(serve).WithService(app.Interrupter{}).Run(ctx)
	if err != nil && !errors.Is(err, app.ErrInterrupted) {
		logger.Fatal(ctx, "Server stopped", "error", err)
	}
	logger.Info(ctx, "Server stopped", "reason", err)
}
