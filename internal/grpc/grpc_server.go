package grpcserver

import (
	"context"
	"log/slog"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"trade-ingestor-go/internal/models"
	"trade-ingestor-go/internal/surveillancev1"
)

const (
	retainedTrades   = 1000
	subscriberBuffer = 100
	acceptedMessage  = "Processed"
)

// SurveillanceServer is a loopback TradeStream endpoint. It keeps the most
// recent trades and fans accepted trades out to subscribers.
type SurveillanceServer struct {
	surveillancev1.UnimplementedTradeStreamServer

	// Validate rejects batches containing trades that break the model
	// invariants instead of accepting them.
	Validate bool
	Logger   *slog.Logger

	mu          sync.RWMutex
	trades      []models.Trade
	subscribers map[chan models.Trade]struct{}
}

func NewSurveillanceServer(logger *slog.Logger, validate bool) *SurveillanceServer {
	if logger == nil {
		logger = slog.Default()
	}
	return &SurveillanceServer{
		Validate:    validate,
		Logger:      logger,
		trades:      make([]models.Trade, 0, retainedTrades),
		subscribers: make(map[chan models.Trade]struct{}),
	}
}

// NewServer returns a grpc.Server exposing srv and server reflection.
func NewServer(srv surveillancev1.TradeStreamServer, opts ...grpc.ServerOption) *grpc.Server {
	server := grpc.NewServer(opts...)
	surveillancev1.RegisterTradeStreamServer(server, srv)
	reflection.Register(server)
	return server
}

func (server *SurveillanceServer) PublishTrades(ctx context.Context, batch models.Batch) (models.Ack, error) {
	if server.Validate {
		for i, trade := range batch {
			if err := trade.Validate(); err != nil {
				server.Logger.WarnContext(ctx, "[PublishTrades] Rejected batch", "index", i, "error", err)
				return models.Rejected(err.Error()), nil
			}
		}
	}

	server.Logger.InfoContext(ctx, "[PublishTrades] Received batch", "trades", len(batch))

	server.mu.Lock()
	defer server.mu.Unlock()

	for _, trade := range batch {
		if len(server.trades) >= retainedTrades {
			server.trades = server.trades[1:]
		}
		server.trades = append(server.trades, trade)

		for updates := range server.subscribers {
			select {
			case updates <- trade:
			default:
			}
		}
	}

	return models.Accepted(acceptedMessage), nil
}

func (server *SurveillanceServer) Subscribe(stream surveillancev1.TradeStream_SubscribeServer) error {
	updates := make(chan models.Trade, subscriberBuffer)

	server.mu.Lock()
	server.subscribers[updates] = struct{}{}
	server.mu.Unlock()

	defer func() {
		server.mu.Lock()
		delete(server.subscribers, updates)
		server.mu.Unlock()
	}()

	ctx := stream.Context()
	server.Logger.InfoContext(ctx, "[Subscribe] Client connected")

	for {
		select {
		case <-ctx.Done():
			server.Logger.InfoContext(ctx, "[Subscribe] Client disconnected")
			return nil
		case trade := <-updates:
			if err := stream.Send(trade); err != nil {
				server.Logger.WarnContext(ctx, "[Subscribe] Send failed", "error", err)
				return err
			}
		}
	}
}

// Trades returns a copy of the retained trades, oldest first.
func (server *SurveillanceServer) Trades() []models.Trade {
	server.mu.RLock()
	defer server.mu.RUnlock()

	out := make([]models.Trade, len(server.trades))
	copy(out, server.trades)
	return out
}

func (server *SurveillanceServer) Subscribers() int {
	server.mu.RLock()
	defer server.mu.RUnlock()
	return len(server.subscribers)
}
