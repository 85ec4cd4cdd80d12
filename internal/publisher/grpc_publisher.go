package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"

	"trade-ingestor-go/internal/models"
	"trade-ingestor-go/internal/surveillancev1"
)

const DefaultRequestTimeout = 5 * time.Second

type Options struct {
	// RequestTimeout bounds a single PublishBatch call. Zero leaves only the
	// caller's context in charge.
	RequestTimeout time.Duration
	// KeepaliveInterval enables client pings when positive.
	KeepaliveInterval time.Duration
	DialOptions       []grpc.DialOption
	Logger            *slog.Logger
}

// GRPCPublisher owns one client connection to a TradeStream endpoint.
type GRPCPublisher struct {
	opts   Options
	logger *slog.Logger

	mu     sync.Mutex
	conn   *grpc.ClientConn
	client surveillancev1.TradeStreamClient
	target string
	closed bool

	closeOnce sync.Once
	closeErr  error
}

func NewGRPCPublisher(opts Options) *GRPCPublisher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCPublisher{opts: opts, logger: logger}
}

// Connect prepares the connection to address. The connection itself is
// established lazily by the first call, so only a malformed address fails
// here. Calling Connect again on a connected publisher does nothing.
func (p *GRPCPublisher) Connect(address string) error {
	target, err := normalizeAddress(address)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.conn != nil {
		p.logger.Debug("publisher already connected", "target", p.target, "requested", target)
		return nil
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if p.opts.KeepaliveInterval > 0 {
		dialOpts = append(dialOpts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                p.opts.KeepaliveInterval,
			Timeout:             10 * time.Second,
			PermitWithoutStream: true,
		}))
	}
	dialOpts = append(dialOpts, p.opts.DialOptions...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}

	p.conn = conn
	p.client = surveillancev1.NewTradeStreamClient(conn)
	p.target = target
	p.logger.Info("publisher connected", "target", target)
	return nil
}

func (p *GRPCPublisher) Target() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// PublishBatch sends batch and waits for the acknowledgment. Whatever goes
// wrong on the way is reported as a failed Ack.
func (p *GRPCPublisher) PublishBatch(ctx context.Context, batch models.Batch) models.Ack {
	client, err := p.currentClient()
	if err != nil {
		return models.Failed(err)
	}

	if p.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	ack, err := client.PublishTrades(ctx, batch)
	if err != nil {
		p.logger.DebugContext(ctx, "PublishTrades failed",
			"trades", len(batch),
			"duration", time.Since(start),
			"error", err,
		)
		return models.Failed(fmt.Errorf("publish trades: %w", err))
	}

	p.logger.DebugContext(ctx, "PublishTrades acknowledged",
		"trades", len(batch),
		"duration", time.Since(start),
		"success", ack.Success,
	)
	return ack
}

func (p *GRPCPublisher) currentClient() (surveillancev1.TradeStreamClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.client == nil {
		return nil, ErrNotConnected
	}
	return p.client, nil
}

// Close releases the connection once; later calls return the first result.
func (p *GRPCPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		conn := p.conn
		p.closed = true
		p.conn = nil
		p.client = nil
		p.mu.Unlock()

		if conn != nil {
			p.closeErr = conn.Close()
			p.logger.Info("publisher closed", "target", p.target)
		}
	})
	return p.closeErr
}
