package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"trade-ingestor-go/internal/models"
)

var ErrNoTopic = errors.New("kafka topic is empty")

type KafkaOptions struct {
	Topic          string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// KafkaPublisher writes each trade of a batch as a JSON message keyed by
// instrument. Writes are attempted once.
type KafkaPublisher struct {
	opts   KafkaOptions
	logger *slog.Logger

	mu     sync.Mutex
	writer *kafka.Writer
	closed bool

	closeOnce sync.Once
	closeErr  error
}

func NewKafkaPublisher(opts KafkaOptions) *KafkaPublisher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{opts: opts, logger: logger}
}

func (p *KafkaPublisher) Connect(brokers ...string) error {
	if p.opts.Topic == "" {
		return ErrNoTopic
	}
	if len(brokers) == 0 {
		return fmt.Errorf("%w: no brokers", ErrInvalidAddress)
	}

	addrs := make([]string, 0, len(brokers))
	for _, broker := range brokers {
		addr, err := normalizeAddress(broker)
		if err != nil {
			return err
		}
		addrs = append(addrs, addr)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.writer != nil {
		return nil
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(addrs...),
		Topic:                  p.opts.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		MaxAttempts:            1,
		BatchTimeout:           10 * time.Millisecond,
	}
	if p.opts.RequestTimeout > 0 {
		writer.WriteTimeout = p.opts.RequestTimeout
		writer.ReadTimeout = p.opts.RequestTimeout
	}

	p.writer = writer
	p.logger.Info("kafka publisher connected", "brokers", addrs, "topic", p.opts.Topic)
	return nil
}

func (p *KafkaPublisher) PublishBatch(ctx context.Context, batch models.Batch) models.Ack {
	writer, err := p.currentWriter()
	if err != nil {
		return models.Failed(err)
	}

	messages := make([]kafka.Message, 0, len(batch))
	for _, trade := range batch {
		value, err := json.Marshal(trade)
		if err != nil {
			return models.Failed(fmt.Errorf("marshal trade %s: %w", trade.OrderID, err))
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(trade.Instrument),
			Value: value,
		})
	}

	if p.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.RequestTimeout)
		defer cancel()
	}

	if err := writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.DebugContext(ctx, "kafka write failed", "topic", p.opts.Topic, "count", len(messages), "error", err)
		return models.Failed(fmt.Errorf("write messages: %w", err))
	}

	return models.Accepted(fmt.Sprintf("wrote %d trades to %s", len(messages), p.opts.Topic))
}

func (p *KafkaPublisher) currentWriter() (*kafka.Writer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.writer == nil {
		return nil, ErrNotConnected
	}
	return p.writer, nil
}

func (p *KafkaPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		writer := p.writer
		p.closed = true
		p.writer = nil
		p.mu.Unlock()

		if writer != nil {
			p.closeErr = writer.Close()
		}
	})
	return p.closeErr
}
