package ingestor

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcserver "trade-ingestor-go/internal/grpc"
	"trade-ingestor-go/internal/metrics"
	"trade-ingestor-go/internal/models"
	"trade-ingestor-go/internal/publisher"
	tradegenerator "trade-ingestor-go/internal/trade-generator"
)

const (
	successLine = "msg=published "
	failureLine = `msg="publish failed"`
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func generator(t *testing.T) *tradegenerator.Generator {
	t.Helper()
	gen, err := tradegenerator.New(tradegenerator.DefaultConfig(), rand.NewPCG(3, 4))
	require.NoError(t, err)
	return gen
}

type fakePublisher struct {
	acks    []models.Ack
	batches []models.Batch
}

func (f *fakePublisher) PublishBatch(_ context.Context, batch models.Batch) models.Ack {
	f.batches = append(f.batches, batch)
	ack := f.acks[0]
	if len(f.acks) > 1 {
		f.acks = f.acks[1:]
	}
	return ack
}

func (f *fakePublisher) Close() error { return nil }

type panickingSource struct{}

func (panickingSource) NextBatch(int) models.Batch { panic("out of memory") }

func TestIngestor_RefusedEndpointKeepsTicking(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	pub := publisher.NewGRPCPublisher(publisher.Options{RequestTimeout: time.Second, Logger: quietLogger()})
	require.NoError(t, pub.Connect(addr))
	defer pub.Close()

	logger, buf := bufferLogger()
	ing := New(Config{Interval: 10 * time.Millisecond, MaxTicks: 3}, generator(t), pub, logger, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, ing.Run(ctx))

	assert.Equal(t, 3, strings.Count(buf.String(), failureLine))
	assert.Zero(t, strings.Count(buf.String(), successLine))

	snap := ing.Stats().Snapshot()
	assert.Equal(t, 3, snap.Ticks)
	assert.Equal(t, 3, snap.FailedBatches)
	assert.NotEmpty(t, snap.LastError)
}

func TestIngestor_TenSuccessfulTicks(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	stub := grpcserver.NewSurveillanceServer(quietLogger(), true)
	server := grpcserver.NewServer(stub)
	go func() { _ = server.Serve(lis) }()
	defer server.Stop()

	pub := publisher.NewGRPCPublisher(publisher.Options{RequestTimeout: time.Second, Logger: quietLogger()})
	require.NoError(t, pub.Connect(lis.Addr().String()))
	defer pub.Close()

	m := metrics.New()
	logger, buf := bufferLogger()
	ing := New(Config{Interval: 5 * time.Millisecond, MaxTicks: 10}, generator(t), pub, logger, m)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	require.NoError(t, ing.Run(ctx))

	assert.Equal(t, 10, strings.Count(buf.String(), successLine))
	assert.Zero(t, strings.Count(buf.String(), failureLine))
	assert.Len(t, stub.Trades(), 10)
	assert.Equal(t, 10.0, testutil.ToFloat64(m.Batches.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 10, ing.Stats().Snapshot().Published)
}

func TestIngestor_Tick_LogLine(t *testing.T) {
	fake := &fakePublisher{acks: []models.Ack{models.Accepted("Processed")}}
	logger, buf := bufferLogger()
	ing := New(Config{}, generator(t), fake, logger, nil)

	ack := ing.Tick(context.Background())
	require.True(t, ack.Success)
	require.Len(t, fake.batches, 1)
	require.Len(t, fake.batches[0], 1)

	trade := fake.batches[0][0]
	line := buf.String()
	assert.Equal(t, 1, strings.Count(line, "\n"))
	assert.Contains(t, line, "participant="+trade.ParticipantID)
	assert.Contains(t, line, "side="+string(trade.Side))
	assert.Contains(t, line, "venue="+trade.Venue)
}

func TestIngestor_BatchSize(t *testing.T) {
	fake := &fakePublisher{acks: []models.Ack{models.Accepted("")}}
	ing := New(Config{BatchSize: 4}, generator(t), fake, quietLogger(), nil)

	ing.Tick(context.Background())
	require.Len(t, fake.batches, 1)
	assert.Len(t, fake.batches[0], 4)
	assert.Equal(t, 4, ing.Stats().Snapshot().Published)
}

func TestIngestor_FailureThenSuccess(t *testing.T) {
	fake := &fakePublisher{acks: []models.Ack{
		models.Failed(publisher.ErrNotConnected),
		models.Accepted("Processed"),
	}}
	logger, buf := bufferLogger()
	ing := New(Config{Interval: time.Millisecond, MaxTicks: 3}, generator(t), fake, logger, nil)

	require.NoError(t, ing.Run(context.Background()))

	assert.Len(t, fake.batches, 3)
	assert.Equal(t, 1, strings.Count(buf.String(), failureLine))
	assert.Equal(t, 2, strings.Count(buf.String(), successLine))
}

func TestIngestor_StopsOnCancel(t *testing.T) {
	fake := &fakePublisher{acks: []models.Ack{models.Accepted("")}}
	ing := New(Config{Interval: time.Hour}, generator(t), fake, quietLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ing.Run(ctx) }()

	require.Eventually(t, func() bool { return ing.Stats().Snapshot().Ticks == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

// cancellingPublisher models a shutdown signal arriving mid-publish.
type cancellingPublisher struct {
	cancel context.CancelFunc
}

func (p cancellingPublisher) PublishBatch(ctx context.Context, _ models.Batch) models.Ack {
	p.cancel()
	return models.Failed(ctx.Err())
}

func (cancellingPublisher) Close() error { return nil }

func TestIngestor_Tick_ShutdownNotCounted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	logger, buf := bufferLogger()
	ing := New(Config{}, generator(t), cancellingPublisher{cancel: cancel}, logger, m)

	ack := ing.Tick(ctx)
	require.False(t, ack.Success)

	assert.Equal(t, 1, strings.Count(buf.String(), failureLine))
	snap := ing.Stats().Snapshot()
	assert.Zero(t, snap.Ticks)
	assert.Zero(t, snap.FailedBatches)
	assert.Empty(t, snap.Instruments)
	assert.Zero(t, testutil.ToFloat64(m.Batches.WithLabelValues(metrics.OutcomeFailure)))
	assert.Zero(t, testutil.ToFloat64(m.Ticks))
}

func TestIngestor_UnrecoveredFault(t *testing.T) {
	fake := &fakePublisher{acks: []models.Ack{models.Accepted("")}}
	ing := New(Config{MaxTicks: 1}, panickingSource{}, fake, quietLogger(), nil)

	err := ing.Run(context.Background())
	require.ErrorIs(t, err, ErrUnrecoveredFault)
	assert.Contains(t, err.Error(), "out of memory")
}

func TestStats_WriteReport(t *testing.T) {
	stats := NewStats()
	stats.Record(models.Batch{{Instrument: "BTC-USDT"}, {Instrument: "ETH-USDC"}}, models.Accepted(""))
	stats.Record(models.Batch{{Instrument: "BTC-USDT"}}, models.Rejected("queue full"))

	snap := stats.Snapshot()
	assert.Equal(t, 2, snap.Ticks)
	assert.Equal(t, 2, snap.Published)
	assert.Equal(t, 1, snap.FailedBatches)
	assert.Equal(t, "queue full", snap.LastError)
	assert.Equal(t, InstrumentStats{Published: 1, Failed: 1}, snap.Instruments["BTC-USDT"])

	var out bytes.Buffer
	stats.WriteReport(&out)
	report := out.String()
	assert.Contains(t, report, "BTC-USDT")
	assert.Contains(t, report, "ETH-USDC")
	assert.Less(t, strings.Index(report, "BTC-USDT"), strings.Index(report, "ETH-USDC"))
}
