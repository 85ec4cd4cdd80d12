package tradegenerator

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trade-ingestor-go/internal/models"
)

func newSeeded(t *testing.T, cfg Config, opts ...Option) *Generator {
	t.Helper()
	gen, err := New(cfg, rand.NewPCG(42, 7), opts...)
	require.NoError(t, err)
	return gen
}

func TestGenerator_Invariants(t *testing.T) {
	gen := newSeeded(t, DefaultConfig())

	orderIDs := make(map[string]struct{}, 1000)
	execIDs := make(map[string]struct{}, 1000)

	for i := 0; i < 1000; i++ {
		trade := gen.Next()

		require.NoError(t, trade.Validate())
		assert.Greater(t, trade.Price, 0.0)
		assert.Greater(t, trade.Quantity, 0.0)
		assert.Contains(t, []models.Side{models.Buy, models.Sell}, trade.Side)
		assert.NotEmpty(t, trade.OrderID)
		assert.NotEmpty(t, trade.ExecutionID)
		assert.NotEqual(t, trade.OrderID, trade.ExecutionID)

		orderIDs[trade.OrderID] = struct{}{}
		execIDs[trade.ExecutionID] = struct{}{}
	}

	assert.Len(t, orderIDs, 1000)
	assert.Len(t, execIDs, 1000)
}

func TestGenerator_SingleCandidateScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Instruments = []string{"BTC-USDT"}
	cfg.Participants = []string{"CEX-ALICE"}
	cfg.Sides = []models.Side{models.Buy}

	trade := newSeeded(t, cfg).Next()

	assert.Equal(t, "BTC-USDT", trade.Instrument)
	assert.Equal(t, "CEX-ALICE", trade.ParticipantID)
	assert.Equal(t, models.Buy, trade.Side)
	assert.Equal(t, "CEX", trade.Origin)
}

func TestGenerator_BandsAndRounding(t *testing.T) {
	gen := newSeeded(t, DefaultConfig())

	for i := 0; i < 500; i++ {
		trade := gen.Next()
		assert.GreaterOrEqual(t, trade.Price, 40000.0)
		assert.Less(t, trade.Price, 41000.0)
		assert.GreaterOrEqual(t, trade.Quantity, 0.5)
		assert.Less(t, trade.Quantity, 2.5)

		assert.True(t, decimal.NewFromFloat(trade.Price).Equal(decimal.NewFromFloat(trade.Price).Round(2)))
		assert.True(t, decimal.NewFromFloat(trade.Quantity).Equal(decimal.NewFromFloat(trade.Quantity).Round(4)))
	}
}

// topSource makes every Float64 draw the largest value below 1.
type topSource struct{}

func (topSource) Uint64() uint64 { return ^uint64(0) }

func TestBand_SampleStaysBelowUpperBound(t *testing.T) {
	rng := rand.New(topSource{})
	cfg := DefaultConfig()

	price := cfg.Price.Sample(rng)
	assert.Less(t, price, 41000.0)
	assert.Equal(t, 40999.99, price)

	quantity := cfg.Quantity.Sample(rng)
	assert.Less(t, quantity, 2.5)
	assert.Equal(t, 2.4999, quantity)

	assert.Equal(t, 1.0, NewBand(1, 0, 2).Sample(rng))
}

func TestBand_SampleFloorsToPlaces(t *testing.T) {
	rng := rand.New(rand.NewPCG(9, 9))
	band := NewBand(0.00015, 0.00001, 4)

	require.NoError(t, band.Validate())
	for i := 0; i < 50; i++ {
		assert.Equal(t, 0.0001, band.Sample(rng))
	}

	assert.ErrorIs(t, NewBand(0.00009, 1, 4).Validate(), ErrInvalidBand)
}

func TestGenerator_PerInstrumentPriceBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Instruments = []string{"ETH-USDC"}
	cfg.PriceBands = map[string]Band{"ETH-USDC": NewBand(2400, 10, 2)}

	gen := newSeeded(t, cfg)
	for i := 0; i < 100; i++ {
		trade := gen.Next()
		assert.GreaterOrEqual(t, trade.Price, 2400.0)
		assert.Less(t, trade.Price, 2410.0)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	clock := func() time.Time { return time.Unix(1700000000, 0) }

	a := newSeeded(t, DefaultConfig(), WithClock(clock))
	b := newSeeded(t, DefaultConfig(), WithClock(clock))

	for i := 0; i < 50; i++ {
		ta, tb := a.Next(), b.Next()
		assert.Equal(t, ta.Instrument, tb.Instrument)
		assert.Equal(t, ta.Side, tb.Side)
		assert.Equal(t, ta.Price, tb.Price)
		assert.Equal(t, ta.Quantity, tb.Quantity)
		assert.Equal(t, ta.ParticipantID, tb.ParticipantID)
		assert.Equal(t, int64(1700000000)*int64(time.Second), ta.EventTimeNs)
	}
}

func TestGenerator_NextBatch(t *testing.T) {
	gen := newSeeded(t, DefaultConfig())

	assert.Len(t, gen.NextBatch(0), 1)
	assert.Len(t, gen.NextBatch(5), 5)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"no instruments", func(c *Config) { c.Instruments = nil }, ErrNoInstruments},
		{"no participants", func(c *Config) { c.Participants = nil }, ErrNoParticipants},
		{"no sides", func(c *Config) { c.Sides = nil }, ErrNoSides},
		{"bad side", func(c *Config) { c.Sides = []models.Side{"HOLD"} }, models.ErrInvalidSide},
		{"zero price", func(c *Config) { c.Price = NewBand(0, 10, 2) }, ErrInvalidBand},
		{"rounds to zero", func(c *Config) { c.Quantity = NewBand(0.00001, 1, 4) }, ErrInvalidBand},
		{"negative range", func(c *Config) { c.Quantity = NewBand(1, -1, 4) }, ErrInvalidBand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := New(cfg, rand.NewPCG(1, 1))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestConfig_WithCatalog(t *testing.T) {
	cfg := DefaultConfig().WithCatalog([]models.Instrument{
		{Symbol: "BBCA", PriceBase: 9000, PriceRange: 50},
		{Symbol: "TLKM"},
	})

	assert.Equal(t, []string{"BBCA", "TLKM"}, cfg.Instruments)
	require.Contains(t, cfg.PriceBands, "BBCA")
	assert.NotContains(t, cfg.PriceBands, "TLKM")

	gen := newSeeded(t, cfg)
	for i := 0; i < 100; i++ {
		trade := gen.Next()
		if trade.Instrument == "BBCA" {
			assert.GreaterOrEqual(t, trade.Price, 9000.0)
			assert.Less(t, trade.Price, 9050.0)
		} else {
			assert.GreaterOrEqual(t, trade.Price, 40000.0)
		}
	}

	_, err := New(DefaultConfig().WithCatalog(nil), nil)
	assert.ErrorIs(t, err, ErrNoInstruments)

	negative := DefaultConfig().WithCatalog([]models.Instrument{{Symbol: "BBCA", PriceBase: -5, PriceRange: 1}})
	_, err = New(negative, nil)
	assert.ErrorIs(t, err, ErrInvalidBand)
}
