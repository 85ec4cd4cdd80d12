package tradegenerator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"trade-ingestor-go/internal/models"
)

var (
	ErrNoInstruments  = errors.New("instrument set is empty")
	ErrNoParticipants = errors.New("participant set is empty")
	ErrNoSides        = errors.New("side set is empty")
	ErrInvalidBand    = errors.New("invalid band")
)

// Band samples Base + U[0,1)*Range, rounded down to Places decimals, so a
// sample stays below Base+Range whenever Range is positive.
type Band struct {
	Base   decimal.Decimal
	Range  decimal.Decimal
	Places int32
}

func NewBand(base, span float64, places int32) Band {
	return Band{
		Base:   decimal.NewFromFloat(base),
		Range:  decimal.NewFromFloat(span),
		Places: places,
	}
}

// Validate keeps every sample strictly positive: rounding down is monotonic,
// so a sample never falls below the rounded-down base.
func (b Band) Validate() error {
	if !b.Base.RoundFloor(b.Places).IsPositive() {
		return fmt.Errorf("%w: base %s rounds to non-positive at %d places", ErrInvalidBand, b.Base, b.Places)
	}
	if b.Range.IsNegative() {
		return fmt.Errorf("%w: negative range %s", ErrInvalidBand, b.Range)
	}
	return nil
}

func (b Band) Sample(rng *rand.Rand) float64 {
	offset := b.Range.Mul(decimal.NewFromFloat(rng.Float64()))
	return b.Base.Add(offset).RoundFloor(b.Places).InexactFloat64()
}

type Config struct {
	Venue        string
	Origin       string
	Instruments  []string
	Participants []string
	Sides        []models.Side
	Price        Band
	Quantity     Band
	// PriceBands overrides Price for individual instruments.
	PriceBands map[string]Band
}

func DefaultConfig() Config {
	return Config{
		Venue:        "Ingestor.Go",
		Origin:       "CEX",
		Instruments:  []string{"BTC-USDT", "ETH-USDC", "SOL-USDT"},
		Participants: []string{"CEX-ALICE", "CEX-BOB", "INSTITUTIONAL-X"},
		Sides:        []models.Side{models.Buy, models.Sell},
		Price:        NewBand(40000, 1000, 2),
		Quantity:     NewBand(0.5, 2.0, 4),
	}
}

func (c Config) Validate() error {
	if len(c.Instruments) == 0 {
		return ErrNoInstruments
	}
	if len(c.Participants) == 0 {
		return ErrNoParticipants
	}
	if len(c.Sides) == 0 {
		return ErrNoSides
	}
	for _, side := range c.Sides {
		if !side.Valid() {
			return fmt.Errorf("%w: %q", models.ErrInvalidSide, side)
		}
	}
	if err := c.Price.Validate(); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if err := c.Quantity.Validate(); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	for symbol, band := range c.PriceBands {
		if err := band.Validate(); err != nil {
			return fmt.Errorf("price %s: %w", symbol, err)
		}
	}
	return nil
}

// WithCatalog returns a copy of c whose instrument set is the catalog. Entries
// with a non-zero PriceBase get their own price band at the default precision;
// Validate rejects the ones that are not positive.
func (c Config) WithCatalog(catalog []models.Instrument) Config {
	c.Instruments = make([]string, 0, len(catalog))
	c.PriceBands = make(map[string]Band, len(catalog))
	for _, inst := range catalog {
		c.Instruments = append(c.Instruments, inst.Symbol)
		if inst.PriceBase != 0 {
			c.PriceBands[inst.Symbol] = NewBand(inst.PriceBase, inst.PriceRange, c.Price.Places)
		}
	}
	return c
}

// Generator builds synthetic trades. It is not safe for concurrent use.
type Generator struct {
	cfg   Config
	rng   *rand.Rand
	now   func() time.Time
	newID func() string
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

func New(cfg Config, src rand.Source, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if src == nil {
		src = rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64())
	}

	g := &Generator{
		cfg:   cfg,
		rng:   rand.New(src),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Generator) Next() models.Trade {
	instrument := g.cfg.Instruments[g.rng.IntN(len(g.cfg.Instruments))]

	priceBand, ok := g.cfg.PriceBands[instrument]
	if !ok {
		priceBand = g.cfg.Price
	}

	return models.Trade{
		EventTimeNs:   g.now().UnixNano(),
		Venue:         g.cfg.Venue,
		Instrument:    instrument,
		Side:          g.cfg.Sides[g.rng.IntN(len(g.cfg.Sides))],
		Price:         priceBand.Sample(g.rng),
		Quantity:      g.cfg.Quantity.Sample(g.rng),
		ParticipantID: g.cfg.Participants[g.rng.IntN(len(g.cfg.Participants))],
		OrderID:       g.newID(),
		ExecutionID:   g.newID(),
		Origin:        g.cfg.Origin,
	}
}

func (g *Generator) NextBatch(n int) models.Batch {
	if n < 1 {
		n = 1
	}
	batch := make(models.Batch, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, g.Next())
	}
	return batch
}
