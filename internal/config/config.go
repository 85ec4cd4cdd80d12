// Package config loads the ingestor settings from defaults, an optional TOML
// file, a .env file and INGESTOR_* environment variables, in rising priority.
package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"trade-ingestor-go/internal/logger"
	"trade-ingestor-go/internal/models"
	tradegenerator "trade-ingestor-go/internal/trade-generator"
)

const (
	EnvPrefix = "INGESTOR"
	// PathEnv names an explicit config file that must exist.
	PathEnv = "INGESTOR_CONFIG"

	TransportGRPC  = "grpc"
	TransportKafka = "kafka"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Publisher PublisherConfig `mapstructure:"publisher"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Ingestor  IngestorConfig  `mapstructure:"ingestor"`
	Logger    logger.Config   `mapstructure:"logger"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Stub      StubConfig      `mapstructure:"stub"`
}

type PublisherConfig struct {
	// Transport is grpc or kafka.
	Transport         string        `mapstructure:"transport"`
	Address           string        `mapstructure:"address"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval"`
	Kafka             KafkaConfig   `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type GeneratorConfig struct {
	Venue        string   `mapstructure:"venue"`
	Origin       string   `mapstructure:"origin"`
	Instruments  []string `mapstructure:"instruments"`
	Participants []string `mapstructure:"participants"`
	Sides        []string `mapstructure:"sides"`
	// InstrumentsFile replaces Instruments with a CSV or HTML catalog.
	InstrumentsFile string  `mapstructure:"instruments_file"`
	PriceBase       float64 `mapstructure:"price_base"`
	PriceRange      float64 `mapstructure:"price_range"`
	PricePlaces     int32   `mapstructure:"price_places"`
	QuantityBase    float64 `mapstructure:"quantity_base"`
	QuantityRange   float64 `mapstructure:"quantity_range"`
	QuantityPlaces  int32   `mapstructure:"quantity_places"`
	// Seed fixes the random stream; zero seeds from the clock.
	Seed uint64 `mapstructure:"seed"`
}

type IngestorConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	BatchSize  int           `mapstructure:"batch_size"`
	MaxTicks   int           `mapstructure:"max_ticks"`
	WaitForKey bool          `mapstructure:"wait_for_key"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type StubConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	Validate   bool   `mapstructure:"validate"`
}

// Load reads the settings. An empty path looks for configs/trade-ingestor.toml
// and tolerates its absence; a non-empty path must be readable.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("trade-ingestor")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Publisher.Transport {
	case TransportGRPC:
		if strings.TrimSpace(c.Publisher.Address) == "" {
			return fmt.Errorf("%w: publisher.address is required", ErrInvalidConfig)
		}
	case TransportKafka:
		if len(c.Publisher.Kafka.Brokers) == 0 {
			return fmt.Errorf("%w: publisher.kafka.brokers is required", ErrInvalidConfig)
		}
		if c.Publisher.Kafka.Topic == "" {
			return fmt.Errorf("%w: publisher.kafka.topic is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown publisher.transport %q", ErrInvalidConfig, c.Publisher.Transport)
	}
	if c.Publisher.RequestTimeout < 0 {
		return fmt.Errorf("%w: publisher.request_timeout must not be negative", ErrInvalidConfig)
	}
	if c.Publisher.KeepaliveInterval < 0 {
		return fmt.Errorf("%w: publisher.keepalive_interval must not be negative", ErrInvalidConfig)
	}
	if c.Ingestor.Interval <= 0 {
		return fmt.Errorf("%w: ingestor.interval must be positive", ErrInvalidConfig)
	}
	if c.Ingestor.BatchSize < 1 {
		return fmt.Errorf("%w: ingestor.batch_size must be at least 1", ErrInvalidConfig)
	}
	if c.Ingestor.MaxTicks < 0 {
		return fmt.Errorf("%w: ingestor.max_ticks must not be negative", ErrInvalidConfig)
	}
	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return fmt.Errorf("%w: http.addr is required when http is enabled", ErrInvalidConfig)
	}
	if _, err := c.Generator.TradeConfig(); err != nil {
		return fmt.Errorf("%w: generator: %w", ErrInvalidConfig, err)
	}
	return nil
}

// TradeConfig converts the generator section. Catalog files are not read here.
func (g GeneratorConfig) TradeConfig() (tradegenerator.Config, error) {
	sides := make([]models.Side, 0, len(g.Sides))
	for _, s := range g.Sides {
		side, err := models.ParseSide(s)
		if err != nil {
			return tradegenerator.Config{}, err
		}
		sides = append(sides, side)
	}

	cfg := tradegenerator.Config{
		Venue:        g.Venue,
		Origin:       g.Origin,
		Instruments:  g.Instruments,
		Participants: g.Participants,
		Sides:        sides,
		Price:        tradegenerator.NewBand(g.PriceBase, g.PriceRange, g.PricePlaces),
		Quantity:     tradegenerator.NewBand(g.QuantityBase, g.QuantityRange, g.QuantityPlaces),
	}
	if g.InstrumentsFile == "" {
		if err := cfg.Validate(); err != nil {
			return tradegenerator.Config{}, err
		}
	}
	return cfg, nil
}

// Source returns nil for a zero seed, which the generator seeds from the clock.
func (g GeneratorConfig) Source() rand.Source {
	if g.Seed == 0 {
		return nil
	}
	return rand.NewPCG(g.Seed, g.Seed)
}

func setDefaults(v *viper.Viper) {
	gen := tradegenerator.DefaultConfig()
	sides := make([]string, 0, len(gen.Sides))
	for _, s := range gen.Sides {
		sides = append(sides, string(s))
	}

	v.SetDefault("publisher.transport", TransportGRPC)
	v.SetDefault("publisher.address", "localhost:50051")
	v.SetDefault("publisher.request_timeout", 5*time.Second)
	v.SetDefault("publisher.keepalive_interval", time.Duration(0))
	v.SetDefault("publisher.kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("publisher.kafka.topic", "trades")

	v.SetDefault("generator.venue", gen.Venue)
	v.SetDefault("generator.origin", gen.Origin)
	v.SetDefault("generator.instruments", gen.Instruments)
	v.SetDefault("generator.participants", gen.Participants)
	v.SetDefault("generator.sides", sides)
	v.SetDefault("generator.instruments_file", "")
	v.SetDefault("generator.price_base", gen.Price.Base.InexactFloat64())
	v.SetDefault("generator.price_range", gen.Price.Range.InexactFloat64())
	v.SetDefault("generator.price_places", gen.Price.Places)
	v.SetDefault("generator.quantity_base", gen.Quantity.Base.InexactFloat64())
	v.SetDefault("generator.quantity_range", gen.Quantity.Range.InexactFloat64())
	v.SetDefault("generator.quantity_places", gen.Quantity.Places)
	v.SetDefault("generator.seed", 0)

	v.SetDefault("ingestor.interval", time.Second)
	v.SetDefault("ingestor.batch_size", 1)
	v.SetDefault("ingestor.max_ticks", 0)
	v.SetDefault("ingestor.wait_for_key", true)

	log := logger.DefaultConfig()
	v.SetDefault("logger.level", log.Level)
	v.SetDefault("logger.format", log.Format)
	v.SetDefault("logger.output", log.Output)
	v.SetDefault("logger.file_path", log.FilePath)
	v.SetDefault("logger.max_size", log.MaxSize)
	v.SetDefault("logger.max_backups", log.MaxBackups)
	v.SetDefault("logger.max_age", log.MaxAge)
	v.SetDefault("logger.compress", log.Compress)
	v.SetDefault("logger.with_caller", log.WithCaller)

	v.SetDefault("http.enabled", false)
	v.SetDefault("http.addr", ":9102")

	v.SetDefault("stub.listen_addr", ":50051")
	v.SetDefault("stub.validate", true)
}
