package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration. Detector options are
// validated here, at load time: a detection pass never sees an invalid
// configuration.
type Config struct {
	Environment string `yaml:"environment" validate:"required"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	Detection DetectionConfig `yaml:"detection"`

	Ingest struct {
		// CorruptCeiling is the max tolerated fraction of corrupt points in
		// a batch before the whole batch is rejected.
		CorruptCeiling float64       `yaml:"corrupt_ceiling" default:"0.2" validate:"gte=0,lte=1"`
		BatchSize      int           `yaml:"batch_size" default:"100" validate:"gt=0"`
		FlushInterval  time.Duration `yaml:"flush_interval" default:"1m"`
	} `yaml:"ingest"`

	Binance struct {
		RESTURL      string        `yaml:"rest_url" default:"https://api.binance.com"`
		WebSocketURL string        `yaml:"websocket_url" default:"wss://stream.binance.com:9443/ws"`
		Symbol       string        `yaml:"symbol" default:"BTCUSDT"`
		Interval     string        `yaml:"interval" default:"1m"`
		BackfillN    int           `yaml:"backfill_n" default:"100" validate:"gt=0,lte=1000"`
		Reconnect    time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"binance"`

	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		PointsTopic  string   `yaml:"points_topic" default:"forcefield.points"`
		CodexTopic   string   `yaml:"codex_topic" default:"forcefield.interpretations"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Consumer     struct {
			GroupID    string        `yaml:"group_id" default:"forcefield"`
			Workers    int           `yaml:"workers" default:"2" validate:"gt=0"`
			BufferSize int           `yaml:"buffer_size" default:"256" validate:"gt=0"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"forcefield"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"clickhouse"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"forcefield"`
	} `yaml:"redis"`
}

// DetectionConfig is the recognized detector configuration surface.
// Each option changes exactly one detector's behavior.
type DetectionConfig struct {
	MinPoints int `yaml:"min_points" default:"20" validate:"gt=1"`

	// Zone detector.
	BucketWidth        float64 `yaml:"bucket_width" default:"25" validate:"gt=0"`
	IntensityThreshold float64 `yaml:"intensity_threshold" default:"50" validate:"gte=0,lte=100"`
	BaselineWindow     int     `yaml:"baseline_window" default:"8" validate:"gt=0"`
	BaselineMultiple   float64 `yaml:"baseline_multiple" default:"1.5" validate:"gt=0"`
	MergeGapTolerance  int     `yaml:"merge_gap_tolerance" default:"2" validate:"gte=0"`

	// Resonance matcher.
	SimilarityThreshold float64 `yaml:"similarity_threshold" default:"0.7" validate:"gte=0,lte=1"`
	TopK                int     `yaml:"top_k" default:"5" validate:"gt=0"`
	ResonanceWindow     int     `yaml:"resonance_window" default:"20" validate:"gt=1"`
	ResonanceStride     int     `yaml:"resonance_stride" default:"5" validate:"gt=0"`

	// Flow estimator.
	Horizons     []int   `yaml:"horizons" default:"[5,10,20,40]" validate:"min=1,dive,gt=0"`
	NeutralBand  float64 `yaml:"neutral_band" default:"0.001" validate:"gte=0"`
	MaxMagnitude float64 `yaml:"max_magnitude" default:"0.2" validate:"gt=0"`

	// Fractal echo detector.
	ScaleRatios   []int   `yaml:"scale_ratios" default:"[2,4,8]" validate:"min=1,dive,gt=1"`
	EchoThreshold float64 `yaml:"echo_threshold" default:"0.6" validate:"gte=0,lte=1"`

	// Composer / codex.
	InterpretationTTL time.Duration `yaml:"interpretation_ttl" default:"1h" validate:"gt=0"`
	PassTimeout       time.Duration `yaml:"pass_timeout" default:"5s" validate:"gt=0"`
}

var validate = validator.New()

// Load reads, defaults, and validates a YAML configuration file.
// Any out-of-range detector option fails here, before ingestion starts.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates raw YAML configuration bytes.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config and applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		c.Binance.Symbol = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks structural tags plus cross-field rules the tags can't
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers required when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host required when clickhouse is enabled")
	}
	return c.Detection.Validate()
}

// Validate enforces detector option rules beyond struct tags.
func (d *DetectionConfig) Validate() error {
	hs := append([]int(nil), d.Horizons...)
	sort.Ints(hs)
	for i := 1; i < len(hs); i++ {
		if hs[i] == hs[i-1] {
			return fmt.Errorf("detection.horizons must be distinct, got %d twice", hs[i])
		}
	}
	rs := append([]int(nil), d.ScaleRatios...)
	sort.Ints(rs)
	for i := 1; i < len(rs); i++ {
		if rs[i] == rs[i-1] {
			return fmt.Errorf("detection.scale_ratios must be distinct, got %d twice", rs[i])
		}
	}
	return nil
}
