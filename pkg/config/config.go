package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		NewsTopic    string   `yaml:"news_topic" default:"news.items"`
		SignalsTopic string   `yaml:"signals_topic" default:"signals.emitted"`
		LogsTopic    string   `yaml:"logs_topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"newsedge"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"newsedge"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`
	Newswire struct {
		URL            string        `yaml:"url"`
		Token          string        `yaml:"token"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		BatchSize      int           `yaml:"batch_size" default:"25"`
		FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
	} `yaml:"newswire"`
	NewsFeed struct {
		BaseURL  string   `yaml:"base_url"`
		APIKey   string   `yaml:"api_key"`
		Sources  []string `yaml:"sources"`
		PageSize int      `yaml:"page_size" default:"50"`
	} `yaml:"newsfeed"`
	MarketData struct {
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		Timeout      time.Duration `yaml:"timeout"`
		QuoteTTL     time.Duration `yaml:"quote_ttl"`
		IndicatorTTL time.Duration `yaml:"indicator_ttl"`
	} `yaml:"marketdata"`
	Analytics struct {
		ModelServiceURL string        `yaml:"model_service_url"`
		Timeout         time.Duration `yaml:"timeout"`
	} `yaml:"analytics"`
	Pipeline struct {
		LookbackHours          int     `yaml:"lookback_hours" default:"6"`
		MinSentimentConfidence float64 `yaml:"min_sentiment_confidence" default:"0.6"`
		MinCombinedScore       float64 `yaml:"min_combined_score" default:"0.3"`
		SignalExpiryDays       int     `yaml:"signal_expiry_days" default:"7"`
		MaxSignalsPerRun       int     `yaml:"max_signals_per_run" default:"10"`
		SentimentWeight        float64 `yaml:"sentiment_weight" default:"0.7"`
		TechnicalWeight        float64 `yaml:"technical_weight" default:"0.3"`
		Workers                int     `yaml:"workers" default:"4"`
		Schedule               string  `yaml:"schedule"`
	} `yaml:"pipeline"`
	Queue struct {
		Enabled bool   `yaml:"enabled"`
		Name    string `yaml:"name" default:"newsedge:jobs"`
		Workers int    `yaml:"workers" default:"2"`
	} `yaml:"queue"`
	Backend struct {
		Type string `yaml:"type" default:"both"` // kafka | clickhouse | both
	} `yaml:"backend"`
}

// Load reads a YAML configuration file, fills defaults, and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

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

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_NEWS_TOPIC"); v != "" {
		c.Kafka.NewsTopic = v
	}
	if v := os.Getenv("KAFKA_SIGNALS_TOPIC"); v != "" {
		c.Kafka.SignalsTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("NEWSFEED_API_KEY"); v != "" {
		c.NewsFeed.APIKey = v
	}
	if v := os.Getenv("NEWSFEED_SOURCES"); v != "" {
		c.NewsFeed.Sources = strings.Split(v, ",")
	}
	if v := os.Getenv("MARKETDATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("NEWSWIRE_TOKEN"); v != "" {
		c.Newswire.Token = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Analytics.ModelServiceURL = v
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	p := c.Pipeline
	if p.LookbackHours <= 0 {
		return fmt.Errorf("pipeline.lookback_hours must be positive, got %d", p.LookbackHours)
	}
	if p.SignalExpiryDays <= 0 {
		return fmt.Errorf("pipeline.signal_expiry_days must be positive, got %d", p.SignalExpiryDays)
	}
	if p.MaxSignalsPerRun <= 0 {
		return fmt.Errorf("pipeline.max_signals_per_run must be positive, got %d", p.MaxSignalsPerRun)
	}
	if p.MinSentimentConfidence < 0 || p.MinSentimentConfidence > 1 {
		return fmt.Errorf("pipeline.min_sentiment_confidence must be in [0,1], got %v", p.MinSentimentConfidence)
	}
	if p.MinCombinedScore < 0 || p.MinCombinedScore > 1 {
		return fmt.Errorf("pipeline.min_combined_score must be in [0,1], got %v", p.MinCombinedScore)
	}
	if math.Abs(p.SentimentWeight+p.TechnicalWeight-1) > 1e-9 {
		return fmt.Errorf("pipeline weights must sum to 1, got %v + %v", p.SentimentWeight, p.TechnicalWeight)
	}
	return nil
}

// Lookback returns the news freshness window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Pipeline.LookbackHours) * time.Hour
}

// SignalExpiry returns the dedup window as a duration.
func (c *Config) SignalExpiry() time.Duration {
	return time.Duration(c.Pipeline.SignalExpiryDays) * 24 * time.Hour
}
