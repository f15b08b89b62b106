package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SUMREPORT_SERVER_PORT.
const EnvPrefix = "SUMREPORT"

type Config struct {
	Environment string           `yaml:"environment" split_words:"true"`
	Server      ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Log         LogConfig        `yaml:"log" envconfig:"LOG"`
	Metrics     MetricsConfig    `yaml:"metrics" envconfig:"METRICS"`
	Report      ReportConfig     `yaml:"report" envconfig:"REPORT"`
	Hedge       HedgeConfig      `yaml:"hedge" envconfig:"HEDGE"`
	Redis       RedisConfig      `yaml:"redis" envconfig:"REDIS"`
	Kafka       KafkaConfig      `yaml:"kafka" envconfig:"KAFKA"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse" envconfig:"CLICKHOUSE"`
	Queue       QueueConfig      `yaml:"queue" envconfig:"QUEUE"`
	RateLimit   RateLimitConfig  `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

type ServerConfig struct {
	Port            int           `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	AllowedOrigins  []string      `yaml:"allowed_origins" split_words:"true"`
}

type LogConfig struct {
	Level      string `yaml:"level" split_words:"true"`
	Format     string `yaml:"format" split_words:"true"`
	Output     string `yaml:"output" split_words:"true"`
	TimeFormat string `yaml:"time_format" split_words:"true"`
	Collector  struct {
		Enabled     bool          `yaml:"enabled" split_words:"true"`
		Interval    time.Duration `yaml:"interval" split_words:"true"`
		Threshold   int           `yaml:"threshold" split_words:"true"`
		IncludeWarn bool          `yaml:"include_warn" split_words:"true"`
	} `yaml:"collector" envconfig:"COLLECTOR"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" split_words:"true"`
	Path    string `yaml:"path" split_words:"true"`
}

// ReportConfig locates the summary reports scanned by a table refresh.
type ReportConfig struct {
	Dir            string        `yaml:"dir" split_words:"true"`
	Extensions     []string      `yaml:"extensions" split_words:"true"`
	Workers        int           `yaml:"workers" split_words:"true"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout" split_words:"true"`
	// RUL is the realized-unlevered figure applied to scanned reports per fund.
	RUL map[string]float64 `yaml:"rul" split_words:"true"`
}

// HedgeConfig holds hedge cost rates and currency weights keyed by ISO 4217 code.
type HedgeConfig struct {
	Costs          map[string]float64            `yaml:"costs" split_words:"true"`
	DefaultWeights map[string]float64            `yaml:"default_weights" split_words:"true"`
	FundWeights    map[string]map[string]float64 `yaml:"fund_weights" ignored:"true"`
}

type RedisConfig struct {
	Enabled       bool          `yaml:"enabled" split_words:"true"`
	Host          string        `yaml:"host" split_words:"true"`
	Port          int           `yaml:"port" split_words:"true"`
	Password      string        `yaml:"password" split_words:"true"`
	DB            int           `yaml:"db" split_words:"true"`
	PoolSize      int           `yaml:"pool_size" split_words:"true"`
	Prefix        string        `yaml:"prefix" split_words:"true"`
	MemoryMaxSize int           `yaml:"memory_max_size" split_words:"true"`
	TableTTL      time.Duration `yaml:"table_ttl" split_words:"true"`
	LockTTL       time.Duration `yaml:"lock_ttl" split_words:"true"`
}

type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled" split_words:"true"`
	Brokers      []string `yaml:"brokers" split_words:"true"`
	RequiredAcks int      `yaml:"required_acks" split_words:"true"`
	Compression  string   `yaml:"compression" split_words:"true"`
	Topics       struct {
		KeyFigures  string `yaml:"keyfigures" split_words:"true"`
		TableEvents string `yaml:"table_events" split_words:"true"`
		Logs        string `yaml:"logs" split_words:"true"`
	} `yaml:"topics" envconfig:"TOPICS"`
	Producer struct {
		MaxAttempts  int           `yaml:"max_attempts" split_words:"true"`
		Linger       time.Duration `yaml:"linger" split_words:"true"`
		BatchSize    int           `yaml:"batch_size" split_words:"true"`
		WriteTimeout time.Duration `yaml:"write_timeout" split_words:"true"`
		Async        bool          `yaml:"async" split_words:"true"`
	} `yaml:"producer" envconfig:"PRODUCER"`
	Consumer struct {
		GroupID    string        `yaml:"group_id" split_words:"true"`
		Workers    int           `yaml:"workers" split_words:"true"`
		BufferSize int           `yaml:"buffer_size" split_words:"true"`
		RetryMax   int           `yaml:"retry_max" split_words:"true"`
		BackoffMin time.Duration `yaml:"backoff_min" split_words:"true"`
		BackoffMax time.Duration `yaml:"backoff_max" split_words:"true"`
		DLQTopic   string        `yaml:"dlq_topic" split_words:"true"`
	} `yaml:"consumer" envconfig:"CONSUMER"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled" split_words:"true"`
	Host             string        `yaml:"host" split_words:"true"`
	Port             int           `yaml:"port" split_words:"true"`
	Database         string        `yaml:"database" split_words:"true"`
	User             string        `yaml:"user" split_words:"true"`
	Password         string        `yaml:"password" split_words:"true"`
	UseHTTP          bool          `yaml:"use_http" split_words:"true"`
	AsyncInsert      bool          `yaml:"async_insert" split_words:"true"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert" split_words:"true"`
	DialTimeout      time.Duration `yaml:"dial_timeout" split_words:"true"`
	ReadTimeout      time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout     time.Duration `yaml:"write_timeout" split_words:"true"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" split_words:"true"`
	Breaker          struct {
		MaxRequests      uint32        `yaml:"max_requests" split_words:"true"`
		Interval         time.Duration `yaml:"interval" split_words:"true"`
		Timeout          time.Duration `yaml:"timeout" split_words:"true"`
		FailureThreshold uint32        `yaml:"failure_threshold" split_words:"true"`
	} `yaml:"breaker" envconfig:"BREAKER"`
}

type QueueConfig struct {
	Enabled    bool          `yaml:"enabled" split_words:"true"`
	Name       string        `yaml:"name" split_words:"true"`
	Workers    int           `yaml:"workers" split_words:"true"`
	QueueSize  int           `yaml:"queue_size" split_words:"true"`
	RetryLimit int           `yaml:"retry_limit" split_words:"true"`
	RetryDelay time.Duration `yaml:"retry_delay" split_words:"true"`
}

type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true"`
	Burst   int     `yaml:"burst" split_words:"true"`
}

// Default returns the configuration used for keys absent from the file.
func Default() Config {
	var c Config
	c.Environment = "development"

	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 30 * time.Second
	c.Server.ShutdownTimeout = 15 * time.Second

	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Log.Output = "stdout"
	c.Log.Collector.Interval = 30 * time.Second
	c.Log.Collector.Threshold = 100

	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"

	c.Report.Dir = "reports"
	c.Report.Extensions = []string{".txt"}
	c.Report.Workers = 4
	c.Report.RefreshTimeout = 2 * time.Minute

	c.Hedge.Costs = map[string]float64{"USD": 0.025, "GBP": 0.02, "EUR": 0}

	c.Redis.Host = "localhost"
	c.Redis.Port = 6379
	c.Redis.PoolSize = 10
	c.Redis.Prefix = "sumreport"
	c.Redis.MemoryMaxSize = 1000
	c.Redis.LockTTL = 5 * time.Minute

	c.Kafka.Brokers = []string{"localhost:9092"}
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "snappy"
	c.Kafka.Topics.KeyFigures = "keyfigures"
	c.Kafka.Topics.TableEvents = "table-events"
	c.Kafka.Topics.Logs = "sumreport-logs"
	c.Kafka.Producer.MaxAttempts = 5
	c.Kafka.Producer.Linger = 10 * time.Millisecond
	c.Kafka.Producer.BatchSize = 100
	c.Kafka.Producer.WriteTimeout = 10 * time.Second
	c.Kafka.Consumer.GroupID = "sumreport"
	c.Kafka.Consumer.Workers = 2
	c.Kafka.Consumer.BufferSize = 100
	c.Kafka.Consumer.RetryMax = 3
	c.Kafka.Consumer.BackoffMin = 100 * time.Millisecond
	c.Kafka.Consumer.BackoffMax = 5 * time.Second

	c.ClickHouse.Host = "localhost"
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "sumreport"
	c.ClickHouse.User = "default"
	c.ClickHouse.DialTimeout = 5 * time.Second
	c.ClickHouse.ReadTimeout = 30 * time.Second
	c.ClickHouse.WriteTimeout = 30 * time.Second
	c.ClickHouse.Breaker.MaxRequests = 1
	c.ClickHouse.Breaker.Interval = time.Minute
	c.ClickHouse.Breaker.Timeout = 30 * time.Second
	c.ClickHouse.Breaker.FailureThreshold = 5

	c.Queue.Name = "sumreport:jobs"
	c.Queue.Workers = 1
	c.Queue.QueueSize = 100
	c.Queue.RetryLimit = 3
	c.Queue.RetryDelay = 5 * time.Second

	c.RateLimit.RPS = 20
	c.RateLimit.Burst = 40
	return c
}

// Load reads and parses a YAML configuration file over Default.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML, then applies SUMREPORT_* environment
// overrides. A .env file in the working directory is read first if present.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := envconfig.Process(EnvPrefix, c); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Report.Dir == "" {
		return fmt.Errorf("report.dir is required")
	}
	if c.Report.Workers < 1 {
		return fmt.Errorf("report.workers must be at least 1")
	}
	if err := validateRates("hedge.costs", c.Hedge.Costs, false); err != nil {
		return err
	}
	if err := validateRates("hedge.default_weights", c.Hedge.DefaultWeights, true); err != nil {
		return err
	}
	for fund, w := range c.Hedge.FundWeights {
		if err := validateRates("hedge.fund_weights."+fund, w, true); err != nil {
			return err
		}
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Database == "" {
		return fmt.Errorf("clickhouse.database is required when clickhouse is enabled")
	}
	if c.Queue.Enabled && !c.Redis.Enabled {
		return fmt.Errorf("queue requires redis to be enabled")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return fmt.Errorf("rate_limit.rps and rate_limit.burst must be positive")
	}
	return nil
}

// validateRates checks currency keys against ISO 4217 and value ranges.
func validateRates(name string, rates map[string]float64, weights bool) error {
	for code, v := range rates {
		if money.GetCurrency(strings.ToUpper(strings.TrimSpace(code))) == nil {
			return fmt.Errorf("%s: unknown currency %q", name, code)
		}
		if v < 0 {
			return fmt.Errorf("%s.%s must not be negative", name, code)
		}
		if weights && v > 1 {
			return fmt.Errorf("%s.%s must not exceed 1", name, code)
		}
	}
	return nil
}
