package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Slack          SlackConfig          `mapstructure:"slack"`
	Jira           JiraConfig           `mapstructure:"jira"`
	Poller         PollerConfig         `mapstructure:"poller"`
	Cursor         CursorConfig         `mapstructure:"cursor"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Broker         BrokerConfig         `mapstructure:"broker"`
	Classifier     ClassifierConfig     `mapstructure:"classifier"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig        `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port                int             `mapstructure:"port"`
	ReadTimeoutSeconds  int             `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int             `mapstructure:"write_timeout_seconds"`
	RateLimit           RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig limits the routes that call the tracker on demand.
type RateLimitConfig struct {
	Enabled       bool    `mapstructure:"enabled"`
	RPS           float64 `mapstructure:"rps"`
	Burst         int     `mapstructure:"burst"`
	MaxAgeSeconds int     `mapstructure:"max_age_seconds"`
}

func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

type SlackConfig struct {
	Token        string      `mapstructure:"token"`
	ChannelID    string      `mapstructure:"channel_id"`
	APIURL       string      `mapstructure:"api_url"`
	HistoryLimit int         `mapstructure:"history_limit"`
	RateLimitRPS float64     `mapstructure:"rate_limit_rps"`
	Burst        int         `mapstructure:"burst"`
	Retry        RetryConfig `mapstructure:"retry"`
}

type JiraConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	Email    string `mapstructure:"email"`
	APIToken string `mapstructure:"api_token"`

	ProjectKey string `mapstructure:"project_key"`
	IssueType  string `mapstructure:"issue_type"`

	// PriorityID and CategoryID bypass label resolution when set.
	PriorityID      string `mapstructure:"priority_id"`
	CategoryID      string `mapstructure:"category_id"`
	CategoryField   string `mapstructure:"category_field"`
	CategoryDefault string `mapstructure:"category_default"`
	DefaultPriority string `mapstructure:"default_priority"`

	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

func (c JiraConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type PollerConfig struct {
	IntervalMS      int `mapstructure:"interval_ms"`
	BackfillSeconds int `mapstructure:"backfill_seconds"`
	CycleTimeoutMS  int `mapstructure:"cycle_timeout_ms"`
}

func (c PollerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

func (c PollerConfig) Backfill() time.Duration {
	return time.Duration(c.BackfillSeconds) * time.Second
}

// CycleTimeout bounds one poll cycle. Zero leaves the cycle unbounded.
func (c PollerConfig) CycleTimeout() time.Duration {
	if c.CycleTimeoutMS <= 0 {
		return 0
	}
	return time.Duration(c.CycleTimeoutMS) * time.Millisecond
}

type CursorConfig struct {
	Backend  string `mapstructure:"backend"`
	File     string `mapstructure:"file"`
	RedisKey string `mapstructure:"redis_key"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type ClassifierConfig struct {
	SuppressRules []SuppressRule `mapstructure:"suppress_rules"`
}

// SuppressRule drops an otherwise qualifying alert when Expression is true.
type SuppressRule struct {
	Name       string `mapstructure:"name"`
	Expression string `mapstructure:"expression"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
