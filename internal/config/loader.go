package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"alertbridge/internal/constants"
)

// LoadConfig reads the optional YAML file, then applies environment
// overrides. An empty configFile means environment and defaults only.
func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	setDefaults()

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	bindEnvVariables()

	if configFile != "" {
		viper.SetConfigType("yaml")
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", constants.DefaultPort)
	viper.SetDefault("server.read_timeout_seconds", 10)
	viper.SetDefault("server.write_timeout_seconds", 10)
	viper.SetDefault("server.rate_limit.enabled", true)
	viper.SetDefault("server.rate_limit.rps", 1.0)
	viper.SetDefault("server.rate_limit.burst", 5)
	viper.SetDefault("server.rate_limit.max_age_seconds", 600)

	viper.SetDefault("slack.history_limit", constants.DefaultHistoryLimit)
	viper.SetDefault("slack.rate_limit_rps", 1.0)
	viper.SetDefault("slack.burst", 3)
	viper.SetDefault("slack.retry.max_attempts", 3)
	viper.SetDefault("slack.retry.initial_interval", 500*time.Millisecond)
	viper.SetDefault("slack.retry.max_interval", 5*time.Second)
	viper.SetDefault("slack.retry.multiplier", 2.0)
	viper.SetDefault("slack.retry.max_elapsed_time", 10*time.Second)

	viper.SetDefault("jira.project_key", constants.DefaultProjectKey)
	viper.SetDefault("jira.issue_type", constants.DefaultIssueType)
	viper.SetDefault("jira.category_field", constants.DefaultCategoryField)
	viper.SetDefault("jira.category_default", constants.DefaultCategoryLabel)
	viper.SetDefault("jira.default_priority", constants.DefaultPriorityLabel)
	viper.SetDefault("jira.timeout_seconds", int(constants.DefaultHTTPTimeout/time.Second))

	viper.SetDefault("poller.interval_ms", constants.DefaultPollIntervalMS)
	viper.SetDefault("poller.backfill_seconds", constants.DefaultBackfillSeconds)

	viper.SetDefault("cursor.backend", constants.CursorBackendFile)
	viper.SetDefault("cursor.file", constants.DefaultStateFile)
	viper.SetDefault("cursor.redis_key", constants.DefaultCursorRedisKey)

	viper.SetDefault("broker.type", constants.BrokerTypeNone)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("circuit_breaker.enabled", true)
	viper.SetDefault("circuit_breaker.max_requests", 1)
	viper.SetDefault("circuit_breaker.interval", time.Minute)
	viper.SetDefault("circuit_breaker.timeout", 30*time.Second)
	viper.SetDefault("circuit_breaker.failure_ratio", 0.6)
	viper.SetDefault("circuit_breaker.min_requests", 5)

	viper.SetDefault("tracing.service_name", constants.ServiceName)
	viper.SetDefault("tracing.sampler.type", "always_on")
}

// bindEnvVariables keeps the historical variable names working next to the
// dotted-path names produced by the key replacer.
func bindEnvVariables() {
	viper.BindEnv("slack.token", "SLACK_TOKEN")
	viper.BindEnv("slack.channel_id", "SLACK_CHANNEL_ID")
	viper.BindEnv("slack.api_url", "SLACK_API_URL")

	viper.BindEnv("poller.interval_ms", "POLLER_INTERVAL_MS", "POLL_INTERVAL_MS")
	viper.BindEnv("poller.backfill_seconds", "POLLER_BACKFILL_SECONDS", "BACKFILL_SECONDS")

	viper.BindEnv("jira.base_url", "JIRA_BASE_URL", "JIRA_BASE")
	viper.BindEnv("jira.email", "JIRA_EMAIL")
	viper.BindEnv("jira.api_token", "JIRA_API_TOKEN")
	viper.BindEnv("jira.project_key", "JIRA_PROJECT_KEY")
	viper.BindEnv("jira.issue_type", "JIRA_ISSUE_TYPE")
	viper.BindEnv("jira.priority_id", "JIRA_PRIORITY_ID")
	viper.BindEnv("jira.category_id", "JIRA_CATEGORY_ID", "JIRA_ASSUNTO_ID")
	viper.BindEnv("jira.category_default", "JIRA_CATEGORY_DEFAULT", "JIRA_ASSUNTO_DEFAULT")

	viper.BindEnv("cursor.backend", "CURSOR_BACKEND")
	viper.BindEnv("cursor.file", "CURSOR_FILE", "STATE_FILE")

	viper.BindEnv("server.port", "SERVER_PORT", "PORT")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("broker.type", "BROKER_TYPE")
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.topic", "BROKER_KAFKA_TOPIC")

	viper.BindEnv("logging.level", "LOGGING_LEVEL", "LOG_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	cfg.Jira.BaseURL = strings.TrimRight(cfg.Jira.BaseURL, "/")
}
