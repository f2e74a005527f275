package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"alertbridge/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// ValidateStatic checks every section and joins all failures, so one run
// reports every missing variable.
func ValidateStatic(cfg *Config) error {
	var errs []error

	for _, validate := range []func(*Config) error{
		func(c *Config) error { return validateServer(c.Server) },
		func(c *Config) error { return validateSlack(c.Slack) },
		func(c *Config) error { return validateJira(c.Jira) },
		func(c *Config) error { return validatePoller(c.Poller) },
		func(c *Config) error { return validateCursor(c.Cursor, c.Database) },
		func(c *Config) error { return validateBroker(c.Broker) },
		func(c *Config) error { return validateClassifier(c.Classifier) },
		func(c *Config) error { return validateLogging(c.Logging) },
	} {
		if err := validate(cfg); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{Field: field, Message: "value is required"}
	}
	return nil
}

func validatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", port),
		}
	}
	return nil
}

func validateServer(cfg ServerConfig) error {
	if err := validatePort("server.port", cfg.Port); err != nil {
		return err
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RPS <= 0 {
			return &ValidationError{
				Field:   "server.rate_limit.rps",
				Message: "rate limit rps must be positive",
			}
		}
		if cfg.RateLimit.Burst < 1 {
			return &ValidationError{
				Field:   "server.rate_limit.burst",
				Message: "rate limit burst must be at least 1",
			}
		}
	}

	return nil
}

func validateSlack(cfg SlackConfig) error {
	if err := required("slack.token", cfg.Token); err != nil {
		return err
	}
	if err := required("slack.channel_id", cfg.ChannelID); err != nil {
		return err
	}

	if cfg.HistoryLimit < 1 || cfg.HistoryLimit > constants.MaxHistoryLimit {
		return &ValidationError{
			Field:   "slack.history_limit",
			Message: fmt.Sprintf("history limit must be between 1 and %d, got %d", constants.MaxHistoryLimit, cfg.HistoryLimit),
		}
	}

	if cfg.RateLimitRPS <= 0 {
		return &ValidationError{
			Field:   "slack.rate_limit_rps",
			Message: "rate limit must be positive",
		}
	}

	return validateRetry("slack.retry", cfg.Retry)
}

func validateRetry(prefix string, cfg RetryConfig) error {
	if cfg.MaxAttempts < 1 {
		return &ValidationError{
			Field:   prefix + ".max_attempts",
			Message: "max_attempts must be at least 1",
		}
	}

	if cfg.InitialInterval < 0 || cfg.MaxInterval < 0 {
		return &ValidationError{
			Field:   prefix + ".initial_interval",
			Message: "intervals must be non-negative",
		}
	}

	if cfg.MaxInterval > 0 && cfg.InitialInterval > 0 && cfg.MaxInterval < cfg.InitialInterval {
		return &ValidationError{
			Field:   prefix + ".max_interval",
			Message: "max_interval must be greater than or equal to initial_interval",
		}
	}

	if cfg.Multiplier <= 0 {
		return &ValidationError{
			Field:   prefix + ".multiplier",
			Message: "multiplier must be positive",
		}
	}

	return nil
}

func validateJira(cfg JiraConfig) error {
	if err := required("jira.base_url", cfg.BaseURL); err != nil {
		return err
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{
			Field:   "jira.base_url",
			Message: fmt.Sprintf("must be an absolute http(s) URL, got %q", cfg.BaseURL),
		}
	}

	for field, value := range map[string]string{
		"jira.email":          cfg.Email,
		"jira.api_token":      cfg.APIToken,
		"jira.project_key":    cfg.ProjectKey,
		"jira.issue_type":     cfg.IssueType,
		"jira.category_field": cfg.CategoryField,
	} {
		if err := required(field, value); err != nil {
			return err
		}
	}

	if cfg.TimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "jira.timeout_seconds",
			Message: "timeout must be positive",
		}
	}

	return nil
}

func validatePoller(cfg PollerConfig) error {
	if cfg.IntervalMS <= 0 {
		return &ValidationError{
			Field:   "poller.interval_ms",
			Message: "poll interval must be positive",
		}
	}

	if cfg.BackfillSeconds < 0 {
		return &ValidationError{
			Field:   "poller.backfill_seconds",
			Message: "backfill window must be non-negative",
		}
	}

	return nil
}

func validateCursor(cfg CursorConfig, db DatabaseConfig) error {
	switch cfg.Backend {
	case constants.CursorBackendFile:
		return required("cursor.file", cfg.File)
	case constants.CursorBackendRedis:
		if err := required("cursor.redis_key", cfg.RedisKey); err != nil {
			return err
		}
		return validateRedis(db.Redis)
	case constants.CursorBackendPostgres:
		return validatePostgres(db.Postgres)
	default:
		return &ValidationError{
			Field:   "cursor.backend",
			Message: fmt.Sprintf("unknown cursor backend: %s (supported: file, redis, postgres)", cfg.Backend),
		}
	}
}

func validatePostgres(cfg PostgresConfig) error {
	if err := required("database.postgres.host", cfg.Host); err != nil {
		return err
	}

	if err := validatePort("database.postgres.port", cfg.Port); err != nil {
		return err
	}

	if err := required("database.postgres.user", cfg.User); err != nil {
		return err
	}

	if err := required("database.postgres.dbname", cfg.DBName); err != nil {
		return err
	}

	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if cfg.SSLMode != "" && !validSSLModes[strings.ToLower(cfg.SSLMode)] {
		return &ValidationError{
			Field:   "database.postgres.sslmode",
			Message: fmt.Sprintf("invalid SSL mode: %s (valid: disable, allow, prefer, require, verify-ca, verify-full)", cfg.SSLMode),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if err := required("database.redis.host", cfg.Host); err != nil {
		return err
	}
	return validatePort("database.redis.port", cfg.Port)
}

func validateBroker(cfg BrokerConfig) error {
	switch cfg.Type {
	case "", constants.BrokerTypeNone:
		return nil
	case constants.BrokerTypeKafka:
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: none, kafka)", cfg.Type),
		}
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Kafka.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	return required("broker.kafka.topic", cfg.Kafka.Topic)
}

func validateClassifier(cfg ClassifierConfig) error {
	seen := make(map[string]bool, len(cfg.SuppressRules))
	for i, rule := range cfg.SuppressRules {
		field := fmt.Sprintf("classifier.suppress_rules[%d]", i)
		if err := required(field+".name", rule.Name); err != nil {
			return err
		}
		if err := required(field+".expression", rule.Expression); err != nil {
			return err
		}
		if seen[rule.Name] {
			return &ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate rule name %q", rule.Name)}
		}
		seen[rule.Name] = true
	}
	return nil
}

func validateLogging(cfg LoggingConfig) error {
	switch cfg.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", cfg.Level),
		}
	}

	switch cfg.Format {
	case "", "json", "console":
		return nil
	default:
		return &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: json, console)", cfg.Format),
		}
	}
}
