package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Events     EventsConfig     `mapstructure:"events"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Outbox     OutboxConfig     `mapstructure:"outbox"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	AllowOrigins   []string      `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host" envconfig:"DB_HOST" default:"localhost"`
	Port            int           `mapstructure:"port" envconfig:"DB_PORT" default:"5432"`
	User            string        `mapstructure:"user" envconfig:"DB_USER" default:"postgres"`
	Password        string        `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name            string        `mapstructure:"name" envconfig:"DB_NAME" default:"barber"`
	SSLMode         string        `mapstructure:"sslmode" envconfig:"DB_SSL_MODE" default:"disable"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url" envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`
	MaxRetries   int           `mapstructure:"max_retries" envconfig:"REDIS_MAX_RETRIES" default:"3"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" envconfig:"REDIS_RETRY_BACKOFF" default:"100ms"`
	PoolSize     int           `mapstructure:"pool_size" envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `mapstructure:"min_idle_conns" envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
}

type KafkaConfig struct {
	Brokers string `mapstructure:"brokers" envconfig:"KAFKA_BROKERS"`
}

// EventsConfig selects the broker the outbox publishes to: "redis", "kafka" or "none".
type EventsConfig struct {
	Broker      string `mapstructure:"broker" envconfig:"EVENTS_BROKER" default:"redis"`
	TopicPrefix string `mapstructure:"topic_prefix" envconfig:"EVENTS_TOPIC_PREFIX" default:"barber"`
}

type CacheConfig struct {
	CalendarTTL     time.Duration `mapstructure:"calendar_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// Missing hours policies.
const (
	MissingHoursDefault = "default"
	MissingHoursClosed  = "closed"
)

type SchedulingConfig struct {
	MissingHoursPolicy    string        `mapstructure:"missing_hours_policy"`
	DefaultOpen           string        `mapstructure:"default_open"`
	DefaultClose          string        `mapstructure:"default_close"`
	RequireEndWithinHours bool          `mapstructure:"require_end_within_hours"`
	MaxAppointmentLength  time.Duration `mapstructure:"max_appointment_length"`
	AvailabilityStep      time.Duration `mapstructure:"availability_step"`
	DefaultCommissionRate float64       `mapstructure:"default_commission_rate"`
}

type WorkerConfig struct {
	Embedded      bool          `mapstructure:"embedded"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	SweepBatch    int           `mapstructure:"sweep_batch"`
}

type OutboxConfig struct {
	BatchSize     int           `mapstructure:"batch_size" envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	PollInterval  time.Duration `mapstructure:"poll_interval" envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	RetryAttempts int           `mapstructure:"retry_attempts" envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `mapstructure:"retry_delay" envconfig:"OUTBOX_RETRY_DELAY" default:"500ms"`
	Retention     time.Duration `mapstructure:"retention" envconfig:"OUTBOX_RETENTION" default:"168h"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" envconfig:"LOG_LEVEL" default:"info"`
	Format string `mapstructure:"format" envconfig:"LOG_FORMAT" default:"console"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `mapstructure:"prometheus_enabled"`
	MetricsPath       string `mapstructure:"metrics_path"`
	Namespace         string `mapstructure:"namespace" envconfig:"METRICS_NAMESPACE" default:"barber"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "barber")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)

	v.SetDefault("events.broker", "redis")
	v.SetDefault("events.topic_prefix", "barber")

	v.SetDefault("cache.calendar_ttl", 5*time.Minute)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("scheduling.missing_hours_policy", MissingHoursDefault)
	v.SetDefault("scheduling.default_open", "08:00")
	v.SetDefault("scheduling.default_close", "18:00")
	v.SetDefault("scheduling.require_end_within_hours", false)
	v.SetDefault("scheduling.max_appointment_length", 8*time.Hour)
	v.SetDefault("scheduling.availability_step", 15*time.Minute)
	v.SetDefault("scheduling.default_commission_rate", 50.0)

	v.SetDefault("worker.embedded", true)
	v.SetDefault("worker.sweep_interval", time.Minute)
	v.SetDefault("worker.sweep_batch", 100)

	v.SetDefault("outbox.batch_size", 50)
	v.SetDefault("outbox.poll_interval", 2*time.Second)
	v.SetDefault("outbox.retry_attempts", 3)
	v.SetDefault("outbox.retry_delay", 500*time.Millisecond)
	v.SetDefault("outbox.retention", 7*24*time.Hour)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 50.0)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("auth.issuer", "barber-auth")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("monitoring.prometheus_enabled", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.namespace", "barber")
}

// LoadConfig reads config.yaml from the usual locations, then lets the environment override it
// (server.port -> SERVER_PORT). A missing file is not an error.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app/config")

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	switch c.Scheduling.MissingHoursPolicy {
	case MissingHoursDefault, MissingHoursClosed:
	default:
		return fmt.Errorf("invalid scheduling.missing_hours_policy %q", c.Scheduling.MissingHoursPolicy)
	}
	if c.Scheduling.MaxAppointmentLength <= 0 {
		return fmt.Errorf("scheduling.max_appointment_length must be positive")
	}
	if c.Scheduling.DefaultCommissionRate < 0 || c.Scheduling.DefaultCommissionRate > 100 {
		return fmt.Errorf("scheduling.default_commission_rate must be within [0, 100]")
	}
	switch c.Events.Broker {
	case "redis", "kafka", "none":
	default:
		return fmt.Errorf("invalid events.broker %q", c.Events.Broker)
	}
	return nil
}
