package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AccessToken string `mapstructure:"mp_access_token"`
	BaseURL     string `mapstructure:"mp_base_url"`

	HTTPAddr          string `mapstructure:"http_addr"`
	DashboardUser     string `mapstructure:"dashboard_user"`
	DashboardPassword string `mapstructure:"dashboard_password"`

	DatabaseDriver string `mapstructure:"database_driver"`
	DatabasePath   string `mapstructure:"database_path"`
	DatabaseURL    string `mapstructure:"database_url"`

	PollInterval        time.Duration `mapstructure:"poll_interval"`
	RateLimitPause      time.Duration `mapstructure:"rate_limit_pause"`
	FetchTimeout        time.Duration `mapstructure:"fetch_timeout"`
	FetchAttempts       int           `mapstructure:"fetch_attempts"`
	FetchRetryDelay     time.Duration `mapstructure:"fetch_retry_delay"`
	DispatchConcurrency int           `mapstructure:"dispatch_concurrency"`

	RedisAddr      string        `mapstructure:"redis_addr"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`

	KafkaBrokers   []string      `mapstructure:"kafka_brokers"`
	KafkaTopic     string        `mapstructure:"kafka_topic"`
	OutboxInterval time.Duration `mapstructure:"outbox_interval"`

	SpeechCommand string `mapstructure:"speech_command"`
	SpeechRate    int    `mapstructure:"speech_rate"`
	SpeechVoice   string `mapstructure:"speech_voice"`

	LogLevel string `mapstructure:"log_level"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var ErrUnknownDriver = errors.New("unknown database driver")

func defaults() map[string]any {
	return map[string]any{
		"mp_access_token":      "",
		"mp_base_url":          "https://api.mercadopago.com",
		"http_addr":            ":5000",
		"dashboard_user":       "admin",
		"dashboard_password":   "",
		"database_driver":      DriverSQLite,
		"database_path":        "payments.db",
		"database_url":         "",
		"poll_interval":        60 * time.Second,
		"rate_limit_pause":     60 * time.Second,
		"fetch_timeout":        15 * time.Second,
		"fetch_attempts":       3,
		"fetch_retry_delay":    2 * time.Second,
		"dispatch_concurrency": 8,
		"redis_addr":           "",
		"idempotency_ttl":      10 * time.Minute,
		"kafka_brokers":        []string{},
		"kafka_topic":          "payments.recorded",
		"outbox_interval":      time.Second,
		"speech_command":       "espeak",
		"speech_rate":          120,
		"speech_voice":         "es-la",
		"log_level":            "info",
	}
}

// Load reads defaults, then envFile (dotenv format, optional), then the
// process environment.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, err
			}
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres, DriverMemory:
	default:
		return ErrUnknownDriver
	}
	if c.FetchAttempts < 1 {
		c.FetchAttempts = 1
	}
	if c.DispatchConcurrency < 1 {
		c.DispatchConcurrency = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Minute
	}
	if c.OutboxInterval <= 0 {
		c.OutboxInterval = time.Second
	}
	return nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
