package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type StripeConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	FrontendURL   string `yaml:"frontend_url"` // base for default success/cancel redirects
}

type AdminConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type SchedulerConfig struct {
	ExpiryInterval       time.Duration `yaml:"expiry_interval"`
	ReminderInterval     time.Duration `yaml:"reminder_interval"`
	ReminderLeadDays     int           `yaml:"reminder_lead_days"`
	WebhookRetryInterval time.Duration `yaml:"webhook_retry_interval"`
	WebhookRetryLookback time.Duration `yaml:"webhook_retry_lookback"`
	ReconcileInterval    time.Duration `yaml:"reconcile_interval"`
	ReconcileStaleAfter  time.Duration `yaml:"reconcile_stale_after"`
	RetentionInterval    time.Duration `yaml:"retention_interval"`
	RetentionMaxAge      time.Duration `yaml:"retention_max_age"`
}

type Config struct {
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Stripe    StripeConfig    `yaml:"stripe"`
	Admin     AdminConfig     `yaml:"admin"`
	Mail      MailConfig      `yaml:"mail"`
	Scheduler SchedulerConfig `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads and validates the YAML config at path.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	applySchedulerDefaults(&cfg.Scheduler)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Stripe.SecretKey == "" {
		return nil, errors.New("stripe.secret_key is required")
	}
	if cfg.Stripe.WebhookSecret == "" {
		return nil, errors.New("stripe.webhook_secret is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applySchedulerDefaults(s *SchedulerConfig) {
	if s.ExpiryInterval <= 0 {
		s.ExpiryInterval = time.Hour
	}
	if s.ReminderInterval <= 0 {
		s.ReminderInterval = 24 * time.Hour
	}
	if s.ReminderLeadDays <= 0 {
		s.ReminderLeadDays = 3
	}
	if s.WebhookRetryInterval <= 0 {
		s.WebhookRetryInterval = 5 * time.Minute
	}
	if s.WebhookRetryLookback <= 0 {
		s.WebhookRetryLookback = 24 * time.Hour
	}
	if s.ReconcileInterval <= 0 {
		s.ReconcileInterval = time.Minute
	}
	if s.ReconcileStaleAfter <= 0 {
		s.ReconcileStaleAfter = 10 * time.Minute
	}
	if s.RetentionInterval <= 0 {
		s.RetentionInterval = 24 * time.Hour
	}
	if s.RetentionMaxAge <= 0 {
		s.RetentionMaxAge = 90 * 24 * time.Hour
	}
}
