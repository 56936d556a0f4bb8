// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port" env:"HTTP_PORT"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`   // trace|debug|info|warn|error
	Format   string `yaml:"format" env:"LOG_FORMAT"` // json|console
	Sampling bool   `yaml:"sampling"`                // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url" env:"DATABASE_URL"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url" env:"REDIS_URL"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type RazorpayConfig struct {
	KeyID     string        `yaml:"key_id" env:"RAZORPAY_KEY_ID"`
	KeySecret string        `yaml:"key_secret" env:"RAZORPAY_KEY_SECRET"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

type PaymentConfig struct {
	Provider string         `yaml:"provider" env:"PAYMENT_PROVIDER"` // razorpay | noop
	Razorpay RazorpayConfig `yaml:"razorpay"`
}

// PricingConfig holds whole-currency-unit prices; orders are sent in minor
// units (x100).
type PricingConfig struct {
	Currency     string           `yaml:"currency"`
	DefaultPrice int64            `yaml:"default_price"`
	BundlePrices map[string]int64 `yaml:"bundle_prices"`
}

type EntitlementConfig struct {
	SingleRetentionDays int           `yaml:"single_retention_days"`
	BundleRetentionDays int           `yaml:"bundle_retention_days"`
	VerifyLockTTL       time.Duration `yaml:"verify_lock_ttl"`
}

type AuthConfig struct {
	JWTSecret           string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL            time.Duration `yaml:"token_ttl"`
	IdentityProviderKey string        `yaml:"identity_provider_key" env:"IDENTITY_PROVIDER_KEY"`
	AdminEmails         []string      `yaml:"admin_emails" env:"ADMIN_EMAILS" envSeparator:","`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

type SchedulerConfig struct {
	StatsCron string `yaml:"stats_cron"`
}

type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Log         LogConfig         `yaml:"log"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Payment     PaymentConfig     `yaml:"payment"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Entitlement EntitlementConfig `yaml:"entitlement"`
	Auth        AuthConfig        `yaml:"auth"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, applies environment overrides for secrets
// and connection strings, fills defaults and validates the result.
// A missing file is fine when everything required comes from the environment.
func LoadConfig(path string, dev bool) (*Config, error) {
	if dev {
		// .env is a development convenience only
		_ = godotenv.Load()
	}

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	cfg.Runtime.Dev = dev
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.RequestTimeout <= 0 {
		c.HTTP.RequestTimeout = 15 * time.Second
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	c.Redis.TTL = normalizeTTL(c.Redis.TTL)

	if c.Payment.Provider == "" {
		c.Payment.Provider = "razorpay"
	}
	c.Payment.Provider = strings.ToLower(c.Payment.Provider)
	if c.Payment.Razorpay.BaseURL == "" {
		c.Payment.Razorpay.BaseURL = "https://api.razorpay.com"
	}
	if c.Payment.Razorpay.Timeout <= 0 {
		c.Payment.Razorpay.Timeout = 10 * time.Second
	}

	if c.Pricing.Currency == "" {
		c.Pricing.Currency = "INR"
	}
	if c.Pricing.DefaultPrice <= 0 {
		c.Pricing.DefaultPrice = 499
	}
	if c.Pricing.BundlePrices == nil {
		c.Pricing.BundlePrices = map[string]int64{}
	}
	for _, k := range []string{"aspirants", "working_professionals", "seniorcitizen"} {
		if c.Pricing.BundlePrices[k] <= 0 {
			c.Pricing.BundlePrices[k] = 1999
		}
	}

	if c.Entitlement.SingleRetentionDays <= 0 {
		c.Entitlement.SingleRetentionDays = 45
	}
	if c.Entitlement.BundleRetentionDays <= 0 {
		c.Entitlement.BundleRetentionDays = 150
	}
	if c.Entitlement.VerifyLockTTL <= 0 {
		c.Entitlement.VerifyLockTTL = 30 * time.Second
	}

	if c.Auth.TokenTTL <= 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	for i, e := range c.Auth.AdminEmails {
		c.Auth.AdminEmails[i] = strings.ToLower(strings.TrimSpace(e))
	}

	if c.RateLimit.Requests <= 0 {
		c.RateLimit.Requests = 30
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = time.Minute
	}
	if c.Scheduler.StatsCron == "" {
		c.Scheduler.StatsCron = "@every 1m"
	}
}

// Validate performs minimal validation; dev mode relaxes gateway secrets.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	switch c.Payment.Provider {
	case "razorpay":
		if c.Payment.Razorpay.KeyID == "" || c.Payment.Razorpay.KeySecret == "" {
			return errors.New("payment.razorpay.key_id and key_secret are required")
		}
	case "noop":
		if !c.Runtime.Dev {
			return errors.New("payment.provider=noop is only allowed in dev mode")
		}
		if c.Payment.Razorpay.KeySecret == "" {
			return errors.New("payment.razorpay.key_secret is required to verify signatures")
		}
	default:
		return fmt.Errorf("unknown payment.provider %q", c.Payment.Provider)
	}
	return nil
}

// SingleRetention is how long a single-course purchase stays active.
func (e EntitlementConfig) SingleRetention() time.Duration {
	return time.Duration(e.SingleRetentionDays) * 24 * time.Hour
}

// BundleRetention is how long a category-bundle purchase stays active.
func (e EntitlementConfig) BundleRetention() time.Duration {
	return time.Duration(e.BundleRetentionDays) * 24 * time.Hour
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
