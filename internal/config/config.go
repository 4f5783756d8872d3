package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Stripe   StripeConfig   `mapstructure:"stripe"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
}

// ServerConfig.AllowedOrigins defaults to the origin of Checkout.BaseURL.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// RedisConfig is optional; an empty URL selects the in-process fallbacks.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
	Currency      string `mapstructure:"currency"`
}

type CheckoutConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	MetadataLimit int    `mapstructure:"metadata_limit"`
	RatePerMinute int    `mapstructure:"rate_per_minute"`
}

var defaults = map[string]interface{}{
	"server.addr":              ":8080",
	"server.allowed_origins":   []string{},
	"db.dsn":                   "",
	"db.max_open_conns":        10,
	"redis.url":                "",
	"auth.jwt_secret":          "",
	"auth.token_ttl":           24 * time.Hour,
	"stripe.secret_key":        "",
	"stripe.webhook_secret":    "",
	"stripe.currency":          "usd",
	"checkout.base_url":        "http://localhost:5173",
	"checkout.metadata_limit":  500,
	"checkout.rate_per_minute": 10,
}

// LoadConfig reads .env (if present), an optional config.yaml and SCHOOLPACK_* environment variables.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./deploy/")
	v.AddConfigPath("./")
	v.AddConfigPath("/etc/schoolpack/")

	v.SetEnvPrefix("SCHOOLPACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if len(config.Server.AllowedOrigins) == 0 {
		if origin := originOf(config.Checkout.BaseURL); origin != "" {
			config.Server.AllowedOrigins = []string{origin}
		}
	}
	return &config, nil
}

func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Validate reports the first missing setting required to serve traffic.
func (c *Config) Validate() error {
	switch {
	case c.DB.DSN == "":
		return fmt.Errorf("db.dsn is required")
	case c.Auth.JWTSecret == "":
		return fmt.Errorf("auth.jwt_secret is required")
	case c.Stripe.SecretKey == "":
		return fmt.Errorf("stripe.secret_key is required")
	case c.Checkout.BaseURL == "":
		return fmt.Errorf("checkout.base_url is required")
	}
	// Credentialed CORS and websocket origin checks need explicit origins.
	for _, o := range c.Server.AllowedOrigins {
		if o == "*" {
			return fmt.Errorf("server.allowed_origins must list explicit origins, not *")
		}
	}
	return nil
}
