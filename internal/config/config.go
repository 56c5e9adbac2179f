package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr    string `mapstructure:"HTTP_ADDR"`
	PostgresDSN string `mapstructure:"POSTGRES_DSN"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	RedisPass   string `mapstructure:"REDIS_PASSWORD"`
	RedisDB     int    `mapstructure:"REDIS_DB"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	AuthEventsTopic string `mapstructure:"AUTH_EVENTS_TOPIC"`
	KafkaGroupID    string `mapstructure:"KAFKA_GROUP_ID"`

	// Key settings accept inline PEM or a path to a PEM file.
	PrivAccessKey  string `mapstructure:"PRIV_ACCESS_KEY"`
	PubAccessKey   string `mapstructure:"PUB_ACCESS_KEY"`
	PrivRefreshKey string `mapstructure:"PRIV_REFRESH_KEY"`
	PubRefreshKey  string `mapstructure:"PUB_REFRESH_KEY"`
	JWTIssuer      string `mapstructure:"JWT_ISSUER"`
	AccessTTLRaw   string `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTTLRaw  string `mapstructure:"REFRESH_TOKEN_TTL"`

	CookieSecure   bool   `mapstructure:"COOKIE_SECURE"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	PolicyFile     string `mapstructure:"POLICY_FILE"`

	LogLevel     string `mapstructure:"LOG_LEVEL"`
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using environment", "error", err)
	}

	v := viper.New()
	v.AutomaticEnv()

	_ = v.BindEnv("HTTP_ADDR")
	_ = v.BindEnv("PORT")
	v.SetDefault("POSTGRES_DSN", "host=localhost user=postgres password=postgres dbname=blog sslmode=disable")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("AUTH_EVENTS_TOPIC", "auth-events")
	v.SetDefault("KAFKA_GROUP_ID", "blog-auth-auditor")
	v.SetDefault("PRIV_ACCESS_KEY", "")
	v.SetDefault("PUB_ACCESS_KEY", "")
	v.SetDefault("PRIV_REFRESH_KEY", "")
	v.SetDefault("PUB_REFRESH_KEY", "")
	v.SetDefault("JWT_ISSUER", "blog-api")
	v.SetDefault("ACCESS_TOKEN_TTL", "10m")
	v.SetDefault("REFRESH_TOKEN_TTL", "720h") // 30d
	v.SetDefault("COOKIE_SECURE", true)
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("POLICY_FILE", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
		// PORT is what most hosting platforms set.
		if port := v.GetString("PORT"); port != "" {
			cfg.HTTPAddr = ":" + port
		}
	}

	slog.Info("config loaded",
		"http_addr", cfg.HTTPAddr,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokerList(),
		"jwt_issuer", cfg.JWTIssuer)
	return &cfg, nil
}

// Validate checks the settings the API server cannot start without.
func (c *Config) Validate() error {
	if c.PrivAccessKey == "" || c.PrivRefreshKey == "" {
		return errors.New("config: PRIV_ACCESS_KEY and PRIV_REFRESH_KEY must be set")
	}
	if c.PrivAccessKey == c.PrivRefreshKey {
		return errors.New("config: access and refresh tokens must use different keys")
	}
	return nil
}

// AccessTTL returns 10m if ACCESS_TOKEN_TTL is unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseTTL(c.AccessTTLRaw, 10*time.Minute)
}

// RefreshTTL returns 30 days if REFRESH_TOKEN_TTL is unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseTTL(c.RefreshTTLRaw, 30*24*time.Hour)
}

func parseTTL(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func (c *Config) KafkaBrokerList() []string {
	return splitList(c.KafkaBrokers)
}

func (c *Config) AllowedOriginList() []string {
	return splitList(c.AllowedOrigins)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
