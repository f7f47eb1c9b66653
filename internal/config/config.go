// internal/config/config.go
package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime settings for the auction service. Every field
// is populated from the environment with sensible development defaults.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"dev-jwt-secret-key"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"168h"`

	// ExpiryInterval controls how often the scheduler scans for expired
	// auctions.
	ExpiryInterval time.Duration `env:"EXPIRY_INTERVAL" envDefault:"30s"`

	// NotifyWebhookURL, when set, mirrors every emitted notification to an
	// external delivery channel. Delivery is best effort.
	NotifyWebhookURL string `env:"NOTIFY_WEBHOOK_URL"`

	OTLPEndpoint string `env:"OTLP_ENDPOINT"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogEncoding string `env:"LOG_ENCODING" envDefault:"json"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
