// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains every knob the server binary reads.
type Config struct {
	Debug   bool    `env:"DEBUG" envDefault:"false"`
	Server  Server  `envPrefix:"SERVER_"`
	Auth    Auth    `envPrefix:"AUTH_"`
	Session Session `envPrefix:"SESSION_"`
	DB      DB      `envPrefix:"DATABASE_"`
	Storage Storage `envPrefix:"MINIO_"`
}

// Server contains the HTTP listener parameters.
type Server struct {
	Address  string `env:"ADDRESS" envDefault:":8080"`
	ViewsDir string `env:"VIEWS_DIR" envDefault:"./views"`
}

// Auth contains token minting and cooldown parameters.
type Auth struct {
	SigningKey      string        `env:"SIGNING_KEY" envDefault:"devsecret"`
	TokenExpiration int           `env:"TOKEN_EXPIRATION" envDefault:"24"`
	Issuer          string        `env:"ISSUER" envDefault:"go-session"`
	ResetTTL        time.Duration `env:"RESET_TTL" envDefault:"1h"`
}

// Session contains the bootstrap and enrichment tuning the manager reads.
type Session struct {
	BootstrapTimeout   time.Duration `env:"BOOTSTRAP_TIMEOUT" envDefault:"5s"`
	EnrichmentAttempts int           `env:"ENRICHMENT_ATTEMPTS" envDefault:"3"`
	EnrichmentBackoff  time.Duration `env:"ENRICHMENT_BACKOFF" envDefault:"500ms"`
	LoginRoute         string        `env:"LOGIN_ROUTE" envDefault:"/login"`
}

// DB contains database connection parameters.
type DB struct {
	DSN string `env:"DSN" envDefault:"file::memory:?cache=shared"`
}

// Storage contains object storage parameters.
type Storage struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"site-assets"`
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:9000"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// New loads configuration from environment variables.
func New() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// GetBootstrapTimeout bounds how long the manager may stay loading.
func (c *Config) GetBootstrapTimeout() time.Duration {
	return c.Session.BootstrapTimeout
}

func (c *Config) GetEnrichmentAttempts() int {
	return c.Session.EnrichmentAttempts
}

func (c *Config) GetEnrichmentBackoff() time.Duration {
	return c.Session.EnrichmentBackoff
}

// GetLoginRoute is the route password reset links redirect back to.
func (c *Config) GetLoginRoute() string {
	return c.Session.LoginRoute
}
