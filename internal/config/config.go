package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-registration/internal/identity"
	"github.com/ovaphlow/pitchfork/service-registration/internal/router"
	"github.com/ovaphlow/pitchfork/service-registration/internal/user"
	"github.com/ovaphlow/pitchfork/service-registration/pkg/database"
	"github.com/ovaphlow/pitchfork/service-registration/pkg/utilities"
)

type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8431"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	RateLimit       router.RateLimitConfig
}

// Config is the full service configuration, bound from the environment.
type Config struct {
	HTTP          HTTPConfig
	Database      database.Config
	Identity      identity.Config
	Registration  user.Config
	Log           utilities.Config
	SnowflakeNode int64 `env:"SNOWFLAKE_NODE" envDefault:"1"`
}

// Load reads an optional .env file, then parses and validates the environment.
func Load() (Config, error) {
	// best-effort: a missing .env is not an error
	_ = godotenv.Load()
	return Parse()
}

// Parse binds the current environment without touching .env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case database.DriverSQLite, database.DriverPostgres, database.DriverMongo:
	default:
		return fmt.Errorf("config: unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("config: DATABASE_URL is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: DATABASE_MAX_CONNS must be positive, got %d", c.Database.MaxConns)
	}

	c.Identity.Provider = strings.ToLower(strings.TrimSpace(c.Identity.Provider))
	switch c.Identity.Provider {
	case identity.ProviderOIDC:
		if c.Identity.Issuer == "" {
			return fmt.Errorf("config: IDENTITY_ISSUER is required for the oidc provider")
		}
	case identity.ProviderJWT:
		if c.Identity.SigningKey == "" {
			return fmt.Errorf("config: IDENTITY_SIGNING_KEY is required for the jwt provider")
		}
	default:
		return fmt.Errorf("config: unsupported IDENTITY_PROVIDER %q", c.Identity.Provider)
	}
	return nil
}
