package identity

import (
	"context"
	"fmt"
	"time"
)

const (
	ProviderOIDC = "oidc"
	ProviderJWT  = "jwt"
)

type Config struct {
	Provider   string        `env:"IDENTITY_PROVIDER" envDefault:"oidc"`
	Issuer     string        `env:"IDENTITY_ISSUER"`
	Audience   string        `env:"IDENTITY_AUDIENCE"`
	SigningKey string        `env:"IDENTITY_SIGNING_KEY"`
	Timeout    time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"5s"`
}

// New builds the configured verifier wrapped with the verification timeout.
func New(ctx context.Context, cfg Config) (Verifier, error) {
	var (
		v   Verifier
		err error
	)
	switch cfg.Provider {
	case ProviderOIDC:
		v, err = NewOIDCVerifier(ctx, cfg.Issuer, cfg.Audience)
	case ProviderJWT:
		v, err = NewJWTVerifier(cfg.SigningKey, cfg.Issuer, cfg.Audience)
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(v, cfg.Timeout), nil
}
