package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier verifies ID tokens against an issuer discovered over OIDC.
// Firebase projects use issuer https://securetoken.google.com/<project-id>
// with the project id as audience.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer's configuration and signing keys.
// An empty audience disables the aud check.
func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	if issuer == "" {
		return nil, errors.New("oidc issuer is required")
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	cfg := &oidc.Config{ClientID: audience, SkipClientIDCheck: audience == ""}
	return &OIDCVerifier{verifier: provider.Verifier(cfg)}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, classifyOIDCError(err)
	}

	var claims struct {
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, invalid(fmt.Errorf("parse claims: %w", err))
	}
	return fromClaims(idToken.Subject, claims.Email)
}

func classifyOIDCError(err error) *TokenError {
	var exp *oidc.TokenExpiredError
	if errors.As(err, &exp) {
		return expired(err)
	}
	// go-oidc reports audience mismatches only as text
	if strings.Contains(err.Error(), "expected audience") {
		return forbidden(err)
	}
	return invalid(err)
}
