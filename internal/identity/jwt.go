package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier verifies tokens signed with a statically configured key:
// an HMAC secret, or an RSA public key in PEM form.
type JWTVerifier struct {
	key      any
	methods  []string
	issuer   string
	audience string
}

type tokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func NewJWTVerifier(signingKey, issuer, audience string) (*JWTVerifier, error) {
	if signingKey == "" {
		return nil, errors.New("jwt signing key is required")
	}
	v := &JWTVerifier{issuer: issuer, audience: audience}
	if strings.Contains(signingKey, "-----BEGIN") {
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(signingKey))
		if err != nil {
			return nil, fmt.Errorf("parse rsa public key: %w", err)
		}
		v.key = pub
		v.methods = []string{"RS256", "RS384", "RS512"}
	} else {
		v.key = []byte(signingKey)
		v.methods = []string{"HS256", "HS384", "HS512"}
	}
	return v, nil
}

func (v *JWTVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods(v.methods), jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return v.key, nil
	}, opts...)
	if err != nil {
		return nil, classifyJWTError(err)
	}
	return fromClaims(claims.Subject, claims.Email)
}

func classifyJWTError(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return expired(err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return forbidden(err)
	default:
		return invalid(err)
	}
}
