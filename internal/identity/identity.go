// Package identity adapts external identity providers to a single contract:
// an opaque bearer token goes in, the subject and email it asserts come out.
// Adapters return facts only and never touch user storage.
package identity

import (
	"context"
	"errors"
)

// Identity is what a verified token asserts about its bearer.
type Identity struct {
	Subject string // provider-scoped unique user id (sub)
	Email   string
}

// Verifier checks a raw token. Every rejection is returned as a *TokenError.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Kind classifies why a token was rejected.
type Kind int

const (
	KindInvalid Kind = iota
	KindExpired
	KindInsufficientPermission
)

func (k Kind) String() string {
	switch k {
	case KindExpired:
		return "expired"
	case KindInsufficientPermission:
		return "insufficient_permission"
	default:
		return "invalid"
	}
}

// Message is the text shown to the caller for this kind.
func (k Kind) Message() string {
	switch k {
	case KindExpired:
		return "The provided token is expired"
	case KindInsufficientPermission:
		return "The provided token lacks required permissions"
	default:
		return "The provided token is invalid"
	}
}

// TokenError is a token rejection. Err keeps the provider's detail for logs.
type TokenError struct {
	Kind Kind
	Err  error
}

func (e *TokenError) Error() string {
	if e.Err == nil {
		return "token " + e.Kind.String()
	}
	return "token " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *TokenError) Unwrap() error { return e.Err }

func invalid(err error) *TokenError   { return &TokenError{Kind: KindInvalid, Err: err} }
func expired(err error) *TokenError   { return &TokenError{Kind: KindExpired, Err: err} }
func forbidden(err error) *TokenError { return &TokenError{Kind: KindInsufficientPermission, Err: err} }

// KindOf reports the rejection kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var te *TokenError
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// fromClaims enforces the claims every provider must supply.
func fromClaims(subject, email string) (*Identity, error) {
	if subject == "" {
		return nil, invalid(errors.New("token has no subject"))
	}
	if email == "" {
		return nil, forbidden(errors.New("token carries no email claim"))
	}
	return &Identity{Subject: subject, Email: email}, nil
}
