package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789abcdef0123"

func signHS(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   "https://issuer.test",
		"aud":   "registration",
		"sub":   "uid-1",
		"email": "ada@example.com",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func TestJWTVerifierAccepts(t *testing.T) {
	v, err := NewJWTVerifier(testSecret, "https://issuer.test", "registration")
	require.NoError(t, err)

	id, err := v.Verify(context.Background(), signHS(t, baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, &Identity{Subject: "uid-1", Email: "ada@example.com"}, id)
}

func TestJWTVerifierRejections(t *testing.T) {
	v, err := NewJWTVerifier(testSecret, "https://issuer.test", "registration")
	require.NoError(t, err)

	cases := []struct {
		name   string
		mutate func(jwt.MapClaims)
		token  string
		want   Kind
	}{
		{name: "expired", mutate: func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Minute).Unix() }, want: KindExpired},
		{name: "missing exp", mutate: func(c jwt.MapClaims) { delete(c, "exp") }, want: KindInvalid},
		{name: "wrong audience", mutate: func(c jwt.MapClaims) { c["aud"] = "other-app" }, want: KindInsufficientPermission},
		{name: "wrong issuer", mutate: func(c jwt.MapClaims) { c["iss"] = "https://evil.test" }, want: KindInvalid},
		{name: "no subject", mutate: func(c jwt.MapClaims) { delete(c, "sub") }, want: KindInvalid},
		{name: "no email", mutate: func(c jwt.MapClaims) { delete(c, "email") }, want: KindInsufficientPermission},
		{name: "garbage", token: "not-a-jwt", want: KindInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token := tc.token
			if token == "" {
				c := baseClaims()
				tc.mutate(c)
				token = signHS(t, c)
			}
			_, err := v.Verify(context.Background(), token)
			kind, ok := KindOf(err)
			require.True(t, ok, "expected token error, got %v", err)
			assert.Equal(t, tc.want, kind)
		})
	}
}

func TestJWTVerifierRejectsForeignSignature(t *testing.T) {
	v, err := NewJWTVerifier(testSecret, "", "")
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, baseClaims()).SignedString([]byte("another-secret"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), forged)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindInvalid, kind)
}

func TestJWTVerifierRSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	v, err := NewJWTVerifier(pemKey, "", "registration")
	require.NoError(t, err)

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims()).SignedString(key)
	require.NoError(t, err)
	id, err := v.Verify(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, "uid-1", id.Subject)

	// an HMAC token must not pass against an RSA key
	_, err = v.Verify(context.Background(), signHS(t, baseClaims()))
	assert.Error(t, err)
}

func TestNewJWTVerifierRequiresKey(t *testing.T) {
	_, err := NewJWTVerifier("", "", "")
	assert.Error(t, err)

	_, err = NewJWTVerifier("-----BEGIN PUBLIC KEY-----\nbroken\n-----END PUBLIC KEY-----", "", "")
	assert.Error(t, err)
}
