package auth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/blues/propdao/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":            "did:privy:abc",
		"email":          "a@example.com",
		"wallet_address": "0xAbC",
		"iss":            "privy.io",
		"aud":            "propdao",
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
}

func TestJWTVerifierHS256(t *testing.T) {
	verifier, err := NewJWTVerifier(config.AuthConfig{JWTSecret: testSecret, Issuer: "privy.io", Audience: "propdao"})
	require.NoError(t, err)

	claims, err := verifier.Verify(context.Background(), signHS256(t, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, &Claims{Subject: "did:privy:abc", Email: "a@example.com", WalletAddress: "0xAbC"}, claims)
}

func TestJWTVerifierRejects(t *testing.T) {
	verifier, err := NewJWTVerifier(config.AuthConfig{JWTSecret: testSecret, Issuer: "privy.io", Audience: "propdao"})
	require.NoError(t, err)

	mutate := func(f func(jwt.MapClaims)) string {
		claims := validClaims()
		f(claims)
		return signHS256(t, claims)
	}

	tests := map[string]struct {
		token string
		want  error
	}{
		"empty":          {"", ErrMissingToken},
		"garbage":        {"not-a-jwt", ErrInvalidToken},
		"expired":        {mutate(func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }), ErrInvalidToken},
		"no expiry":      {mutate(func(c jwt.MapClaims) { delete(c, "exp") }), ErrInvalidToken},
		"wrong issuer":   {mutate(func(c jwt.MapClaims) { c["iss"] = "evil" }), ErrInvalidToken},
		"wrong audience": {mutate(func(c jwt.MapClaims) { c["aud"] = "other" }), ErrInvalidToken},
		"no subject":     {mutate(func(c jwt.MapClaims) { delete(c, "sub") }), ErrMissingSubject},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := verifier.Verify(context.Background(), tt.token)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = verifier.Verify(context.Background(), other)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTVerifierES256(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	verifier, err := NewJWTVerifier(config.AuthConfig{JWTPublicKey: string(publicPEM)})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, validClaims()).SignedString(key)
	require.NoError(t, err)
	claims, err := verifier.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "did:privy:abc", claims.Subject)

	// HS256 令牌不能通过 ES256 校验
	_, err = verifier.Verify(context.Background(), signHS256(t, validClaims()))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTVerifierRequiresKey(t *testing.T) {
	_, err := NewJWTVerifier(config.AuthConfig{})
	assert.Error(t, err)

	_, err = NewJWTVerifier(config.AuthConfig{JWTPublicKey: "not pem"})
	assert.Error(t, err)
}
