package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"aklny/internal/apperror"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKID = "test-key"

func newTestVerifier(t *testing.T, audiences ...string) (*GoogleVerifier, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := keyfunc.NewGiven(map[string]keyfunc.GivenKey{
		testKID: keyfunc.NewGivenRSA(&key.PublicKey, keyfunc.GivenKeyOptions{Algorithm: jwt.SigningMethodRS256.Alg()}),
	})
	return NewGoogleVerifierWithKeys(jwks.Keyfunc, audiences), key
}

func signGoogleToken(t *testing.T, key *rsa.PrivateKey, claims googleClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = testKID
	signed, err := tok.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validGoogleClaims(aud string) googleClaims {
	return googleClaims{
		Email:         "g@x.com",
		EmailVerified: true,
		Name:          "Gee User",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://accounts.google.com",
			Subject:   "google-sub-1",
			Audience:  jwt.ClaimStrings{aud},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestGoogleVerifier_AcceptsAnyConfiguredAudience(t *testing.T) {
	v, key := newTestVerifier(t, "web-client", "android-client")

	for _, aud := range []string{"web-client", "android-client"} {
		identity, err := v.Verify(context.Background(), signGoogleToken(t, key, validGoogleClaims(aud)))
		require.NoError(t, err, aud)
		assert.Equal(t, "google-sub-1", identity.Subject)
		assert.Equal(t, "g@x.com", identity.Email)
		assert.Equal(t, "Gee User", identity.Name)
	}
}

func TestGoogleVerifier_Rejections(t *testing.T) {
	v, key := newTestVerifier(t, "web-client")
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token func() string
	}{
		{"unknown audience", func() string {
			return signGoogleToken(t, key, validGoogleClaims("someone-else"))
		}},
		{"wrong issuer", func() string {
			c := validGoogleClaims("web-client")
			c.Issuer = "https://evil.example.com"
			return signGoogleToken(t, key, c)
		}},
		{"expired", func() string {
			c := validGoogleClaims("web-client")
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			return signGoogleToken(t, key, c)
		}},
		{"missing email", func() string {
			c := validGoogleClaims("web-client")
			c.Email = ""
			return signGoogleToken(t, key, c)
		}},
		{"foreign signature", func() string {
			return signGoogleToken(t, otherKey, validGoogleClaims("web-client"))
		}},
		{"garbage", func() string { return "abc.def.ghi" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token())
			assert.ErrorIs(t, err, apperror.ErrInvalidProviderToken)
		})
	}
}

func TestGoogleVerifier_NameFallsBackToEmail(t *testing.T) {
	v, key := newTestVerifier(t, "web-client")
	c := validGoogleClaims("web-client")
	c.Name = ""

	identity, err := v.Verify(context.Background(), signGoogleToken(t, key, c))
	require.NoError(t, err)
	assert.Equal(t, "g@x.com", identity.Name)
}

func TestGoogleVerifier_NoAudiencesConfigured(t *testing.T) {
	v, key := newTestVerifier(t)

	_, err := v.Verify(context.Background(), signGoogleToken(t, key, validGoogleClaims("web-client")))
	assert.ErrorIs(t, err, apperror.ErrInvalidProviderToken)
}
