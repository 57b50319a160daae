package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aklny/internal/apperror"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var googleIssuers = map[string]bool{
	"accounts.google.com":         true,
	"https://accounts.google.com": true,
}

// ProviderIdentity is the verified payload of an external ID token.
type ProviderIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// ProviderVerifier validates an external identity provider token.
type ProviderVerifier interface {
	Verify(ctx context.Context, idToken string) (*ProviderIdentity, error)
}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// GoogleVerifier checks Google ID tokens against Google's published signing keys
// and the full list of accepted OAuth client ids.
type GoogleVerifier struct {
	keyfunc   jwt.Keyfunc
	audiences []string
	now       func() time.Time
	closer    func()
}

// NewGoogleVerifier fetches the JWKS at jwksURL and keeps it refreshed in the
// background until Close is called.
func NewGoogleVerifier(jwksURL string, audiences []string, logger *zap.Logger) (*GoogleVerifier, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			logger.Warn("google jwks refresh failed", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load google jwks: %w", err)
	}
	v := NewGoogleVerifierWithKeys(jwks.Keyfunc, audiences)
	v.closer = jwks.EndBackground
	return v, nil
}

// NewGoogleVerifierWithKeys builds a verifier over an existing key source.
func NewGoogleVerifierWithKeys(kf jwt.Keyfunc, audiences []string) *GoogleVerifier {
	return &GoogleVerifier{keyfunc: kf, audiences: audiences, now: time.Now}
}

func (v *GoogleVerifier) Close() {
	if v.closer != nil {
		v.closer()
	}
}

func (v *GoogleVerifier) Verify(_ context.Context, idToken string) (*ProviderIdentity, error) {
	if len(v.audiences) == 0 {
		return nil, apperror.Wrap(apperror.ErrInvalidProviderToken, errors.New("no google client ids configured"))
	}

	claims := &googleClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, v.keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.audiences...),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, apperror.Wrap(apperror.ErrInvalidProviderToken, err)
	}
	if !googleIssuers[claims.Issuer] {
		return nil, apperror.Wrap(apperror.ErrInvalidProviderToken, fmt.Errorf("unexpected issuer %q", claims.Issuer))
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil, apperror.Wrap(apperror.ErrInvalidProviderToken, errors.New("token lacks subject or email"))
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}
	return &ProviderIdentity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          name,
		Picture:       claims.Picture,
	}, nil
}
