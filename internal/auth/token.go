package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTokenTTL  = time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour

	refreshIssueAttempts = 3
)

// Claims is the payload of an access token. The subject repeats the user id.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshTokenCreator persists a new refresh token record and reports
// repository.ErrDuplicateID when the id is taken.
type RefreshTokenCreator interface {
	Create(ctx context.Context, token *model.RefreshToken) error
}

// Issuer signs access tokens and mints refresh tokens.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      RefreshTokenCreator
	now        func() time.Time
	newID      func() string
}

func NewIssuer(secret string, accessTTL, refreshTTL time.Duration, store RefreshTokenCreator) *Issuer {
	if accessTTL <= 0 {
		accessTTL = DefaultAccessTokenTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTokenTTL
	}
	return &Issuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        utcNow,
		newID:      uuid.NewString,
	}
}

func utcNow() time.Time { return time.Now().UTC() }

// WithClock replaces the time source, returning the issuer for chaining.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Now reports the issuer's current time.
func (i *Issuer) Now() time.Time {
	return i.now()
}

func (i *Issuer) AccessTTL() time.Duration {
	return i.accessTTL
}

// RefreshTTL is the lifetime given to new refresh tokens.
func (i *Issuer) RefreshTTL() time.Duration {
	return i.refreshTTL
}

func (i *Issuer) IssueAccessToken(user *model.User) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken checks the signature first and the expiry second. A bad
// signature or malformed token yields ErrInvalidToken, an expired one ErrExpiredToken.
func (i *Issuer) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Wrap(apperror.ErrExpiredToken, err)
		}
		return nil, apperror.Wrap(apperror.ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, apperror.Wrap(apperror.ErrInvalidToken, errors.New("token has no userId"))
	}
	return claims, nil
}

// IssueRefreshToken persists a fresh random id for userID and returns it. A
// colliding id is retried with a new one.
func (i *Issuer) IssueRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	var lastErr error
	for attempt := 0; attempt < refreshIssueAttempts; attempt++ {
		record := &model.RefreshToken{
			ID:        i.newID(),
			UserID:    userID,
			ExpiresAt: i.now().Add(i.refreshTTL),
		}
		err := i.store.Create(ctx, record)
		if err == nil {
			return record.ID, nil
		}
		if !errors.Is(err, repository.ErrDuplicateID) {
			return "", fmt.Errorf("store refresh token: %w", err)
		}
		lastErr = err
	}
	return "", fmt.Errorf("store refresh token after %d attempts: %w", refreshIssueAttempts, lastErr)
}
