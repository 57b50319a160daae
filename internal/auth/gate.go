package auth

import (
	"context"
	"strings"

	"aklny/internal/apperror"

	"go.uber.org/zap"
)

// AccessTokenVerifier turns an access token into claims.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (*Claims, error)
}

// Gate is the single entry point HTTP middleware and the socket handshake use to
// authenticate a caller.
type Gate struct {
	verifier AccessTokenVerifier
	logger   *zap.Logger
}

func NewGate(verifier AccessTokenVerifier, logger *zap.Logger) *Gate {
	return &Gate{verifier: verifier, logger: logger.Named("auth_gate")}
}

// Authenticate validates token. Invalid and expired tokens share the same public
// message; the precise cause is only logged.
func (g *Gate) Authenticate(token string) (*Claims, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.ErrAuthenticationRequired
	}
	claims, err := g.verifier.VerifyAccessToken(token)
	if err != nil {
		g.logger.Info("access token rejected", zap.Error(err))
		return nil, err
	}
	return claims, nil
}

// HasRole reports whether the claims carry one of allowed. An empty allow list
// admits any authenticated caller.
func HasRole(claims *Claims, allowed ...string) bool {
	if claims == nil {
		return false
	}
	if len(allowed) == 0 {
		return true
	}
	for _, r := range allowed {
		if claims.Role == r {
			return true
		}
	}
	return false
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type claimsKey struct{}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFrom returns the claims stored by WithClaims, if any.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}
