package middleware

import (
	"errors"
	"net/http"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/auth"
	"aklny/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RefreshCookieName holds the refresh token id for browser clients.
	RefreshCookieName = "refresh_token"
	// RefreshCookiePath scopes the cookie to the auth endpoints.
	RefreshCookiePath = "/api/auth"

	claimsKey   = "claims"
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// CookieOptions controls the refresh cookie attributes.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

// SetRefreshCookie stores the refresh token in an HttpOnly cookie.
// Secure deployments serve a cross-site frontend, so they need SameSite=None.
func SetRefreshCookie(c *gin.Context, token string, opts CookieOptions) {
	c.SetSameSite(sameSite(opts.Secure))
	c.SetCookie(RefreshCookieName, token, int(opts.MaxAge.Seconds()), RefreshCookiePath, "", opts.Secure, true)
}

// ClearRefreshCookie expires the refresh cookie.
func ClearRefreshCookie(c *gin.Context, opts CookieOptions) {
	c.SetSameSite(sameSite(opts.Secure))
	c.SetCookie(RefreshCookieName, "", -1, RefreshCookiePath, "", opts.Secure, true)
}

func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// Authenticate runs the auth gate on the bearer token and stores the claims on
// the gin context and on the request context.
func Authenticate(gate *auth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := gate.Authenticate(auth.BearerToken(c.GetHeader("Authorization")))
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Set(userIDKey, claims.UserID)
		c.Set(userRoleKey, claims.Role)
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))

		c.Next()
	}
}

// RequireRole admits callers whose role is in allowedRoles. It must run after
// Authenticate; a missing identity is a 401, a wrong role a 403.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			abortWithError(c, apperror.ErrAuthenticationRequired)
			return
		}
		if !auth.HasRole(claims, allowedRoles...) {
			abortWithError(c, apperror.ErrForbidden)
			return
		}
		c.Next()
	}
}

// Claims returns the identity stored by Authenticate.
func Claims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

// UserID returns the authenticated user's id.
func UserID(c *gin.Context) (uuid.UUID, error) {
	claims, ok := Claims(c)
	if !ok {
		return uuid.Nil, apperror.ErrAuthenticationRequired
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, apperror.Wrap(apperror.ErrInvalidToken, errors.New("userId claim is not a uuid"))
	}
	return id, nil
}

func abortWithError(c *gin.Context, err error) {
	status, res := response.FromError(err)
	c.AbortWithStatusJSON(status, res)
}
