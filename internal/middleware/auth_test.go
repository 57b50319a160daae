package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aklny/internal/auth"
	"aklny/internal/model"
	"aklny/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(issuer *auth.Issuer) *gin.Engine {
	r := gin.New()
	gate := auth.NewGate(issuer, zap.NewNop())

	protected := r.Group("/", Authenticate(gate))
	protected.GET("/any", func(c *gin.Context) {
		id, err := UserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		claims, _ := auth.ClaimsFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id.String(), "role": claims.Role})
	})
	protected.GET("/sellers", RequireRole(model.RoleSeller), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func token(t *testing.T, issuer *auth.Issuer, role string) string {
	t.Helper()
	signed, err := issuer.IssueAccessToken(&model.User{ID: uuid.New(), Email: "m@x.com", Role: role})
	require.NoError(t, err)
	return signed
}

func do(r http.Handler, path, bearer string) (*httptest.ResponseRecorder, response.Response) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res response.Response
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	return w, res
}

func TestAuthenticate(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour, 0, nil)
	r := newTestRouter(issuer)

	w, res := do(r, "/any", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AuthenticationRequired", res.Kind)

	w, _ = do(r, "/any", "not.a.jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	foreign := token(t, auth.NewIssuer("other-secret", time.Hour, 0, nil), model.RoleCustomer)
	w, invalid := do(r, "/any", foreign)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	past := time.Now().Add(-2 * time.Hour)
	expiredIssuer := auth.NewIssuer("secret", time.Hour, 0, nil).WithClock(func() time.Time { return past })
	w, expired := do(r, "/any", token(t, expiredIssuer, model.RoleCustomer))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, invalid, expired, "expired and invalid tokens must be indistinguishable")

	w, _ = do(r, "/any", token(t, issuer, model.RoleCustomer))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"customer"`)
}

func TestRequireRole(t *testing.T) {
	issuer := auth.NewIssuer("secret", time.Hour, 0, nil)
	r := newTestRouter(issuer)

	w, res := do(r, "/sellers", token(t, issuer, model.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Forbidden", res.Kind)

	w, _ = do(r, "/sellers", token(t, issuer, model.RoleSeller))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, _ = do(r, "/sellers", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshCookie(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)

	SetRefreshCookie(c, "abc", CookieOptions{Secure: true, MaxAge: time.Hour})
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, RefreshCookieName, cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.Equal(t, RefreshCookiePath, cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}
