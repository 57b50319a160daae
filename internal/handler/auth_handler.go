package handler

import (
	"net/http"

	"aklny/internal/middleware"
	"aklny/internal/service"
	"aklny/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	cookie      middleware.CookieOptions
}

func NewAuthHandler(authService service.AuthService, cookie middleware.CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/auth")
	{
		group.POST("/register", h.Register)
		group.POST("/login", h.Login)
		group.POST("/google", h.GoogleLogin)
		group.GET("/verify-email", h.VerifyEmail)
		group.POST("/resend-verification", h.ResendVerification)
		group.POST("/forgot-password", h.ForgotPassword)
		group.GET("/reset-password", h.ValidateResetToken)
		group.POST("/reset-password", h.ResetPassword)
		group.POST("/refresh", h.Refresh)
		group.POST("/logout", h.Logout)
	}
}

// Register creates a customer account and mails a verification link
// @Summary      Register
// @Description  Creates a customer account. Any role in the payload is ignored.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// Login authenticates with email and password
// @Summary      Login
// @Description  Returns an access token and sets the refresh token cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.AuthResult}
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.session(c, result)
}

// GoogleLogin signs in with a Google ID token
// @Summary      Google sign-in
// @Description  Verifies a Google ID token, linking or creating the account as needed
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.GoogleLoginRequest  true  "Google ID token"
// @Success      200      {object}  response.Response{data=service.AuthResult}
// @Failure      401      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/auth/google [post]
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req service.GoogleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.AuthenticateWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		respondError(c, err)
		return
	}

	h.session(c, result)
}

// VerifyEmail consumes an email verification token
// @Summary      Verify email
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "Verification token"
// @Success      200    {object}  response.Response{data=service.UserResponse}
// @Failure      400    {object}  response.Response
// @Router       /api/auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.authService.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// ResendVerification mails a fresh verification link
// @Summary      Resend verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.EmailRequest  true  "Email"
// @Success      200      {object}  response.Response{data=service.MessageResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req service.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.authService.ResendVerification(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.MessageResponse{Message: msg}))
}

// ForgotPassword mails a password reset link
// @Summary      Request password reset
// @Description  Always answers with the same message, whether or not the email is known
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.EmailRequest  true  "Email"
// @Success      200      {object}  response.Response{data=service.MessageResponse}
// @Router       /api/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req service.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.authService.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.MessageResponse{Message: msg}))
}

// ValidateResetToken reports whether a reset link is still usable
// @Summary      Check password reset token
// @Tags         auth
// @Produce      json
// @Param        token  query     string  true  "Reset token"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /api/auth/reset-password [get]
func (h *AuthHandler) ValidateResetToken(c *gin.Context) {
	token := c.Query("token")
	if err := h.authService.ValidateResetToken(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"valid": true, "token": token}))
}

// ResetPassword sets a new password with a reset token
// @Summary      Reset password
// @Description  Sets the new password and signs the user out of every session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ResetPasswordRequest  true  "Token and new password"
// @Success      200      {object}  response.Response{data=service.MessageResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.authService.ResetPassword(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.MessageResponse{Message: msg}))
}

// Refresh rotates the refresh token and issues a new access token
// @Summary      Refresh session
// @Description  Reads the refresh token from the HTTP-only cookie set at login
// @Tags         auth
// @Produce      json
// @Success      200      {object}  response.Response{data=service.AuthResult}
// @Failure      401      {object}  response.Response
// @Router       /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	result, err := h.authService.Refresh(c.Request.Context(), refreshTokenFrom(c))
	if err != nil {
		middleware.ClearRefreshCookie(c, h.cookie)
		respondError(c, err)
		return
	}

	h.session(c, result)
}

// Logout revokes the refresh token and clears the cookie
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.MessageResponse}
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), refreshTokenFrom(c)); err != nil {
		respondError(c, err)
		return
	}

	middleware.ClearRefreshCookie(c, h.cookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, service.MessageResponse{Message: "Logged out successfully"}))
}

func (h *AuthHandler) session(c *gin.Context, result *service.AuthResult) {
	middleware.SetRefreshCookie(c, result.RefreshToken, h.cookie)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// refreshTokenFrom reads the refresh cookie. The token never travels in a body.
func refreshTokenFrom(c *gin.Context) string {
	token, err := c.Cookie(middleware.RefreshCookieName)
	if err != nil {
		return ""
	}
	return token
}
