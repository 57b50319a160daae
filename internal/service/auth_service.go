package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"aklny/internal/apperror"
	"aklny/internal/auth"
	"aklny/internal/mailer"
	"aklny/internal/metrics"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	GenericResendMessage = "If an account with that email exists and is not yet verified, a new verification email has been sent."
	GenericResetMessage  = "If an account with that email exists, a password reset link has been sent."
	ResetSuccessMessage  = "Your password has been reset. Please log in with your new password."
)

// DTOs for request validation
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	FullName    string `json:"full_name" binding:"required"`
	PhoneNumber string `json:"phone_number"`
	// Role is accepted for compatibility and ignored; new accounts are customers.
	Role string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// AuthService covers registration, sign-in, sessions and the email driven flows.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResult, error)
	AuthenticateWithGoogle(ctx context.Context, idToken string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshID string) (*AuthResult, error)
	Logout(ctx context.Context, refreshID string) error

	VerifyEmail(ctx context.Context, token string) (*UserResponse, error)
	ResendVerification(ctx context.Context, email string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ValidateResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error)
}

// AuthDependencies groups the collaborators of the auth service.
type AuthDependencies struct {
	Users     repository.UserRepository
	Tokens    repository.RefreshTokenRepository
	TxManager repository.TransactionManager
	Hasher    *auth.Hasher
	Issuer    *auth.Issuer
	Google    auth.ProviderVerifier
	Mailer    *mailer.Dispatcher
	Composer  *mailer.Composer
	Audit     AuditService
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

type authService struct {
	AuthDependencies
	logger *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(deps AuthDependencies) AuthService {
	return &authService{AuthDependencies: deps, logger: deps.Logger.Named("auth_service")}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	email := normalizeEmail(req.Email)
	if !validEmail(email) {
		return nil, apperror.Validation("invalid email format")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, apperror.Validation("full name is required")
	}

	hash, err := s.Hasher.Hash(req.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	plain, digest, err := newOneTimeToken()
	if err != nil {
		return nil, apperror.Internal(err)
	}
	expiresAt := s.Issuer.Now().Add(verificationTokenTTL)

	user := &model.User{
		Email:                      email,
		PasswordHash:               &hash,
		FullName:                   fullName,
		PhoneNumber:                strings.TrimSpace(req.PhoneNumber),
		Role:                       model.RoleCustomer,
		VerificationTokenHash:      &digest,
		VerificationTokenExpiresAt: &expiresAt,
	}

	// the unique index decides concurrent registrations; there is no pre-check
	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.Users.Create(txCtx, user); err != nil {
			return err
		}
		return s.Audit.Log(txCtx, AuditEntry{
			UserID:     userRef(user.ID),
			Action:     model.ActionRegister,
			EntityID:   user.ID.String(),
			EntityName: user.Email,
		})
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			s.Metrics.AuthEvent("register", string(apperror.KindDuplicateEmail))
			return nil, apperror.Wrap(apperror.ErrDuplicateEmail, err)
		}
		return nil, apperror.Internal(err)
	}

	s.Mailer.Dispatch(user.Email, s.Composer.Verification(user.FullName, plain))
	s.Metrics.AuthEvent("register", "success")
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return mapUserResponse(user), nil
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	email := normalizeEmail(req.Email)

	user, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			// keep the response time close to a real password check
			s.Hasher.Verify(req.Password, s.timingHash())
			return nil, s.loginFailed(apperror.ErrInvalidCredentials)
		}
		return nil, apperror.Internal(err)
	}

	if !user.HasPassword() {
		return nil, s.loginFailed(apperror.ErrSocialOnlyAccount)
	}
	if !s.Hasher.Verify(req.Password, *user.PasswordHash) {
		return nil, s.loginFailed(apperror.ErrInvalidCredentials)
	}
	if !user.IsVerified {
		return nil, s.loginFailed(apperror.ErrEmailNotVerified)
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, AuditEntry{UserID: userRef(user.ID), Action: model.ActionLogin, EntityID: user.ID.String(), EntityName: user.Email})
	s.Metrics.AuthEvent("login", "success")
	return result, nil
}

func (s *authService) loginFailed(base *apperror.Error) error {
	s.Metrics.AuthEvent("login", string(base.Kind))
	return base
}

func (s *authService) timingHash() string {
	s.dummyOnce.Do(func() {
		// any failure leaves an empty hash, which Verify rejects quickly
		s.dummyHash, _ = s.Hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}

// AuthenticateWithGoogle resolves the Google identity to an account: by Google
// id first, then by email. An existing email is linked only when it belongs to
// a password account without a Google id.
func (s *authService) AuthenticateWithGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	identity, err := s.Google.Verify(ctx, idToken)
	if err != nil {
		s.Metrics.AuthEvent("google", string(apperror.From(err).Kind))
		return nil, err
	}
	email := normalizeEmail(identity.Email)

	user, action, err := s.resolveGoogleUser(ctx, identity, email)
	if err != nil {
		s.Metrics.AuthEvent("google", string(apperror.From(err).Kind))
		return nil, err
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, AuditEntry{UserID: userRef(user.ID), Action: action, EntityID: user.ID.String(), EntityName: user.Email})
	s.Metrics.AuthEvent("google", "success")
	return result, nil
}

func (s *authService) resolveGoogleUser(ctx context.Context, identity *auth.ProviderIdentity, email string) (*model.User, string, error) {
	user, err := s.Users.GetByGoogleID(ctx, identity.Subject)
	if err == nil {
		if !user.IsVerified {
			if err := s.Users.MarkVerified(ctx, user.ID); err != nil {
				return nil, "", apperror.Internal(err)
			}
			user.IsVerified = true
		}
		return user, model.ActionGoogleLogin, nil
	}
	if !repository.IsNotFound(err) {
		return nil, "", apperror.Internal(err)
	}

	existing, err := s.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return s.linkGoogle(ctx, existing, identity)
	case repository.IsNotFound(err):
		return s.createGoogleUser(ctx, identity, email)
	default:
		return nil, "", apperror.Internal(err)
	}
}

func (s *authService) linkGoogle(ctx context.Context, user *model.User, identity *auth.ProviderIdentity) (*model.User, string, error) {
	if !user.HasPassword() || user.HasGoogle() {
		return nil, "", apperror.ErrAccountConflict
	}

	rows, err := s.Users.LinkGoogle(ctx, user.ID, identity.Subject)
	if err != nil {
		if repository.IsDuplicate(err) {
			return nil, "", apperror.Wrap(apperror.ErrAccountConflict, err)
		}
		return nil, "", apperror.Internal(err)
	}
	if rows == 0 {
		// linked concurrently to another Google account
		return nil, "", apperror.ErrAccountConflict
	}

	subject := identity.Subject
	user.GoogleID = &subject
	user.IsVerified = true
	s.logger.Info("google account linked", zap.String("user_id", user.ID.String()))
	return user, model.ActionGoogleLink, nil
}

func (s *authService) createGoogleUser(ctx context.Context, identity *auth.ProviderIdentity, email string) (*model.User, string, error) {
	subject := identity.Subject
	user := &model.User{
		Email:             email,
		FullName:          identity.Name,
		Role:              model.RoleCustomer,
		IsVerified:        true,
		GoogleID:          &subject,
		ProfilePictureURL: identity.Picture,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, "", apperror.Wrap(apperror.ErrAccountConflict, err)
		}
		return nil, "", apperror.Internal(err)
	}
	s.logger.Info("user created from google sign-in", zap.String("user_id", user.ID.String()))
	return user, model.ActionGoogleLogin, nil
}

// Refresh rotates a refresh token: the presented record is revoked and a new
// one is issued in the same transaction.
func (s *authService) Refresh(ctx context.Context, refreshID string) (*AuthResult, error) {
	if refreshID == "" {
		return nil, apperror.ErrAuthenticationRequired
	}

	var result *AuthResult
	err := s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := s.Issuer.Now()
		record, err := s.Tokens.FindByID(txCtx, refreshID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.Wrap(apperror.ErrInvalidToken, errors.New("unknown refresh token"))
			}
			return err
		}
		if !record.Valid(now) {
			return apperror.Wrap(apperror.ErrInvalidToken, errors.New("refresh token revoked or expired"))
		}

		rows, err := s.Tokens.RevokeIfValid(txCtx, refreshID, now)
		if err != nil {
			return err
		}
		if rows == 0 {
			return apperror.Wrap(apperror.ErrInvalidToken, errors.New("refresh token already rotated"))
		}

		user, err := s.Users.GetByID(txCtx, record.UserID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperror.Wrap(apperror.ErrInvalidToken, errors.New("refresh token owner no longer exists"))
			}
			return err
		}

		result, err = s.openSession(txCtx, user)
		return err
	})
	if err != nil {
		appErr := apperror.From(err)
		s.Metrics.AuthEvent("refresh", string(appErr.Kind))
		if appErr.Kind == apperror.KindInvalidToken {
			s.logger.Info("refresh rejected", zap.Error(err))
		}
		return nil, appErr
	}

	s.Metrics.AuthEvent("refresh", "success")
	return result, nil
}

func (s *authService) Logout(ctx context.Context, refreshID string) error {
	if refreshID == "" {
		return nil
	}

	var owner *uuid.UUID
	if record, err := s.Tokens.FindByID(ctx, refreshID); err == nil {
		owner = userRef(record.UserID)
	}

	rows, err := s.Tokens.Revoke(ctx, refreshID)
	if err != nil {
		return apperror.Internal(err)
	}
	if rows == 0 {
		s.logger.Info("logout with unknown or revoked refresh token")
	}

	if owner != nil {
		s.Audit.Record(ctx, AuditEntry{UserID: owner, Action: model.ActionLogout, EntityID: owner.String()})
	}
	s.Metrics.AuthEvent("logout", "success")
	return nil
}

func (s *authService) openSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	access, err := s.Issuer.IssueAccessToken(user)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	refresh, err := s.Issuer.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &AuthResult{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.Issuer.AccessTTL().Seconds()),
		RefreshToken: refresh,
		User:         mapUserResponse(user),
	}, nil
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*UserResponse, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperror.ErrInvalidOrExpiredToken
	}

	user, err := s.Users.ConsumeVerificationToken(ctx, digestToken(token), s.Issuer.Now())
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return nil, apperror.Wrap(apperror.ErrInvalidOrExpiredToken, err)
		}
		return nil, apperror.Internal(err)
	}

	s.Audit.Record(ctx, AuditEntry{UserID: userRef(user.ID), Action: model.ActionEmailVerified, EntityID: user.ID.String(), EntityName: user.Email})
	s.Metrics.AuthEvent("verify_email", "success")
	return mapUserResponse(user), nil
}

// ResendVerification answers unknown emails with the generic message but reports
// AlreadyVerified for verified accounts.
func (s *authService) ResendVerification(ctx context.Context, email string) (string, error) {
	user, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return GenericResendMessage, nil
		}
		return "", apperror.Internal(err)
	}
	if user.IsVerified {
		return "", apperror.ErrAlreadyVerified
	}

	plain, digest, err := newOneTimeToken()
	if err != nil {
		return "", apperror.Internal(err)
	}
	if err := s.Users.SetVerificationToken(ctx, user.ID, digest, s.Issuer.Now().Add(verificationTokenTTL)); err != nil {
		return "", apperror.Internal(err)
	}

	s.Mailer.Dispatch(user.Email, s.Composer.Verification(user.FullName, plain))
	return GenericResendMessage, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.Users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return GenericResetMessage, nil
		}
		return "", apperror.Internal(err)
	}

	plain, digest, err := newOneTimeToken()
	if err != nil {
		return "", apperror.Internal(err)
	}
	if err := s.Users.SetResetToken(ctx, user.ID, digest, s.Issuer.Now().Add(resetTokenTTL)); err != nil {
		return "", apperror.Internal(err)
	}

	s.Mailer.Dispatch(user.Email, s.Composer.PasswordReset(user.FullName, plain))
	return GenericResetMessage, nil
}

func (s *authService) ValidateResetToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return apperror.ErrInvalidOrExpiredToken
	}
	if _, err := s.Users.FindByResetToken(ctx, digestToken(token), s.Issuer.Now()); err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return apperror.Wrap(apperror.ErrInvalidOrExpiredToken, err)
		}
		return apperror.Internal(err)
	}
	return nil
}

// ResetPassword stores the new password, clears the reset token and signs the
// user out everywhere, all in one transaction.
func (s *authService) ResetPassword(ctx context.Context, req ResetPasswordRequest) (string, error) {
	if strings.TrimSpace(req.Token) == "" {
		return "", apperror.ErrInvalidOrExpiredToken
	}
	if len(req.NewPassword) < minPasswordLength {
		return "", apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := s.Hasher.Hash(req.NewPassword)
	if err != nil {
		return "", apperror.Internal(err)
	}
	digest := digestToken(req.Token)
	now := s.Issuer.Now()

	var revoked int64
	var user *model.User
	err = s.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.Users.FindByResetToken(txCtx, digest, now)
		if err != nil {
			return err
		}
		if err := s.Users.ConsumeResetToken(txCtx, user.ID, digest, hash, now); err != nil {
			return err
		}
		revoked, err = s.Tokens.RevokeAllForUser(txCtx, user.ID)
		if err != nil {
			return err
		}
		return s.Audit.Log(txCtx, AuditEntry{
			UserID:     userRef(user.ID),
			Action:     model.ActionPasswordReset,
			EntityID:   user.ID.String(),
			EntityName: user.Email,
			Details:    map[string]interface{}{"sessions_revoked": revoked},
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return "", apperror.Wrap(apperror.ErrInvalidOrExpiredToken, err)
		}
		return "", apperror.Internal(err)
	}

	s.Mailer.Dispatch(user.Email, s.Composer.PasswordChanged(user.FullName))
	s.Metrics.AuthEvent("reset_password", "success")
	s.logger.Info("password reset", zap.String("user_id", user.ID.String()), zap.Int64("sessions_revoked", revoked))
	return ResetSuccessMessage, nil
}

