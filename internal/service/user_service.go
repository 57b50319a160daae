package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aklny/internal/apperror"
	"aklny/internal/auth"
	"aklny/internal/mailer"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// profileField describes one column a user may change on their own profile.
// A nil roles list means every role.
type profileField struct {
	column   string
	required bool
	roles    []string
}

// profileFields is the complete allow list for profile updates, keyed by JSON name.
var profileFields = map[string]profileField{
	"full_name":           {column: "full_name", required: true},
	"phone_number":        {column: "phone_number"},
	"profile_picture_url": {column: "profile_picture_url"},
	"restaurant_name":     {column: "restaurant_name", roles: []string{model.RoleSeller}},
	"restaurant_address":  {column: "restaurant_address", roles: []string{model.RoleSeller}},
	"cuisine_type":        {column: "cuisine_type", roles: []string{model.RoleSeller}},
	"vehicle_type":        {column: "vehicle_type", roles: []string{model.RoleDeliveryDriver}},
	"license_plate":       {column: "license_plate", roles: []string{model.RoleDeliveryDriver}},
}

func (f profileField) allows(role string) bool {
	if f.roles == nil {
		return true
	}
	for _, r := range f.roles {
		if r == role {
			return true
		}
	}
	return false
}

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, fields map[string]interface{}) (*UserResponse, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	DeleteUser(ctx context.Context, actorID, id uuid.UUID) error
}

type userService struct {
	repo      repository.UserRepository
	tokens    repository.RefreshTokenRepository
	txManager repository.TransactionManager
	hasher    *auth.Hasher
	mailer    *mailer.Dispatcher
	composer  *mailer.Composer
	audit     AuditService
	logger    *zap.Logger
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	txManager repository.TransactionManager,
	hasher *auth.Hasher,
	dispatcher *mailer.Dispatcher,
	composer *mailer.Composer,
	audit AuditService,
	logger *zap.Logger,
) UserService {
	return &userService{
		repo:      repo,
		tokens:    tokens,
		txManager: txManager,
		hasher:    hasher,
		mailer:    dispatcher,
		composer:  composer,
		audit:     audit,
		logger:    logger.Named("user_service"),
	}
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(err)
	}
	return mapUserResponse(user), nil
}

// UpdateProfile applies the allow-listed fields in input. Any unknown field, or a
// field that does not belong to the caller's role, rejects the whole update.
func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, input map[string]interface{}) (*UserResponse, error) {
	if len(input) == 0 {
		return nil, apperror.Validation("no fields to update")
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(err)
	}

	// sorted so the first reported problem is stable
	names := make([]string, 0, len(input))
	for name := range input {
		names = append(names, name)
	}
	sort.Strings(names)

	updates := make(map[string]interface{}, len(input))
	for _, name := range names {
		field, ok := profileFields[name]
		if !ok {
			return nil, apperror.Validation(fmt.Sprintf("field %q cannot be updated", name))
		}
		if !field.allows(user.Role) {
			return nil, apperror.Validation(fmt.Sprintf("field %q is not available for role %s", name, user.Role))
		}
		value, ok := input[name].(string)
		if !ok {
			return nil, apperror.Validation(fmt.Sprintf("field %q must be a string", name))
		}
		value = strings.TrimSpace(value)
		if field.required && value == "" {
			return nil, apperror.Validation(fmt.Sprintf("field %q cannot be empty", name))
		}
		updates[field.column] = value
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdateFields(txCtx, userID, updates); err != nil {
			return err
		}
		return s.audit.Log(txCtx, AuditEntry{
			UserID:     userRef(userID),
			Action:     model.ActionProfileUpdate,
			EntityID:   userID.String(),
			EntityName: user.Email,
			Details:    names,
		})
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.Internal(err)
	}

	return s.GetProfile(ctx, userID)
}

// ChangePassword verifies the current password, stores the new one and revokes
// every refresh token of the user.
func (s *userService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	if len(req.NewPassword) < minPasswordLength {
		return apperror.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal(err)
	}
	if !user.HasPassword() {
		return apperror.ErrSocialOnlyAccount
	}
	if !s.hasher.Verify(req.CurrentPassword, *user.PasswordHash) {
		return apperror.Validation("current password is incorrect")
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return apperror.Internal(err)
	}

	var revoked int64
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.UpdatePassword(txCtx, userID, hash); err != nil {
			return err
		}
		var err error
		if revoked, err = s.tokens.RevokeAllForUser(txCtx, userID); err != nil {
			return err
		}
		return s.audit.Log(txCtx, AuditEntry{
			UserID:     userRef(userID),
			Action:     model.ActionPasswordChange,
			EntityID:   userID.String(),
			EntityName: user.Email,
			Details:    map[string]interface{}{"sessions_revoked": revoked},
		})
	})
	if err != nil {
		return apperror.Internal(err)
	}

	s.mailer.Dispatch(user.Email, s.composer.PasswordChanged(user.FullName))
	s.logger.Info("password changed", zap.String("user_id", userID.String()), zap.Int64("sessions_revoked", revoked))
	return nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *mapUserResponse(&users[i]))
	}
	return res, total, nil
}

// DeleteUser soft deletes the account and revokes all of its sessions.
func (s *userService) DeleteUser(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return apperror.Validation("admins cannot delete their own account")
	}

	var revoked int64
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		var err error
		if revoked, err = s.tokens.RevokeAllForUser(txCtx, id); err != nil {
			return err
		}
		return s.audit.Log(txCtx, AuditEntry{
			UserID:   userRef(actorID),
			Action:   model.ActionDeleteUser,
			EntityID: id.String(),
			Details:  map[string]interface{}{"sessions_revoked": revoked},
		})
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return apperror.NotFound("user not found")
		}
		return apperror.Internal(err)
	}

	s.logger.Info("user deleted", zap.String("user_id", id.String()), zap.String("by", actorID.String()))
	return nil
}
