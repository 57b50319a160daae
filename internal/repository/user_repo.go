package repository

import (
	"context"
	"time"

	"aklny/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository defines the data access of User records. Uniqueness of email and
// Google id is left to the database; Create surfaces gorm.ErrDuplicatedKey.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (*model.User, error)
	List(ctx context.Context, page, limit int) ([]model.User, int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	MarkVerified(ctx context.Context, id uuid.UUID) error
	LinkGoogle(ctx context.Context, id uuid.UUID, googleID string) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error

	SetVerificationToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	ConsumeResetToken(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string, now time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return GetDB(ctx, r.db).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByGoogleID(ctx context.Context, googleID string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).First(&user, "google_id = ?", googleID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

// UpdateFields writes only the given columns. Callers own the column allow list.
func (r *userRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{"password_hash": passwordHash})
}

func (r *userRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_verified":                   true,
		"verification_token_hash":       nil,
		"verification_token_expires_at": nil,
	}).Error
}

// LinkGoogle binds googleID to the user only while the user has none.
func (r *userRepository) LinkGoogle(ctx context.Context, id uuid.UUID, googleID string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.User{}).
		Where("id = ? AND google_id IS NULL", id).
		Updates(map[string]interface{}{"google_id": googleID, "is_verified": true})
	return res.RowsAffected, res.Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetVerificationToken overwrites any previous verification token.
func (r *userRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"verification_token_hash":       tokenHash,
		"verification_token_expires_at": expiresAt,
	})
}

// ConsumeVerificationToken marks the owner verified and clears the token in a single
// conditional update, so a token can be consumed at most once.
func (r *userRepository) ConsumeVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	db := GetDB(ctx, r.db)

	var user model.User
	err := db.Where("verification_token_hash = ? AND verification_token_expires_at > ?", tokenHash, now).First(&user).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	res := db.Model(&model.User{}).
		Where("id = ? AND verification_token_hash = ?", user.ID, tokenHash).
		Updates(map[string]interface{}{
			"is_verified":                   true,
			"verification_token_hash":       nil,
			"verification_token_expires_at": nil,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrTokenNotFound
	}

	user.IsVerified = true
	user.VerificationTokenHash = nil
	user.VerificationTokenExpiresAt = nil
	return &user, nil
}

// SetResetToken overwrites any previous reset token.
func (r *userRepository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	return r.UpdateFields(ctx, id, map[string]interface{}{
		"reset_token_hash":       tokenHash,
		"reset_token_expires_at": expiresAt,
	})
}

func (r *userRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	var user model.User
	err := GetDB(ctx, r.db).Where("reset_token_hash = ? AND reset_token_expires_at > ?", tokenHash, now).First(&user).Error
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &user, nil
}

// ConsumeResetToken stores the new hash and clears the reset token only if the
// token is still the live one.
func (r *userRepository) ConsumeResetToken(ctx context.Context, id uuid.UUID, tokenHash, passwordHash string, now time.Time) error {
	res := GetDB(ctx, r.db).Model(&model.User{}).
		Where("id = ? AND reset_token_hash = ? AND reset_token_expires_at > ?", id, tokenHash, now).
		Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}
