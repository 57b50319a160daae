package repository

import (
	"context"
	"errors"
	"time"

	"aklny/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshTokenRepository persists session records. Records are revoked, never deleted.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByID(ctx context.Context, id string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string) (int64, error)
	RevokeIfValid(ctx context.Context, id string, now time.Time) (int64, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create inserts token. Inside a transaction the insert runs under a savepoint, so a
// duplicate id leaves the transaction usable for another attempt on postgres.
func (r *refreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	if !inTx(ctx) {
		return duplicateID(GetDB(ctx, r.db).Create(token).Error)
	}

	const savepoint = "refresh_token_create"
	if err := GetDB(ctx, r.db).SavePoint(savepoint).Error; err != nil {
		return err
	}
	if err := GetDB(ctx, r.db).Create(token).Error; err != nil {
		if rbErr := GetDB(ctx, r.db).RollbackTo(savepoint).Error; rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return duplicateID(err)
	}
	return nil
}

func duplicateID(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateID
	}
	return err
}

func (r *refreshTokenRepository) FindByID(ctx context.Context, id string) (*model.RefreshToken, error) {
	var token model.RefreshToken
	if err := GetDB(ctx, r.db).First(&token, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Revoke is idempotent; zero rows means the id was unknown or already revoked.
func (r *refreshTokenRepository) Revoke(ctx context.Context, id string) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.RefreshToken{}).
		Where("id = ? AND revoked = ?", id, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

// RevokeIfValid revokes the record only while it is still valid at now. Exactly one
// of several concurrent callers sees one row affected.
func (r *refreshTokenRepository) RevokeIfValid(ctx context.Context, id string, now time.Time) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.RefreshToken{}).
		Where("id = ? AND revoked = ? AND expires_at > ?", id, false, now).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}

func (r *refreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	return res.RowsAffected, res.Error
}
