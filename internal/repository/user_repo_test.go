package repository_test

import (
	"context"
	"testing"
	"time"

	"aklny/internal/database/dbtest"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newUser(email string) *model.User {
	return &model.User{
		Email:        email,
		PasswordHash: strPtr("hash"),
		FullName:     "Test User",
		Role:         model.RoleCustomer,
	}
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(dbtest.New(t))

	require.NoError(t, repo.Create(ctx, newUser("a@x.com")))

	err := repo.Create(ctx, newUser("a@x.com"))
	require.Error(t, err)
	assert.True(t, repository.IsDuplicate(err))
}

func TestUserRepository_GetByGoogleID(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(dbtest.New(t))

	u := newUser("g@x.com")
	u.GoogleID = strPtr("google-sub-1")
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByGoogleID(ctx, "google-sub-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repo.GetByGoogleID(ctx, "missing")
	assert.True(t, repository.IsNotFound(err))
}

func TestUserRepository_ConsumeVerificationTokenOnce(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(dbtest.New(t))
	now := time.Now().UTC()

	u := newUser("v@x.com")
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.SetVerificationToken(ctx, u.ID, "digest", now.Add(time.Hour)))

	verified, err := repo.ConsumeVerificationToken(ctx, "digest", now)
	require.NoError(t, err)
	assert.True(t, verified.IsVerified)

	_, err = repo.ConsumeVerificationToken(ctx, "digest", now)
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)
	assert.Nil(t, stored.VerificationTokenHash)
}

func TestUserRepository_ExpiredVerificationToken(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(dbtest.New(t))
	now := time.Now().UTC()

	u := newUser("late@x.com")
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.SetVerificationToken(ctx, u.ID, "digest", now.Add(-time.Minute)))

	_, err := repo.ConsumeVerificationToken(ctx, "digest", now)
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestUserRepository_ConsumeResetToken(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(dbtest.New(t))
	now := time.Now().UTC()

	u := newUser("r@x.com")
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.SetResetToken(ctx, u.ID, "reset-digest", now.Add(time.Hour)))

	found, err := repo.FindByResetToken(ctx, "reset-digest", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	require.NoError(t, repo.ConsumeResetToken(ctx, u.ID, "reset-digest", "new-hash", now))
	assert.ErrorIs(t, repo.ConsumeResetToken(ctx, u.ID, "reset-digest", "other", now), repository.ErrTokenNotFound)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.Equal(t, "new-hash", *stored.PasswordHash)
	assert.Nil(t, stored.ResetTokenHash)
}

func TestUserRepository_LinkGoogleOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(dbtest.New(t))

	u := newUser("link@x.com")
	require.NoError(t, repo.Create(ctx, u))

	rows, err := repo.LinkGoogle(ctx, u.ID, "sub-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	rows, err = repo.LinkGoogle(ctx, u.ID, "sub-2")
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	stored, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub-1", *stored.GoogleID)
	assert.True(t, stored.IsVerified)
}

func TestUserRepository_DeleteIsSoft(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := repository.NewUserRepository(db)

	u := newUser("gone@x.com")
	require.NoError(t, repo.Create(ctx, u))
	require.NoError(t, repo.Delete(ctx, u.ID))

	_, err := repo.GetByID(ctx, u.ID)
	assert.True(t, repository.IsNotFound(err))

	var count int64
	require.NoError(t, db.Unscoped().Model(&model.User{}).Where("id = ?", u.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	assert.True(t, repository.IsNotFound(repo.Delete(ctx, u.ID)))
}
