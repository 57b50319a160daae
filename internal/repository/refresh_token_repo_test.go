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

func TestRefreshTokenRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := repository.NewUserRepository(db)
	tokens := repository.NewRefreshTokenRepository(db)
	now := time.Now().UTC()

	u := newUser("rt@x.com")
	require.NoError(t, users.Create(ctx, u))

	record := &model.RefreshToken{ID: "token-1", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, tokens.Create(ctx, record))

	err := tokens.Create(ctx, &model.RefreshToken{ID: "token-1", UserID: u.ID, ExpiresAt: now.Add(time.Hour)})
	assert.ErrorIs(t, err, repository.ErrDuplicateID)

	found, err := tokens.FindByID(ctx, "token-1")
	require.NoError(t, err)
	assert.True(t, found.Valid(now))

	rows, err := tokens.Revoke(ctx, "token-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	rows, err = tokens.Revoke(ctx, "token-1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows, "revoking twice is a no-op")

	rows, err = tokens.Revoke(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	found, err = tokens.FindByID(ctx, "token-1")
	require.NoError(t, err)
	assert.False(t, found.Valid(now))
}

func TestRefreshTokenRepository_RevokeAllForUser(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := repository.NewUserRepository(db)
	tokens := repository.NewRefreshTokenRepository(db)
	now := time.Now().UTC()

	owner := newUser("owner@x.com")
	other := newUser("other@x.com")
	require.NoError(t, users.Create(ctx, owner))
	require.NoError(t, users.Create(ctx, other))

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, tokens.Create(ctx, &model.RefreshToken{ID: id, UserID: owner.ID, ExpiresAt: now.Add(time.Hour)}))
	}
	require.NoError(t, tokens.Create(ctx, &model.RefreshToken{ID: "keep", UserID: other.ID, ExpiresAt: now.Add(time.Hour)}))

	rows, err := tokens.RevokeAllForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, rows)

	rows, err = tokens.RevokeAllForUser(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	kept, err := tokens.FindByID(ctx, "keep")
	require.NoError(t, err)
	assert.False(t, kept.Revoked)
}

func TestRefreshTokenRepository_RevokeIfValid(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := repository.NewUserRepository(db)
	tokens := repository.NewRefreshTokenRepository(db)
	now := time.Now().UTC()

	u := newUser("rot@x.com")
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, tokens.Create(ctx, &model.RefreshToken{ID: "live", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, tokens.Create(ctx, &model.RefreshToken{ID: "stale", UserID: u.ID, ExpiresAt: now.Add(-time.Hour)}))

	rows, err := tokens.RevokeIfValid(ctx, "stale", now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)

	rows, err = tokens.RevokeIfValid(ctx, "live", now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows)

	rows, err = tokens.RevokeIfValid(ctx, "live", now)
	require.NoError(t, err)
	assert.EqualValues(t, 0, rows)
}

func TestRefreshTokenRepository_DuplicateInsideTransactionKeepsTxUsable(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	users := repository.NewUserRepository(db)
	tokens := repository.NewRefreshTokenRepository(db)
	txManager := repository.NewTransactionManager(db)
	expires := time.Now().UTC().Add(time.Hour)

	u := newUser("tx-rt@x.com")
	require.NoError(t, users.Create(ctx, u))
	require.NoError(t, tokens.Create(ctx, &model.RefreshToken{ID: "taken", UserID: u.ID, ExpiresAt: expires}))

	err := txManager.RunInTx(ctx, func(txCtx context.Context) error {
		err := tokens.Create(txCtx, &model.RefreshToken{ID: "taken", UserID: u.ID, ExpiresAt: expires})
		require.ErrorIs(t, err, repository.ErrDuplicateID)
		return tokens.Create(txCtx, &model.RefreshToken{ID: "fresh", UserID: u.ID, ExpiresAt: expires})
	})
	require.NoError(t, err)

	found, err := tokens.FindByID(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.UserID)
}
