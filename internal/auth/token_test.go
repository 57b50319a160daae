package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/model"
	"aklny/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryTokenStore struct {
	mu      sync.Mutex
	records map[string]*model.RefreshToken
}

func newMemoryTokenStore() *memoryTokenStore {
	return &memoryTokenStore{records: map[string]*model.RefreshToken{}}
}

func (m *memoryTokenStore) Create(_ context.Context, token *model.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[token.ID]; ok {
		return repository.ErrDuplicateID
	}
	m.records[token.ID] = token
	return nil
}

func testUser() *model.User {
	return &model.User{ID: uuid.New(), Email: "a@x.com", Role: model.RoleCustomer}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestIssuer_AccessTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 0, newMemoryTokenStore())
	user := testUser()

	signed, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)

	claims, err := issuer.VerifyAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, model.RoleCustomer, claims.Role)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestIssuer_DeterministicForSameInstant(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", time.Hour, 0, newMemoryTokenStore()).WithClock(fixedClock(at))
	user := testUser()

	a, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)
	b, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestIssuer_RejectsForeignSecretAsInvalid(t *testing.T) {
	ours := NewIssuer("secret", time.Hour, 0, newMemoryTokenStore())
	theirs := NewIssuer("another-secret", time.Hour, 0, newMemoryTokenStore())

	signed, err := theirs.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = ours.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
	assert.NotErrorIs(t, err, apperror.ErrExpiredToken)
}

func TestIssuer_RejectsExpiredAsExpired(t *testing.T) {
	issuedAt := time.Now().Add(-2 * time.Hour).UTC()
	issuer := NewIssuer("secret", time.Hour, 0, newMemoryTokenStore()).WithClock(fixedClock(issuedAt))

	signed, err := issuer.IssueAccessToken(testUser())
	require.NoError(t, err)

	issuer.WithClock(utcNow)
	_, err = issuer.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, apperror.ErrExpiredToken)
	assert.NotErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestIssuer_ExpiredTokenWithWrongSecretIsInvalid(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour).UTC()
	theirs := NewIssuer("another-secret", time.Hour, 0, newMemoryTokenStore()).WithClock(fixedClock(past))
	ours := NewIssuer("secret", time.Hour, 0, newMemoryTokenStore())

	signed, err := theirs.IssueAccessToken(testUser())
	require.NoError(t, err)

	_, err = ours.VerifyAccessToken(signed)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken, "signature is checked before expiry")
}

func TestIssuer_RejectsGarbageAndOtherAlgorithms(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour, 0, newMemoryTokenStore())

	_, err := issuer.VerifyAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.VerifyAccessToken(none)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		UserID:           "x",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = issuer.VerifyAccessToken(hs512)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestIssuer_IssueRefreshTokenPersists(t *testing.T) {
	store := newMemoryTokenStore()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	issuer := NewIssuer("secret", 0, 0, store).WithClock(fixedClock(now))
	userID := uuid.New()

	id, err := issuer.IssueRefreshToken(context.Background(), userID)
	require.NoError(t, err)

	record, ok := store.records[id]
	require.True(t, ok)
	assert.Equal(t, userID, record.UserID)
	assert.Equal(t, now.Add(DefaultRefreshTokenTTL), record.ExpiresAt)
	assert.False(t, record.Revoked)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestIssuer_IssueRefreshTokenRetriesCollision(t *testing.T) {
	store := newMemoryTokenStore()
	store.records["taken"] = &model.RefreshToken{ID: "taken"}

	issuer := NewIssuer("secret", 0, 0, store)
	ids := []string{"taken", "fresh"}
	issuer.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	id, err := issuer.IssueRefreshToken(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "fresh", id)
}

func TestIssuer_IssueRefreshTokenGivesUp(t *testing.T) {
	store := newMemoryTokenStore()
	store.records["taken"] = &model.RefreshToken{ID: "taken"}

	issuer := NewIssuer("secret", 0, 0, store)
	issuer.newID = func() string { return "taken" }

	_, err := issuer.IssueRefreshToken(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrDuplicateID)
}
