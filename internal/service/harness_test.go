package service_test

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"aklny/internal/apperror"
	"aklny/internal/auth"
	"aklny/internal/database/dbtest"
	"aklny/internal/mailer"
	"aklny/internal/model"
	"aklny/internal/repository"
	"aklny/internal/service"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type sentMail struct {
	To, Subject, Body string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

func (r *recordingSender) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (r *recordingSender) all() []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentMail(nil), r.sent...)
}

var tokenInLink = regexp.MustCompile(`token=([0-9a-f]+)`)

type fakeGoogle struct {
	identities map[string]*auth.ProviderIdentity
}

func (f *fakeGoogle) Verify(_ context.Context, idToken string) (*auth.ProviderIdentity, error) {
	id, ok := f.identities[idToken]
	if !ok {
		return nil, apperror.ErrInvalidProviderToken
	}
	return id, nil
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	db         *gorm.DB
	users      repository.UserRepository
	tokens     repository.RefreshTokenRepository
	orders     repository.OrderRepository
	foods      repository.FoodRepository
	txManager  repository.TransactionManager
	issuer     *auth.Issuer
	hasher     *auth.Hasher
	clock      *testClock
	sender     *recordingSender
	dispatcher *mailer.Dispatcher
	google     *fakeGoogle
	audit      service.AuditService
	auth       service.AuthService
	user       service.UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := dbtest.New(t)
	logger := zap.NewNop()

	h := &harness{
		db:        db,
		users:     repository.NewUserRepository(db),
		tokens:    repository.NewRefreshTokenRepository(db),
		orders:    repository.NewOrderRepository(db),
		foods:     repository.NewFoodRepository(db),
		txManager: repository.NewTransactionManager(db),
		hasher:    auth.NewHasher(auth.MinBcryptCost),
		clock:     &testClock{t: time.Now().UTC().Truncate(time.Second)},
		sender:    &recordingSender{},
		google:    &fakeGoogle{identities: map[string]*auth.ProviderIdentity{}},
	}
	h.issuer = auth.NewIssuer(testSecret, time.Hour, 7*24*time.Hour, h.tokens).WithClock(h.clock.Now)
	h.dispatcher = mailer.NewDispatcher(h.sender, time.Second, logger)
	h.audit = service.NewAuditService(repository.NewAuditRepository(db), logger)
	composer := mailer.NewComposer("http://localhost:8080")

	h.auth = service.NewAuthService(service.AuthDependencies{
		Users:     h.users,
		Tokens:    h.tokens,
		TxManager: h.txManager,
		Hasher:    h.hasher,
		Issuer:    h.issuer,
		Google:    h.google,
		Mailer:    h.dispatcher,
		Composer:  composer,
		Audit:     h.audit,
		Logger:    logger,
	})
	h.user = service.NewUserService(h.users, h.tokens, h.txManager, h.hasher, h.dispatcher, composer, h.audit, logger)
	return h
}

// lastToken waits for pending mail and returns the token of the newest message
// sent to "to" whose subject contains subject.
func (h *harness) lastToken(t *testing.T, to, subject string) string {
	t.Helper()
	h.dispatcher.Wait()

	mails := h.sender.all()
	for i := len(mails) - 1; i >= 0; i-- {
		m := mails[i]
		if m.To != to || !strings.Contains(m.Subject, subject) {
			continue
		}
		match := tokenInLink.FindStringSubmatch(m.Body)
		require.Len(t, match, 2, "no token in %q", m.Body)
		return match[1]
	}
	t.Fatalf("no %q email sent to %s", subject, to)
	return ""
}

// registerVerified creates a verified password account.
func (h *harness) registerVerified(t *testing.T, email, password string) *service.UserResponse {
	t.Helper()
	ctx := context.Background()

	_, err := h.auth.Register(ctx, service.RegisterRequest{Email: email, Password: password, FullName: "Test User"})
	require.NoError(t, err)
	u, err := h.auth.VerifyEmail(ctx, h.lastToken(t, email, "Verify"))
	require.NoError(t, err)
	return u
}

// seedUser inserts a verified account with the given role directly.
func (h *harness) seedUser(t *testing.T, email, role string) *model.User {
	t.Helper()
	hash, err := h.hasher.Hash("password123")
	require.NoError(t, err)
	u := &model.User{Email: email, PasswordHash: &hash, FullName: email, Role: role, IsVerified: true}
	require.NoError(t, h.users.Create(context.Background(), u))
	return u
}

func claimsFor(u *model.User) *auth.Claims {
	return &auth.Claims{UserID: u.ID.String(), Email: u.Email, Role: u.Role}
}
