package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/utils"
	"github.com/iliyamo/library-seat-reservation/internal/watch"
)

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) Create(ctx context.Context, email, password string, cost int) (string, error) {
	args := m.Called(ctx, email, password, cost)
	return args.String(0), args.Error(1)
}
func (m *mockUsers) GetByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.User), args.Error(1)
}
func (m *mockUsers) GetByID(ctx context.Context, id string) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Store(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	return m.Called(ctx, userID, tokenHash, exp).Error(0)
}
func (m *mockSessions) Validate(ctx context.Context, tokenHash string) (string, error) {
	args := m.Called(ctx, tokenHash)
	return args.String(0), args.Error(1)
}
func (m *mockSessions) RevokeByHash(ctx context.Context, tokenHash string) error {
	return m.Called(ctx, tokenHash).Error(0)
}
func (m *mockSessions) RevokeAllForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

const adminAddr = "admin@library.test"

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
		AdminEmail:     adminAddr,
	}
}

func newService(users *mockUsers, sessions *mockSessions) *Service {
	return NewService(testConfig(), users, sessions, watch.NewBus(nil, zerolog.Nop()), zerolog.Nop())
}

func hashed(t *testing.T, plain string) string {
	t.Helper()
	h, err := utils.HashPassword(plain, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestSignInNormalizesEmail(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	u := model.User{ID: "u1", Email: "user@example.com", PasswordHash: hashed(t, "secret123")}
	users.On("GetByEmail", mock.Anything, "user@example.com").Return(u, nil)
	sessions.On("RevokeAllForUser", mock.Anything, "u1").Return(nil)
	sessions.On("Store", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.SignIn(context.Background(), "  User@Example.COM ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UserID)
	assert.Equal(t, "user@example.com", sess.Email)
	assert.False(t, sess.IsAdmin)
	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestSignInRevokesPriorSessions(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	u := model.User{ID: "u1", Email: "user@example.com", PasswordHash: hashed(t, "secret123")}
	users.On("GetByEmail", mock.Anything, "user@example.com").Return(u, nil)
	sessions.On("RevokeAllForUser", mock.Anything, "u1").Return(nil)
	sessions.On("Store", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.SignIn(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	sessions.AssertCalled(t, "RevokeAllForUser", mock.Anything, "u1")
}

func TestSignInMasksFailures(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(model.User{}, sql.ErrNoRows)

	_, err := svc.SignIn(context.Background(), "nobody@example.com", "whatever1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	// A failed sign-in for a non-reserved address never triggers sign-up.
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSignInWrongPasswordMasked(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	u := model.User{ID: "u1", Email: "user@example.com", PasswordHash: hashed(t, "rightpass")}
	users.On("GetByEmail", mock.Anything, "user@example.com").Return(u, nil)

	_, err := svc.SignIn(context.Background(), "user@example.com", "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	// Failed attempts must not evict the user's live sessions.
	sessions.AssertNotCalled(t, "RevokeAllForUser", mock.Anything, "u1")
}

func TestSignInAdminImplicitSignup(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	// First attempt: the account does not exist yet.
	users.On("GetByEmail", mock.Anything, adminAddr).Return(model.User{}, sql.ErrNoRows).Once()
	// Implicit signup for the reserved address.
	users.On("Create", mock.Anything, adminAddr, "adminpass1", bcrypt.MinCost).Return("a1", nil).Once()
	// Retry succeeds.
	admin := model.User{ID: "a1", Email: adminAddr, PasswordHash: hashed(t, "adminpass1")}
	users.On("GetByEmail", mock.Anything, adminAddr).Return(admin, nil).Once()
	sessions.On("RevokeAllForUser", mock.Anything, "a1").Return(nil)
	sessions.On("Store", mock.Anything, "a1", mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.SignIn(context.Background(), adminAddr, "adminpass1")
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin)
	users.AssertExpectations(t)
}

func TestSignInAdminExistingWrongPassword(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	admin := model.User{ID: "a1", Email: adminAddr, PasswordHash: hashed(t, "rightpass")}
	users.On("GetByEmail", mock.Anything, adminAddr).Return(admin, nil)
	// Implicit signup hits the existing account; the retry still fails and
	// the whole attempt stays masked.
	users.On("Create", mock.Anything, adminAddr, "wrongpass", bcrypt.MinCost).
		Return("", repository.ErrEmailExists)

	_, err := svc.SignIn(context.Background(), adminAddr, "wrongpass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUpRejectsReservedEmail(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	_, err := svc.SignUp(context.Background(), "  "+adminAddr+" ", "whatever1")
	assert.ErrorIs(t, err, ErrReservedEmail)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSignUpPropagatesRawError(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	users.On("Create", mock.Anything, "user@example.com", "secret123", bcrypt.MinCost).
		Return("", repository.ErrEmailExists)

	_, err := svc.SignUp(context.Background(), "User@Example.com", "secret123")
	// Unlike sign-in, sign-up does not flatten its errors.
	assert.ErrorIs(t, err, repository.ErrEmailExists)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignUpIssuesSession(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	users.On("Create", mock.Anything, "new@example.com", "secret123", bcrypt.MinCost).Return("u9", nil)
	users.On("GetByID", mock.Anything, "u9").Return(model.User{ID: "u9", Email: "new@example.com"}, nil)
	sessions.On("Store", mock.Anything, "u9", mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.SignUp(context.Background(), "new@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "u9", sess.UserID)
	assert.NotEmpty(t, sess.Access.Token)
	assert.NotEmpty(t, sess.Refresh.Raw)
	assert.False(t, sess.IsAdmin)
}

func TestSignOut(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	hash := utils.HashRefreshRaw("raw-token")
	sessions.On("Validate", mock.Anything, hash).Return("u1", nil)
	sessions.On("RevokeByHash", mock.Anything, hash).Return(nil)

	require.NoError(t, svc.SignOut(context.Background(), "raw-token"))
	sessions.AssertExpectations(t)
}

func TestSignOutPropagatesError(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	sessions.On("Validate", mock.Anything, mock.Anything).Return("", sql.ErrNoRows)

	err := svc.SignOut(context.Background(), "bogus")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRefreshRotates(t *testing.T) {
	users := new(mockUsers)
	sessions := new(mockSessions)
	svc := newService(users, sessions)

	hash := utils.HashRefreshRaw("old-token")
	sessions.On("Validate", mock.Anything, hash).Return("u1", nil)
	sessions.On("RevokeByHash", mock.Anything, hash).Return(nil)
	users.On("GetByID", mock.Anything, "u1").Return(model.User{ID: "u1", Email: "user@example.com"}, nil)
	sessions.On("Store", mock.Anything, "u1", mock.Anything, mock.Anything).Return(nil)

	sess, err := svc.Refresh(context.Background(), "old-token")
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", sess.Refresh.Raw)
	sessions.AssertCalled(t, "RevokeByHash", mock.Anything, hash)
}

func TestIsAdminIgnoresCase(t *testing.T) {
	svc := newService(new(mockUsers), new(mockSessions))
	assert.True(t, svc.IsAdmin(" Admin@Library.TEST "))
	assert.False(t, svc.IsAdmin("user@library.test"))
}
