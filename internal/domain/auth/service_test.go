package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"posada/internal/core/apperror"
	"posada/internal/core/id"
	"posada/internal/core/tenant"
	"posada/internal/domain/audit"
)

type stubUserRepo struct {
	users map[string]*User
	roles map[string][]string

	updated *User
}

func (r *stubUserRepo) GetByID(_ context.Context, userID id.ID) (*User, error) {
	for _, u := range r.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", userID)
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := r.users[email]
	if !ok {
		return nil, apperror.NewNotFound("user", email)
	}
	return u, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *User) error {
	r.updated = user
	return nil
}

func (r *stubUserRepo) LoadRoles(_ context.Context, userID id.ID) ([]string, error) {
	return r.roles[userID.String()], nil
}

type stubAudit struct {
	events []audit.Event
}

func (a *stubAudit) Record(_ context.Context, event audit.Event) error {
	a.events = append(a.events, event)
	return nil
}

func tenantCtx() context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{
		ID:       "22222222-2222-2222-2222-222222222222",
		Name:     "Hotel Centro",
		Currency: "ARS",
	})
}

func newLoginFixture(t *testing.T, password string) (*Service, *stubUserRepo, *stubAudit, *User) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	user := NewUser("ana@hotel.test", string(hash))
	user.FullName = "Ana Alvarez"

	repo := &stubUserRepo{
		users: map[string]*User{user.Email: user},
		roles: map[string][]string{user.ID.String(): {RoleReception}},
	}
	rec := &stubAudit{}
	svc := NewService(repo, NewJWTService(DefaultJWTConfig("test-secret")), rec, DefaultServiceConfig())
	return svc, repo, rec, user
}

func TestService_Login(t *testing.T) {
	svc, repo, rec, user := newLoginFixture(t, "correct horse")

	pair, loggedIn, err := svc.Login(tenantCtx(), Credentials{
		Email:    "ana@hotel.test",
		Password: "correct horse",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, []string{RoleReception}, loggedIn.Roles)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "22222222-2222-2222-2222-222222222222", claims.TenantID)

	require.NotNil(t, repo.updated)
	assert.NotNil(t, repo.updated.LastLoginAt)
	assert.Zero(t, repo.updated.FailedLoginAttempts)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.ActionLogin, rec.events[0].Action)
	assert.Equal(t, "user", rec.events[0].EntityType)
	assert.Equal(t, user.ID, rec.events[0].EntityID)
	assert.Equal(t, user.ID.String(), rec.events[0].UserID)
}

func TestService_Login_RequiresTenant(t *testing.T) {
	svc, _, _, _ := newLoginFixture(t, "pw")

	_, _, err := svc.Login(context.Background(), Credentials{Email: "ana@hotel.test", Password: "pw"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestService_Login_UnknownEmail(t *testing.T) {
	svc, _, _, _ := newLoginFixture(t, "pw")

	_, _, err := svc.Login(tenantCtx(), Credentials{Email: "nobody@hotel.test", Password: "pw"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
	assert.Equal(t, "invalid credentials", appErr.Message)
}

func TestService_Login_WrongPasswordCountsAttempt(t *testing.T) {
	svc, repo, rec, user := newLoginFixture(t, "correct horse")

	_, _, err := svc.Login(tenantCtx(), Credentials{
		Email:    "ana@hotel.test",
		Password: "wrong",
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)

	assert.Equal(t, 1, user.FailedLoginAttempts)
	assert.Same(t, user, repo.updated)
	assert.Empty(t, rec.events, "failed attempts are not audited as logins")
}

func TestService_Login_LocksAfterMaxAttempts(t *testing.T) {
	svc, _, _, user := newLoginFixture(t, "correct horse")

	for i := 0; i < DefaultServiceConfig().MaxLoginAttempts; i++ {
		_, _, err := svc.Login(tenantCtx(), Credentials{Email: "ana@hotel.test", Password: "wrong"})
		require.Error(t, err)
	}
	assert.True(t, user.IsLocked())

	// Even the right password is rejected while locked.
	_, _, err := svc.Login(tenantCtx(), Credentials{Email: "ana@hotel.test", Password: "correct horse"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestService_Login_DisabledAccount(t *testing.T) {
	svc, _, _, user := newLoginFixture(t, "pw")
	user.IsActive = false

	_, _, err := svc.Login(tenantCtx(), Credentials{Email: "ana@hotel.test", Password: "pw"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeForbidden, appErr.Code)
}

func TestUser_RecordFailedLogin(t *testing.T) {
	user := NewUser("a@b.test", "hash")

	user.RecordFailedLogin(3, 15*time.Minute)
	user.RecordFailedLogin(3, 15*time.Minute)
	assert.False(t, user.IsLocked())

	user.RecordFailedLogin(3, 15*time.Minute)
	assert.True(t, user.IsLocked())

	user.RecordSuccessfulLogin()
	assert.False(t, user.IsLocked())
	assert.Zero(t, user.FailedLoginAttempts)
	assert.NotNil(t, user.LastLoginAt)
}
