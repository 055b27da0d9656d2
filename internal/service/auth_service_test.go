package service

import (
	"testing"

	"sokoni/config"
	"sokoni/internal/auth"
	"sokoni/internal/domain"
	"sokoni/internal/repository"
	"sokoni/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) *AuthService {
	t.Helper()
	db := testutil.OpenDB(t)
	cfg := config.Load()
	return NewAuthService(cfg, repository.NewUserRepository(db))
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthFixture(t)

	u, access, refresh, err := svc.Register("Neema", "neema@example.com", "s3cretpass", "0712000000", "Moshi")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCustomer, u.Role)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)
	assert.NotEqual(t, "s3cretpass", u.PasswordHash, "password must be hashed")

	claims, err := auth.ParseAccessToken(&svc.cfg.JWT, access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, domain.RoleCustomer, claims.Role)

	got, _, _, err := svc.Login("neema@example.com", "s3cretpass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuthFixture(t)
	_, _, _, err := svc.Register("Neema", "neema@example.com", "s3cretpass", "", "")
	require.NoError(t, err)
	_, _, _, err = svc.Register("Other", "neema@example.com", "s3cretpass", "", "")
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newAuthFixture(t)
	_, _, _, err := svc.Register("Neema", "neema@example.com", "s3cretpass", "", "")
	require.NoError(t, err)

	_, _, _, err = svc.Login("neema@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCreds)
	_, _, _, err = svc.Login("nobody@example.com", "s3cretpass")
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestChangePassword(t *testing.T) {
	svc := newAuthFixture(t)
	u, _, _, err := svc.Register("Neema", "neema@example.com", "s3cretpass", "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ChangePassword(u.ID, "wrong", "newpass123"), ErrInvalidCreds)
	require.NoError(t, svc.ChangePassword(u.ID, "s3cretpass", "newpass123"))

	_, _, _, err = svc.Login("neema@example.com", "newpass123")
	assert.NoError(t, err)
}

func TestRefreshToken(t *testing.T) {
	svc := newAuthFixture(t)
	_, _, refresh, err := svc.Register("Neema", "neema@example.com", "s3cretpass", "", "")
	require.NoError(t, err)

	access, newRefresh, err := svc.RefreshToken(refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, newRefresh)

	_, _, err = svc.RefreshToken("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
