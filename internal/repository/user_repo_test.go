package repository

import (
	"testing"

	"sokoni/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAddCredits(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewUserRepository(db)
	u := seedUser(t, db)

	require.NoError(t, repo.AddCredits(u.ID, 500))
	require.NoError(t, repo.AddCredits(u.ID, 250))

	got, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(750), got.CreditCents)
}

func TestAddCreditsUnknownUser(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewUserRepository(db)

	err := repo.AddCredits(9999, 500)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDebitCredits(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewUserRepository(db)
	u := seedUser(t, db)
	require.NoError(t, repo.AddCredits(u.ID, 300))

	require.NoError(t, repo.DebitCredits(u.ID, 200))

	err := repo.DebitCredits(u.ID, 200)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	got, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.CreditCents, "failed debit must not change the balance")
}

func TestDebitCreditsUnknownUser(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewUserRepository(db)

	err := repo.DebitCredits(9999, 100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
