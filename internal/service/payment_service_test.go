package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"sokoni/internal/domain"
	"sokoni/internal/models"
	"sokoni/internal/repository"
	"sokoni/internal/testutil"
	"sokoni/pkg/staging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBlobStore struct {
	err     error
	uploads int
}

func (f *fakeBlobStore) UploadImage(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	f.uploads++
	return "https://blobs.example/" + folder + "/" + publicID + ".jpg", nil
}

type paymentFixture struct {
	db    *gorm.DB
	svc   *PaymentService
	users *repository.UserRepository
	store *fakeBlobStore
	user  *models.User
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	store := &fakeBlobStore{}
	users := repository.NewUserRepository(db)
	payments := repository.NewPaymentRepository(db)
	stager := staging.New(t.TempDir(), "test/payments", "payment", store)
	svc := NewPaymentService(payments, users, stager)

	u := &models.User{Name: "Juma", Email: "juma@example.com", Role: domain.RoleCustomer}
	require.NoError(t, db.Create(u).Error)
	return &paymentFixture{db: db, svc: svc, users: users, store: store, user: u}
}

func (f *paymentFixture) balance(t *testing.T) int64 {
	t.Helper()
	u, err := f.users.GetByID(f.user.ID)
	require.NoError(t, err)
	return u.CreditCents
}

func (f *paymentFixture) paymentCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.Payment{}).Count(&n).Error)
	return n
}

func TestSubmitCreatesPendingPayment(t *testing.T) {
	f := newPaymentFixture(t)

	p, err := f.svc.Submit(context.Background(), f.user.ID, 10000, []byte("screenshot"))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, p.Status)
	assert.Equal(t, int64(10000), p.AmountCents)
	assert.Contains(t, p.ScreenshotURL, "https://blobs.example/test/payments/")
	assert.Equal(t, 1, f.store.uploads)
}

func TestSubmitMissingArtifact(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.Submit(context.Background(), f.user.ID, 10000, nil)
	assert.ErrorIs(t, err, ErrMissingArtifact)
	assert.Zero(t, f.paymentCount(t))
	assert.Zero(t, f.store.uploads)
}

func TestSubmitInvalidAmountUploadsNothing(t *testing.T) {
	f := newPaymentFixture(t)

	_, err := f.svc.Submit(context.Background(), f.user.ID, 0, []byte("screenshot"))
	assert.ErrorIs(t, err, repository.ErrInvalidAmount)
	assert.Zero(t, f.paymentCount(t))
	assert.Zero(t, f.store.uploads, "invalid amount must be rejected before upload")
}

func TestSubmitUploadFailureCreatesNoPayment(t *testing.T) {
	f := newPaymentFixture(t)
	f.store.err = errors.New("cloud is down")

	_, err := f.svc.Submit(context.Background(), f.user.ID, 10000, []byte("screenshot"))
	assert.ErrorIs(t, err, ErrArtifactUpload)
	assert.Zero(t, f.paymentCount(t))
}

func TestSetStatusVerifiedCreditsOnce(t *testing.T) {
	f := newPaymentFixture(t)
	p, err := f.svc.Submit(context.Background(), f.user.ID, 10000, []byte("screenshot"))
	require.NoError(t, err)

	got, err := f.svc.SetStatus(context.Background(), p.ID, "verified")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusVerified, got.Status)
	assert.Equal(t, int64(10000), f.balance(t))

	// Second transition of any kind must fail and leave the balance alone.
	_, err = f.svc.SetStatus(context.Background(), p.ID, "rejected")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, int64(10000), f.balance(t))

	_, err = f.svc.SetStatus(context.Background(), p.ID, "verified")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, int64(10000), f.balance(t))

	stored, err := f.svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusVerified, stored.Status)
}

func TestSetStatusRejectedNeverCredits(t *testing.T) {
	f := newPaymentFixture(t)
	p, err := f.svc.Submit(context.Background(), f.user.ID, 5000, []byte("screenshot"))
	require.NoError(t, err)

	got, err := f.svc.SetStatus(context.Background(), p.ID, "REJECTED")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRejected, got.Status)
	assert.Zero(t, f.balance(t))
}

func TestSetStatusInvalidTarget(t *testing.T) {
	f := newPaymentFixture(t)
	p, err := f.svc.Submit(context.Background(), f.user.ID, 5000, []byte("screenshot"))
	require.NoError(t, err)

	for _, bad := range []string{"pending", "PAID", "", "done"} {
		_, err := f.svc.SetStatus(context.Background(), p.ID, bad)
		assert.ErrorIs(t, err, ErrInvalidStatus, "status %q", bad)
	}
	stored, err := f.svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, stored.Status)
	assert.Zero(t, f.balance(t))
}

func TestSetStatusUnknownPayment(t *testing.T) {
	f := newPaymentFixture(t)
	_, err := f.svc.SetStatus(context.Background(), 9999, "verified")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestSetStatusStaleUser(t *testing.T) {
	f := newPaymentFixture(t)
	p, err := f.svc.Submit(context.Background(), f.user.ID, 5000, []byte("screenshot"))
	require.NoError(t, err)
	require.NoError(t, f.db.Unscoped().Delete(&models.User{}, f.user.ID).Error)

	_, err = f.svc.SetStatus(context.Background(), p.ID, "verified")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestConcurrentVerifyCreditsExactlyOnce(t *testing.T) {
	f := newPaymentFixture(t)
	p, err := f.svc.Submit(context.Background(), f.user.ID, 10000, []byte("screenshot"))
	require.NoError(t, err)

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.SetStatus(context.Background(), p.ID, "verified")
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyProcessed):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one caller must win the transition")
	assert.Equal(t, callers-1, losses)
	assert.Equal(t, int64(10000), f.balance(t), "credit must apply exactly once")
}

func TestHistoryAndListAllProjections(t *testing.T) {
	f := newPaymentFixture(t)
	first, err := f.svc.Submit(context.Background(), f.user.ID, 100, []byte("a"))
	require.NoError(t, err)
	second, err := f.svc.Submit(context.Background(), f.user.ID, 200, []byte("b"))
	require.NoError(t, err)
	_, err = f.svc.SetStatus(context.Background(), first.ID, "verified")
	require.NoError(t, err)

	all, err := f.svc.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "pending payment sorts before resolved")

	history, err := f.svc.History(f.user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}
