package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sokoni/config"
	"sokoni/internal/database"
	"sokoni/internal/router"
	"sokoni/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobStore struct{ fail bool }

func (f *fakeBlobStore) UploadImage(_ context.Context, file io.Reader, folder, publicID string) (string, error) {
	if f.fail {
		return "", fmt.Errorf("upload refused")
	}
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	return "https://blobs.example/" + folder + "/" + publicID + ".jpg", nil
}

type apiFixture struct {
	engine *gin.Engine
	store  *fakeBlobStore
	cfg    *config.Config
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Load()
	cfg.Staging.ScratchDir = t.TempDir()
	db := testutil.OpenDB(t)
	database.SeedAdmin(db, &cfg.Admin)
	store := &fakeBlobStore{}
	return &apiFixture{engine: router.Setup(cfg, db, store), store: store, cfg: cfg}
}

func (f *apiFixture) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	body := map[string]json.RawMessage{}
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	}
	return w, body
}

func (f *apiFixture) jsonReq(t *testing.T, method, path, token string, payload any) *http.Request {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (f *apiFixture) registerCustomer(t *testing.T) string {
	t.Helper()
	w, body := f.do(t, f.jsonReq(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "Neema",
		"email":    "neema@example.com",
		"password": "s3cretpass",
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var token string
	require.NoError(t, json.Unmarshal(body["access_token"], &token))
	return token
}

func (f *apiFixture) loginAdmin(t *testing.T) string {
	t.Helper()
	w, body := f.do(t, f.jsonReq(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    f.cfg.Admin.Email,
		"password": f.cfg.Admin.Password,
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token string
	require.NoError(t, json.Unmarshal(body["access_token"], &token))
	return token
}

func (f *apiFixture) submitPayment(t *testing.T, token string, amountCents string, screenshot []byte) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("amount_cents", amountCents))
	if screenshot != nil {
		fw, err := mw.CreateFormFile("screenshot", "proof.jpg")
		require.NoError(t, err)
		_, err = fw.Write(screenshot)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return f.do(t, req)
}

func paymentField(t *testing.T, body map[string]json.RawMessage, field string) json.RawMessage {
	t.Helper()
	payment := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(body["payment"], &payment))
	return payment[field]
}

func TestPaymentSubmitAndVerifyFlow(t *testing.T) {
	f := newAPIFixture(t)
	customer := f.registerCustomer(t)
	admin := f.loginAdmin(t)

	w, body := f.submitPayment(t, customer, "10000", []byte("screenshot bytes"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `"PENDING"`, string(paymentField(t, body, "status")))
	var screenshotURL string
	require.NoError(t, json.Unmarshal(paymentField(t, body, "screenshot_url"), &screenshotURL))
	assert.True(t, strings.HasPrefix(screenshotURL, "https://blobs.example/"))
	var id uint
	require.NoError(t, json.Unmarshal(paymentField(t, body, "id"), &id))

	// Admin verifies; the customer's balance gains the amount.
	w, body = f.do(t, f.jsonReq(t, http.MethodPatch, fmt.Sprintf("/api/v1/payments/%d/status", id), admin, gin.H{"status": "verified"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `"VERIFIED"`, string(paymentField(t, body, "status")))

	w, body = f.do(t, f.jsonReq(t, http.MethodGet, "/api/v1/users/me", customer, nil))
	require.Equal(t, http.StatusOK, w.Code)
	user := map[string]json.RawMessage{}
	require.NoError(t, json.Unmarshal(body["user"], &user))
	assert.JSONEq(t, `10000`, string(user["credit_cents"]))

	// A second transition attempt is rejected and the balance holds.
	w, _ = f.do(t, f.jsonReq(t, http.MethodPatch, fmt.Sprintf("/api/v1/payments/%d/status", id), admin, gin.H{"status": "rejected"}))
	assert.Equal(t, http.StatusConflict, w.Code)

	w, body = f.do(t, f.jsonReq(t, http.MethodGet, "/api/v1/users/me", customer, nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(body["user"], &user))
	assert.JSONEq(t, `10000`, string(user["credit_cents"]))
}

func TestPaymentSubmitWithoutScreenshot(t *testing.T) {
	f := newAPIFixture(t)
	customer := f.registerCustomer(t)

	w, _ := f.submitPayment(t, customer, "10000", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentSubmitUploadFailure(t *testing.T) {
	f := newAPIFixture(t)
	customer := f.registerCustomer(t)
	f.store.fail = true

	w, _ := f.submitPayment(t, customer, "10000", []byte("screenshot"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// No payment record survives the failed staging.
	f.store.fail = false
	w, body := f.do(t, f.jsonReq(t, http.MethodGet, "/api/v1/payments/history", customer, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var payments []json.RawMessage
	require.NoError(t, json.Unmarshal(body["payments"], &payments))
	assert.Empty(t, payments)
}

func TestPaymentInvalidStatusTarget(t *testing.T) {
	f := newAPIFixture(t)
	customer := f.registerCustomer(t)
	admin := f.loginAdmin(t)

	w, body := f.submitPayment(t, customer, "500", []byte("s"))
	require.Equal(t, http.StatusCreated, w.Code)
	var id uint
	require.NoError(t, json.Unmarshal(paymentField(t, body, "id"), &id))

	w, _ = f.do(t, f.jsonReq(t, http.MethodPatch, fmt.Sprintf("/api/v1/payments/%d/status", id), admin, gin.H{"status": "refunded"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = f.do(t, f.jsonReq(t, http.MethodGet, fmt.Sprintf("/api/v1/payments/%d", id), admin, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `"PENDING"`, string(paymentField(t, body, "status")))
}

func TestPaymentAdminRoutesRequireAdmin(t *testing.T) {
	f := newAPIFixture(t)
	customer := f.registerCustomer(t)

	w, _ := f.do(t, f.jsonReq(t, http.MethodGet, "/api/v1/payments", customer, nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = f.do(t, f.jsonReq(t, http.MethodPatch, "/api/v1/payments/1/status", customer, gin.H{"status": "verified"}))
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = f.do(t, f.jsonReq(t, http.MethodGet, "/api/v1/payments/history", "", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentNotFound(t *testing.T) {
	f := newAPIFixture(t)
	admin := f.loginAdmin(t)

	w, _ := f.do(t, f.jsonReq(t, http.MethodPatch, "/api/v1/payments/424242/status", admin, gin.H{"status": "verified"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = f.do(t, f.jsonReq(t, http.MethodGet, "/api/v1/payments/424242", admin, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
