package handlers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/bazaar/internal/config"
	"github.com/example/bazaar/internal/identity"
	"github.com/example/bazaar/internal/models"
	"github.com/example/bazaar/internal/response"
	"github.com/example/bazaar/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testAuthApp(t *testing.T) *fiber.App {
	return testAuthAppDB(t, nil, nil)
}

func testAuthAppDB(t *testing.T, db *gorm.DB, cfg *config.Config) *fiber.App {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{
			JWTSecret: "test-secret",
			JWTExpiry: time.Hour,
			OTPExpiry: 2 * time.Minute,
		}
	}
	env := response.NewEnvelope(false)
	handler := NewAuthHandler(identity.NewResolver(db, cfg), env, services.NewSMSClient(cfg), cfg)

	app := fiber.New()
	app.Post("/auth/in", handler.In)
	app.Post("/auth/refresh", handler.Refresh)
	app.Post("/auth/recover", handler.Recover)
	app.Post("/auth/verify", handler.Verify)
	return app
}

func post(t *testing.T, app *fiber.App, path string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	return resp.StatusCode, payload
}

func TestInRejectsUnknownChannel(t *testing.T) {
	app := testAuthApp(t)

	status, payload := post(t, app, "/auth/in", map[string]string{"x-account-type": "facebook"})
	assert.Equal(t, 422, status)
	assert.Equal(t, "MISSING_OR_INVALID_FIELDS", payload["body"].(map[string]any)["error"])

	status, _ = post(t, app, "/auth/in", nil)
	assert.Equal(t, 422, status)
}

func TestInGoogleRequiresTokenHeader(t *testing.T) {
	app := testAuthApp(t)

	status, payload := post(t, app, "/auth/in", map[string]string{"x-account-type": "google"})
	assert.Equal(t, 422, status)
	body := payload["body"].(map[string]any)
	fields := body["fields"].(map[string]any)
	assert.Contains(t, fields, "o-auth-token")
}

func TestInPhoneRequiresFields(t *testing.T) {
	app := testAuthApp(t)

	status, payload := post(t, app, "/auth/in", map[string]string{"x-account-type": "phone"})
	assert.Equal(t, 422, status)
	fields := payload["body"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "phone")
	assert.Contains(t, fields, "x-verification-code")
}

func TestRefreshRejectsGoogleChannel(t *testing.T) {
	app := testAuthApp(t)

	status, _ := post(t, app, "/auth/refresh", map[string]string{"x-account-type": "google"})
	assert.Equal(t, 422, status)
}

func TestRecoverRejectsGuestChannel(t *testing.T) {
	app := testAuthApp(t)

	status, _ := post(t, app, "/auth/recover", map[string]string{"x-account-type": "guest"})
	assert.Equal(t, 422, status)
}

func TestRefreshPhoneReturnsOnlySessionKeys(t *testing.T) {
	db, mock := newMockDB(t)
	app := testAuthAppDB(t, db, nil)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "role", "status"}).
			AddRow(5, "919999999999", models.RoleCustomer, models.StatusActive))

	status, payload := sendJSON(t, app, "POST", "/auth/refresh",
		map[string]string{"x-account-type": "phone"},
		map[string]any{"x-account-id": 5, "phone": "919999999999"})

	require.Equal(t, 200, status)
	block := payload["body"].(map[string]any)["user"].(map[string]any)
	assert.Contains(t, block, "o-auth-token")
	assert.Contains(t, block, "o-auth-expires")
	assert.NotContains(t, block, "auth")
	assert.NotContains(t, block, "name")
	assert.NotContains(t, block, "phone")
}

func TestRecoverGoogleReturnsBareUserBlock(t *testing.T) {
	google := fakeTokeninfo(t, map[string]string{
		"sub":   "google-sub",
		"email": "asha@example.com",
		"name":  "Asha Rao",
	})
	db, mock := newMockDB(t)
	cfg := &config.Config{
		JWTSecret:          "test-secret",
		JWTExpiry:          time.Hour,
		GoogleTokenInfoURL: google.URL,
	}
	app := testAuthAppDB(t, db, cfg)

	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "role", "status", "deleted_at"}).
			AddRow(7, "Asha Rao", "asha@example.com", models.RoleCustomer, models.StatusInactive, time.Now()))
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "users"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	status, payload := sendJSON(t, app, "POST", "/auth/recover",
		map[string]string{"x-account-type": "google", "o-auth-token": "id-token"}, nil)

	require.Equal(t, 200, status)
	body := payload["body"].(map[string]any)
	assert.Equal(t, "Account was recovered successfully.", body["message"])
	block := body["user"].(map[string]any)
	assert.Contains(t, block, "x-account-id")
	assert.NotContains(t, block, "auth")
	assert.NotContains(t, block, "name")
	assert.NotContains(t, block, "email")
	assert.NotContains(t, block, "photo")
}

func TestVerifyOnlyServesPhoneChannel(t *testing.T) {
	app := testAuthApp(t)

	status, _ := post(t, app, "/auth/verify", map[string]string{"x-account-type": "google"})
	assert.Equal(t, 422, status)

	status, payload := post(t, app, "/auth/verify", map[string]string{"x-account-type": "phone"})
	assert.Equal(t, 422, status)
	fields := payload["body"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "phone")
}
