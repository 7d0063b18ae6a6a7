package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/gate"
	"github.com/example/bazaar/internal/models"
	"github.com/example/bazaar/internal/response"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

// fixedUser bypasses credential checks so handler tests can focus on the
// database interaction.
type fixedUser struct{ user *models.User }

func (f fixedUser) Current(c *fiber.Ctx) (*models.User, *apierr.Error) {
	return f.user, nil
}

func sendJSON(t *testing.T, app *fiber.App, method, path string, headers map[string]string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
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

func testAddressApp(t *testing.T) (*fiber.App, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	env := response.NewEnvelope(false)
	g := gate.New(env, fixedUser{&models.User{ID: 5, Role: models.RoleCustomer, Status: models.StatusActive}})
	handler := NewAddressHandler(db, g)

	app := fiber.New()
	app.Put("/address/update", handler.Update)
	return app, mock
}

func addressRow(isDefault bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "postcode_id", "name", "default"}).
		AddRow(3, 5, 2, "Home", isDefault)
}

func postcodeRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "code", "status"}).
		AddRow(2, "560001", models.StatusActive)
}

func TestUpdatePromotingDefaultDemotesSiblingsFirst(t *testing.T) {
	app, mock := testAddressApp(t)

	mock.ExpectQuery(`SELECT \* FROM "addresses"`).WillReturnRows(addressRow(false))
	mock.ExpectQuery(`SELECT \* FROM "postcodes"`).WillReturnRows(postcodeRow())

	// One transaction: every other address drops its flag before this one
	// takes it, so at most one default survives concurrent promotions.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "addresses"`).
		WithArgs(false, sqlmock.AnyArg(), 5, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "addresses"`).
		WithArgs(true, sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "addresses"`).WillReturnRows(addressRow(true))
	mock.ExpectQuery(`SELECT \* FROM "postcodes"`).WillReturnRows(postcodeRow())

	status, payload := sendJSON(t, app, "PUT", "/address/update",
		map[string]string{"x-account-type": "phone"},
		map[string]any{"id": 3, "default": true})

	require.Equal(t, 200, status)
	body := payload["body"].(map[string]any)
	assert.Equal(t, "Address was updated successfully.", body["message"])
	assert.Equal(t, true, body["item"].(map[string]any)["default"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateWithoutDefaultFlagLeavesSiblingsAlone(t *testing.T) {
	app, mock := testAddressApp(t)

	mock.ExpectQuery(`SELECT \* FROM "addresses"`).WillReturnRows(addressRow(false))
	mock.ExpectQuery(`SELECT \* FROM "postcodes"`).WillReturnRows(postcodeRow())

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "addresses"`).
		WithArgs("Office", sqlmock.AnyArg(), 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectQuery(`SELECT \* FROM "addresses"`).WillReturnRows(addressRow(false))
	mock.ExpectQuery(`SELECT \* FROM "postcodes"`).WillReturnRows(postcodeRow())

	status, _ := sendJSON(t, app, "PUT", "/address/update",
		map[string]string{"x-account-type": "phone"},
		map[string]any{"id": 3, "name": "Office"})

	require.Equal(t, 200, status)
	require.NoError(t, mock.ExpectationsWereMet())
}
