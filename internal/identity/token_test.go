package identity

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/bazaar/internal/apierr"
	"github.com/example/bazaar/internal/config"
	"github.com/example/bazaar/internal/models"
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

func testTokenService(t *testing.T, db *gorm.DB) *TokenService {
	t.Helper()
	return NewTokenService(db, &config.Config{
		JWTSecret: "test-secret",
		JWTExpiry: time.Hour,
	})
}

func TestIssueAndAuthenticate(t *testing.T) {
	db, mock := newMockDB(t)
	svc := testTokenService(t, db)

	session, err := svc.Issue(&models.User{ID: 42})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if session.Token == "" {
		t.Fatal("empty token")
	}
	if got, want := session.ExpiresAt, time.Now().Add(time.Hour).UnixMilli(); got < want-5000 || got > want+5000 {
		t.Errorf("expiry = %d, want about %d", got, want)
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "revoked_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "role", "status"}).AddRow(42, models.RoleCustomer, models.StatusActive))

	user, aerr := svc.Authenticate(session.Token)
	if aerr != nil {
		t.Fatalf("authenticate: %v", aerr)
	}
	if user.ID != 42 {
		t.Errorf("user id = %d", user.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	db, _ := newMockDB(t)
	svc := testTokenService(t, db)

	_, aerr := svc.Authenticate("not-a-jwt")
	if aerr == nil || aerr.Code != apierr.InvalidAuthToken {
		t.Fatalf("aerr = %v, want INVALID_AUTH_TOKEN", aerr)
	}
}

func TestAuthenticateRejectsWrongSecret(t *testing.T) {
	db, _ := newMockDB(t)
	svc := testTokenService(t, db)

	other := NewTokenService(db, &config.Config{JWTSecret: "other-secret", JWTExpiry: time.Hour})
	session, err := other.Issue(&models.User{ID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, aerr := svc.Authenticate(session.Token); aerr == nil || aerr.Code != apierr.InvalidAuthToken {
		t.Fatalf("aerr = %v, want INVALID_AUTH_TOKEN", aerr)
	}
}

func TestAuthenticateRejectsBlacklistedToken(t *testing.T) {
	db, mock := newMockDB(t)
	svc := testTokenService(t, db)

	session, err := svc.Issue(&models.User{ID: 7})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "revoked_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, aerr := svc.Authenticate(session.Token)
	if aerr == nil || aerr.Code != apierr.InvalidAuthToken {
		t.Fatalf("aerr = %v, want INVALID_AUTH_TOKEN", aerr)
	}
}

func TestAuthenticateVanishedUser(t *testing.T) {
	db, mock := newMockDB(t)
	svc := testTokenService(t, db)

	session, err := svc.Issue(&models.User{ID: 9})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	mock.ExpectQuery(`SELECT count\(\*\) FROM "revoked_tokens"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "users"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, aerr := svc.Authenticate(session.Token)
	if aerr == nil || aerr.Code != apierr.AccountNotFound {
		t.Fatalf("aerr = %v, want ACCOUNT_NOT_FOUND", aerr)
	}
}

func TestAuthenticateRejectsExpiredToken(t *testing.T) {
	db, _ := newMockDB(t)
	expired := NewTokenService(db, &config.Config{JWTSecret: "test-secret", JWTExpiry: -time.Minute})

	session, err := expired.Issue(&models.User{ID: 1})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc := testTokenService(t, db)
	if _, aerr := svc.Authenticate(session.Token); aerr == nil || aerr.Code != apierr.InvalidAuthToken {
		t.Fatalf("aerr = %v, want INVALID_AUTH_TOKEN", aerr)
	}
}
