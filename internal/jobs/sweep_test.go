package jobs

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/example/bazaar/internal/config"
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

func TestRunExecutesAllSteps(t *testing.T) {
	db, mock := newMockDB(t)

	// Expire stale ACTIVE codes.
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "verification_codes"`).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	// Delete long-retired codes.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "verification_codes"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	// Purge expired blacklist entries.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "revoked_tokens"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Hard-delete retired bare guests.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "users"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	NewSweeper(db, &config.Config{OTPExpiry: 2 * time.Minute}).Run()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestRunSurvivesFailingStep(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "verification_codes"`).
		WillReturnError(errDown{})
	mock.ExpectRollback()

	// Remaining steps still execute.
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "verification_codes"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "revoked_tokens"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "users"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	NewSweeper(db, &config.Config{OTPExpiry: 2 * time.Minute}).Run()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

type errDown struct{}

func (errDown) Error() string { return "connection refused" }
