package testhelpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" //nolint:blankimports // PostgreSQL driver

	infralogger "github.com/jonesrussell/north-cloud/lead-manager/internal/infrastructure/logger"
)

// defaultTestDSN is used when LEAD_MANAGER_TEST_DB is unset.
const defaultTestDSN = "host=localhost port=5432 user=postgres password=postgres dbname=lead_manager_test sslmode=disable"

// NewMockDB returns an sqlx handle backed by sqlmock. Expectations are verified on cleanup.
func NewMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
			t.Errorf("unmet sqlmock expectations: %v", expectErr)
		}
		_ = db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

// OpenTestDB connects to a real Postgres for integration tests and applies the migrations.
// The test is skipped in -short mode or when the database is unreachable.
func OpenTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	dsn := os.Getenv("LEAD_MANAGER_TEST_DB")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	ctx := context.Background()
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		t.Skipf("Skipping test: could not connect to test database: %v", err)
	}
	if migrateErr := RunMigrations(ctx, db, NewTestLogger()); migrateErr != nil {
		_ = db.Close()
		t.Skipf("Skipping test: could not run migrations: %v", migrateErr)
	}

	t.Cleanup(func() {
		_, _ = db.ExecContext(context.Background(),
			"TRUNCATE TABLE discovered_leads, discovery_sources, leads CASCADE")
		_ = db.Close()
	})
	return db
}

// RunMigrations executes the SQL migration files on a database connection.
func RunMigrations(ctx context.Context, db *sqlx.DB, log infralogger.Logger) error {
	_, filename, _, _ := runtime.Caller(0)
	migrationsPath := filepath.Join(filepath.Dir(filename), "..", "..", "migrations")

	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.sql"))
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}

	for _, migrationFile := range files {
		sqlBytes, readErr := os.ReadFile(migrationFile)
		if readErr != nil {
			return fmt.Errorf("read migration file: %w", readErr)
		}
		if _, execErr := db.ExecContext(ctx, string(sqlBytes)); execErr != nil {
			return fmt.Errorf("execute migration %s: %w", filepath.Base(migrationFile), execErr)
		}
		log.Info("Migration applied", infralogger.String("migration_file", filepath.Base(migrationFile)))
	}

	return nil
}
