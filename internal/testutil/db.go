// Package testutil provides helpers for tests that need a real MySQL.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/iliyamo/cop-side-events/internal/database"
)

// MySQL opens the database named by TEST_MYSQL_DSN and applies the
// migrations. The test is skipped when the variable is unset or the
// server cannot be reached.
func MySQL(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	db, err := database.OpenDSN(dsn)
	if err != nil {
		t.Skipf("mysql unavailable: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	Truncate(t, db)
	return db
}

// Truncate empties every data table, leaving the schedule lock row.
func Truncate(t *testing.T, db *sql.DB) {
	t.Helper()
	stmts := []string{
		"SET FOREIGN_KEY_CHECKS=0",
		"TRUNCATE TABLE post_event_reports",
		"TRUNCATE TABLE invoices",
		"TRUNCATE TABLE event_applications",
		"TRUNCATE TABLE participants",
		"TRUNCATE TABLE activists",
		"TRUNCATE TABLE organisations",
		"TRUNCATE TABLE announcements",
		"TRUNCATE TABLE action_tokens",
		"TRUNCATE TABLE refresh_tokens",
		"TRUNCATE TABLE staff_profiles",
		"TRUNCATE TABLE users",
		"SET FOREIGN_KEY_CHECKS=1",
	}
	// A pool may hand each statement a different session, so pin one.
	conn, err := db.Conn(context.Background())
	if err != nil {
		t.Fatalf("conn: %v", err)
	}
	defer conn.Close()
	for _, s := range stmts {
		if _, err := conn.ExecContext(context.Background(), s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
}
