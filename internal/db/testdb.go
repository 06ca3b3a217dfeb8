package db

import (
	"context"
	"testing"

	"gorm.io/gorm"
)

// OpenTest returns a migrated in-memory SQLite database closed at test cleanup.
func OpenTest(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := Open(context.Background(), DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	t.Cleanup(func() { _ = Close(gdb) })
	return gdb
}
