package testdb

import (
	"testing"

	"github.com/google/uuid"

	"github.com/abisalde/student-portal/internal/database"
)

// NewDatabase returns a migrated in-memory sqlite database closed at test cleanup.
func NewDatabase(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.Open("sqlite3", "file:"+uuid.NewString()+"?mode=memory&cache=shared&_foreign_keys=on")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}
