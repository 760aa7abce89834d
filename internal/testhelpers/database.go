package testhelpers

import (
	"database/sql"
	"path/filepath"
	"testing"

	"recipehub/pkg/database"
)

// NewTestDB opens a migrated SQLite database in a per-test temp dir. A file
// is used instead of :memory: so every pooled connection sees the same data.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
