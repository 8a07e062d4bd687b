// Package testing provides testing utilities and helpers for the pricer project.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/vintagescan/pricer/internal/database"
)

// NewTestDB creates a file-backed SQLite database in a per-test temp dir with
// the named schema applied ("cache" or "pricing"). The database is closed
// when the test ends.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	profile := database.ProfileStandard
	if name == database.NameCache {
		profile = database.ProfileCache
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	return db
}
