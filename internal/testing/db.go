// Package testing provides shared test helpers for the scheduling
// pipeline.
package testing

import (
	"fmt"
	"os"
	"testing"

	"github.com/Subham170/AI-Recruitment-sub000/internal/database"
	_ "modernc.org/sqlite"
)

// NewTestDB creates a temporary SQLite database for tests with the
// schema for the given name applied. Returns the database and an
// idempotent cleanup function.
//
// Supported schema names:
//   - "core" - call records, tasks, availability, directory projections
//   - "index" - embeddings and the derived match index
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	// File-backed rather than in-memory so tests exercise the same
	// pragmas production runs with
	tmpFile, err := os.CreateTemp("", fmt.Sprintf("test_%s_*.db", name))
	if err != nil {
		t.Fatalf("Failed to create temporary database file: %v", err)
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()

	profile := database.ProfileStandard
	if name == "index" {
		profile = database.ProfileCache
	}

	db, err := database.New(database.Config{
		Path:    tmpPath,
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = os.Remove(tmpPath)
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db, func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
		if err := os.Remove(tmpPath); err != nil {
			t.Logf("Warning: Failed to remove temporary database file %s: %v", tmpPath, err)
		}
	}
}
