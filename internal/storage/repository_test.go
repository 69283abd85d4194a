package storage

import (
	"path/filepath"
	"testing"

	"khetbook/internal/log"
	"khetbook/internal/repository"
	"khetbook/internal/repository/repotest"
)

func TestSQLiteRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.Store {
		repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "khetbook.db"), nil)
		if err != nil {
			t.Fatalf("NewSQLiteRepository: %v", err)
		}
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "khetbook.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path, nil)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		repo.Close()
	}
}

func TestMigrateSchemaReportsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "khetbook.db")
	for i := 0; i < 2; i++ {
		v, err := migrateSchema(path, log.Discard())
		if err != nil {
			t.Fatalf("migrate #%d: %v", i+1, err)
		}
		if v != 1 {
			t.Fatalf("schema version = %d, want 1", v)
		}
	}
}
