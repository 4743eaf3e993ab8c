// Package testutil provides shared test helpers for databases and staging areas.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/starford/vocanote/internal/storage"
	"github.com/starford/vocanote/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vocanote-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(context.Background(), store.DriverSQLite, dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestStaging creates a temporary upload staging area.
func TestStaging(t *testing.T) (string, *storage.Staging) {
	t.Helper()
	dir := t.TempDir()
	st, err := storage.NewStaging(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, st
}
