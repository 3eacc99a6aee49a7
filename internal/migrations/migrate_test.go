package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindLatestMigrationVersion(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"000003_events_index.up.sql",
		"000002_runtime_config.up.sql",
		"README.md",
	}
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	os.Mkdir(filepath.Join(dir, "000009_nested"), 0o755)

	if got := findLatestMigrationVersion(dir); got != 3 {
		t.Errorf("Expected latest version 3, got %d", got)
	}
}

func TestFindLatestMigrationVersionMissingDir(t *testing.T) {
	if got := findLatestMigrationVersion(filepath.Join(t.TempDir(), "nope")); got != 0 {
		t.Errorf("Expected 0 for missing dir, got %d", got)
	}
}

func TestShippedMigrationsPresent(t *testing.T) {
	if got := findLatestMigrationVersion(filepath.Join("..", "..", DefaultDir)); got < 1 {
		t.Errorf("Expected at least one migration in the repo, got version %d", got)
	}
}

func TestRunMigrationsEmptyURL(t *testing.T) {
	if err := RunMigrations("", ""); err == nil {
		t.Error("Expected error for empty database URL")
	}
}
