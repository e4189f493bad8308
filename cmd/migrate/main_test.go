package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_record_tables.sql", true, 1, "create_record_tables"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},       // wrong number format
		{"0001_test", false, 0, ""},             // missing .sql
		{"0001.sql", false, 0, ""},              // missing name
		{"invalid_0001_test.sql", false, 0, ""}, // wrong order
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.valid || version != tt.version || name != tt.name {
				t.Errorf("parseMigrationFilename(%q) = %d, %q, %v; want %d, %q, %v",
					tt.filename, version, name, ok, tt.version, tt.name, tt.valid)
			}
		})
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestReadMigrations(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0002_second.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (id INT64);",
		"0001_first.sql":  "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id INT64);",
		"README.md":       "not a migration",
	})

	migrations, err := readMigrations(dir, "proj", "ds")
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}
	if len(migrations) != 2 || migrations[0].Version != 1 || migrations[1].Version != 2 {
		t.Fatalf("migrations = %+v", migrations)
	}
	if !strings.Contains(migrations[0].SQL, "`proj.ds.a`") {
		t.Errorf("placeholders not replaced: %s", migrations[0].SQL)
	}

	again, _ := readMigrations(dir, "other", "other")
	if again[0].Checksum != migrations[0].Checksum {
		t.Error("checksum must not depend on project or dataset")
	}
	if migrations[0].Checksum == migrations[1].Checksum {
		t.Error("different content should have different checksums")
	}
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0001_a.sql": "SELECT 1;",
		"0001_b.sql": "SELECT 2;",
	})
	if _, err := readMigrations(dir, "p", "d"); err == nil {
		t.Error("expected duplicate version error")
	}
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "a", Checksum: "c1"},
		{Version: 2, Name: "b", Checksum: "c2-changed"},
		{Version: 3, Name: "c", Checksum: "c3"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "c1"},
		{Version: 2, Checksum: "c2"},
	}

	todo, mismatched := pendingMigrations(all, applied)
	if len(todo) != 1 || todo[0].Version != 3 {
		t.Errorf("todo = %+v", todo)
	}
	if len(mismatched) != 1 || mismatched[0].Version != 2 {
		t.Errorf("mismatched = %+v", mismatched)
	}
}

func TestRepositoryMigrationsParse(t *testing.T) {
	migrations, err := readMigrations(filepath.Join("..", "..", "migrations", "bigquery"), "p", "d")
	if err != nil {
		t.Fatalf("readMigrations() error = %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("expected migrations in the repository")
	}
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %s has version %d, want %d", m.Filename, m.Version, i+1)
		}
		if strings.Contains(m.SQL, "{{") {
			t.Errorf("%s has unreplaced placeholders", m.Filename)
		}
	}
}
