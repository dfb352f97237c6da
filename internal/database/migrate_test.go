package database

import (
	"io/fs"
	"sort"
	"strings"
	"testing"
)

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/todos?sslmode=disable":   "pgx5://u:p@db:5432/todos?sslmode=disable",
		"postgresql://u:p@db:5432/todos?sslmode=disable": "pgx5://u:p@db:5432/todos?sslmode=disable",
		"pgx5://u:p@db:5432/todos":                       "pgx5://u:p@db:5432/todos",
	}
	for in, want := range tests {
		if got := migrateURL(in); got != want {
			t.Errorf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("failed to read embedded migrations: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}

	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	var versions []string
	for v := range ups {
		versions = append(versions, v)
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
	sort.Strings(versions)
	if versions[0] != "000001_create_users_table" {
		t.Errorf("first migration = %s, want users table before todos", versions[0])
	}
}

func TestTodosMigrationEnforcesOwnershipAndLength(t *testing.T) {
	b, err := fs.ReadFile(migrationsFS, "migrations/000002_create_todos_table.up.sql")
	if err != nil {
		t.Fatalf("failed to read todos migration: %v", err)
	}
	sql := string(b)
	for _, want := range []string{
		"REFERENCES users (id)",
		"VARCHAR(255) NOT NULL",
		"char_length(text) BETWEEN 1 AND 255",
		"DEFAULT false",
		"(user_id, created_at, id)",
	} {
		if !strings.Contains(sql, want) {
			t.Errorf("todos migration missing %q", want)
		}
	}
}
