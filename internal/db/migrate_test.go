package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigrations(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"0001_widgets.up.sql":   `CREATE TABLE widgets (id TEXT PRIMARY KEY);`,
		"0001_widgets.down.sql": `DROP TABLE widgets;`,
		"0002_gadgets.up.sql":   `CREATE TABLE gadgets (id TEXT PRIMARY KEY);`,
		"0002_gadgets.down.sql": `DROP TABLE gadgets;`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestMigrateUpDownVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")
	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	migrationsDir := writeMigrations(t)

	version, dirty, err := db.MigrateVersion(migrationsDir)
	if err != nil {
		t.Fatalf("version before migrations: %v", err)
	}
	if version != 0 || dirty {
		t.Errorf("fresh db version = %d dirty=%v, want 0 clean", version, dirty)
	}

	if err := db.MigrateUp(migrationsDir); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	// A second run is a no-op.
	if err := db.MigrateUp(migrationsDir); err != nil {
		t.Fatalf("MigrateUp rerun: %v", err)
	}

	version, dirty, err = db.MigrateVersion(migrationsDir)
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 || dirty {
		t.Errorf("version after up = %d dirty=%v, want 2 clean", version, dirty)
	}

	var name string
	if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE name='gadgets'`).Scan(&name); err != nil {
		t.Errorf("gadgets table missing after MigrateUp: %v", err)
	}

	if err := db.MigrateDown(migrationsDir); err != nil {
		t.Fatalf("MigrateDown: %v", err)
	}
	version, _, err = db.MigrateVersion(migrationsDir)
	if err != nil {
		t.Fatal(err)
	}
	if version != 1 {
		t.Errorf("version after down = %d, want 1", version)
	}
}
