package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Path() != dbPath {
		t.Errorf("Expected path %s, got %s", dbPath, db.Path())
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database with nested path: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Dir(dbPath)); os.IsNotExist(err) {
		t.Error("Nested directories were not created")
	}
}

func TestSchema_TablesExist(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	for _, table := range []string{"kv", "secrets"} {
		var name string
		err := db.QueryRowContext(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s does not exist: %v", table, err)
		}
	}
}

func TestKV_PutGetDelete(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if _, ok, err := db.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v; want false, nil", ok, err)
	}

	if err := db.Put(KeyAccounts, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := db.Put(KeyAccounts, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}

	got, ok, err := db.Get(KeyAccounts)
	if err != nil || !ok {
		t.Fatalf("Get = ok %v, err %v", ok, err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("Get = %s, want {\"a\":2}", got)
	}

	if err := db.Delete(KeyAccounts); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := db.Get(KeyAccounts); ok {
		t.Error("key still present after Delete")
	}
	if err := db.Delete(KeyAccounts); err != nil {
		t.Errorf("Delete of missing key returned %v", err)
	}
}

func TestSecrets(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.SetSecret("inst_a", "csrf_token", "t1"); err != nil {
		t.Fatalf("SetSecret failed: %v", err)
	}
	if err := db.SetSecret("inst_a", "auth_token", "t2"); err != nil {
		t.Fatalf("SetSecret failed: %v", err)
	}
	if err := db.SetSecret("inst_b", "csrf_token", "t3"); err != nil {
		t.Fatalf("SetSecret failed: %v", err)
	}

	v, ok, err := db.GetSecret("inst_a", "csrf_token")
	if err != nil || !ok || v != "t1" {
		t.Errorf("GetSecret = %q, %v, %v; want t1, true, nil", v, ok, err)
	}

	if err := db.DeleteSecrets("inst_a"); err != nil {
		t.Fatalf("DeleteSecrets failed: %v", err)
	}
	if _, ok, _ := db.GetSecret("inst_a", "auth_token"); ok {
		t.Error("secret for inst_a survived DeleteSecrets")
	}
	if _, ok, _ := db.GetSecret("inst_b", "csrf_token"); !ok {
		t.Error("secret for inst_b removed by DeleteSecrets(inst_a)")
	}
}

func TestMigrate_MovesLegacySecrets(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	if err := db.Put("secret/inst_a/csrf_token", []byte("legacy")); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA user_version = 0"); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	db, err = New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	v, ok, err := db.GetSecret("inst_a", "csrf_token")
	if err != nil || !ok || v != "legacy" {
		t.Errorf("GetSecret = %q, %v, %v; want legacy, true, nil", v, ok, err)
	}
	if _, ok, _ := db.Get("secret/inst_a/csrf_token"); ok {
		t.Error("legacy kv key not removed")
	}
}

func TestJSONHelpers(t *testing.T) {
	sqliteDB := newTestDB(t)
	t.Cleanup(func() { _ = sqliteDB.Close() })

	stores := map[string]Store{
		"sqlite": sqliteDB,
		"memory": NewMemory(),
	}

	for name, s := range stores {
		t.Run(name, func(t *testing.T) {
			var out map[string]int
			found, err := GetJSON(s, "doc", &out)
			if err != nil || found {
				t.Fatalf("GetJSON on empty store = %v, %v", found, err)
			}

			if err := PutJSON(s, "doc", map[string]int{"x": 7}); err != nil {
				t.Fatalf("PutJSON failed: %v", err)
			}
			found, err = GetJSON(s, "doc", &out)
			if err != nil || !found {
				t.Fatalf("GetJSON = %v, %v", found, err)
			}
			if out["x"] != 7 {
				t.Errorf("out[x] = %d, want 7", out["x"])
			}

			if err := s.Put("bad", []byte("{not json")); err != nil {
				t.Fatal(err)
			}
			if _, err := GetJSON(s, "bad", &out); err == nil {
				t.Error("GetJSON on corrupt value should fail")
			}
		})
	}
}

func TestMemory_FailWrites(t *testing.T) {
	m := NewMemory()
	boom := errors.New("disk full")
	m.FailWrites(boom)

	if err := m.Put("k", []byte("v")); !errors.Is(err, boom) {
		t.Errorf("Put error = %v, want %v", err, boom)
	}
	if err := m.SetSecret("id", "p", "v"); !errors.Is(err, boom) {
		t.Errorf("SetSecret error = %v, want %v", err, boom)
	}

	m.FailWrites(nil)
	if err := m.Put("k", []byte("v")); err != nil {
		t.Errorf("Put after restore = %v", err)
	}
	if m.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", m.Writes())
	}
}

func TestVacuum(t *testing.T) {
	db := newTestDB(t)
	defer db.Close()

	if err := db.Vacuum(); err != nil {
		t.Errorf("Vacuum failed: %v", err)
	}
}

func TestClose(t *testing.T) {
	db := newTestDB(t)

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	_, err := db.QueryContext(context.Background(), "SELECT 1")
	if err == nil {
		t.Error("Expected error querying closed database")
	}
}

// Helper to create a test database
func newTestDB(t *testing.T) *DB {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	return db
}
