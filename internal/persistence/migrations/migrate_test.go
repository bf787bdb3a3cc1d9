package migrations

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewSourceDefaultsToEmbedded(t *testing.T) {
	source, label, err := newSource("")
	if err != nil {
		t.Fatalf("newSource returned error: %v", err)
	}
	defer source.Close()

	if label != EmbeddedSource {
		t.Fatalf("expected %s source label, got %s", EmbeddedSource, label)
	}
	if _, err := source.First(); err != nil {
		t.Fatalf("embedded source has no migrations: %v", err)
	}
}

func TestNewSourceReadsDirectoryOverride(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000001_init.up.sql", "000001_init.down.sql"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("write migration file: %v", err)
		}
	}

	source, label, err := newSource(dir)
	if err != nil {
		t.Fatalf("newSource returned error: %v", err)
	}
	defer source.Close()

	if !filepath.IsAbs(label) {
		t.Fatalf("expected absolute directory label, got %s", label)
	}
	if _, err := source.First(); err != nil {
		t.Fatalf("directory source has no migrations: %v", err)
	}
}

func TestNewSourceRejectsMissingDirectory(t *testing.T) {
	dir := t.TempDir()
	_, _, err := newSource(filepath.Join(dir, "missing"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestResolveDirSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db", "migrations")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir temp migrations: %v", err)
	}

	resolved, err := resolveDir(path)
	if err != nil {
		t.Fatalf("resolveDir returned error: %v", err)
	}
	if !filepath.IsAbs(resolved) {
		t.Fatalf("expected absolute path, got %s", resolved)
	}
	if resolved != filepath.Clean(resolved) {
		t.Fatalf("expected clean path, got %s", resolved)
	}
}

func TestResolveDirFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(path, []byte("data"), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	_, err := resolveDir(path)
	if err == nil {
		t.Fatal("expected error for file path")
	}
	if !errors.Is(err, errNotDirectory) {
		t.Fatalf("expected errNotDirectory, got %v", err)
	}
}

func TestRollbackRejectsNonPositiveSteps(t *testing.T) {
	err := Rollback(context.Background(), "postgres://ignored", "", 0, nil)
	if err == nil || !strings.Contains(err.Error(), "steps must be > 0") {
		t.Fatalf("expected step validation error, got %v", err)
	}
}
