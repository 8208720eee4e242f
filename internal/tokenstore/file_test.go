package tokenstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"phonebook/internal/errs"
)

func withTmpConfig(t *testing.T) *File {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	return NewFile()
}

func TestFile_Path(t *testing.T) {
	f := withTmpConfig(t)
	want := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "phonebook")
	if !strings.HasPrefix(f.path(), want) || !strings.HasSuffix(f.path(), "token") {
		t.Fatalf("path unexpected: %s", f.path())
	}
}

func TestFile_LoadMissing(t *testing.T) {
	f := withTmpConfig(t)
	if _, err := f.Load(); !errors.Is(err, errs.ErrNoToken) {
		t.Fatalf("want ErrNoToken, got %v", err)
	}
}

func TestFile_SaveLoadClear(t *testing.T) {
	f := withTmpConfig(t)

	if err := f.Save("tok-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	tok, err := f.Load()
	if err != nil || tok != "tok-1" {
		t.Fatalf("Load: tok=%q err=%v", tok, err)
	}

	// overwrite
	if err := f.Save("tok-2"); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	tok, err = f.Load()
	if err != nil || tok != "tok-2" {
		t.Fatalf("Load after overwrite: tok=%q err=%v", tok, err)
	}

	if err := f.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := f.Load(); !errors.Is(err, errs.ErrNoToken) {
		t.Fatalf("want ErrNoToken after clear, got %v", err)
	}

	// clearing again is fine
	if err := f.Clear(); err != nil {
		t.Fatalf("Clear twice: %v", err)
	}
}

func TestFile_EmptyFileIsNoToken(t *testing.T) {
	f := withTmpConfig(t)
	if err := os.MkdirAll(filepath.Dir(f.path()), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(f.path(), []byte("  \n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := f.Load(); !errors.Is(err, errs.ErrNoToken) {
		t.Fatalf("want ErrNoToken for blank file, got %v", err)
	}
}
