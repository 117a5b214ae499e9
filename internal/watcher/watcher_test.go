package watcher

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestExpandRecursive(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.log"))
	touch(t, filepath.Join(dir, "nested", "b.log"))
	touch(t, filepath.Join(dir, "nested", "deeper", "c.log"))
	touch(t, filepath.Join(dir, "nested", "skip.txt"))

	got, err := Expand([]string{filepath.Join(dir, "**", "*.log")})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "nested", "b.log"),
		filepath.Join(dir, "nested", "deeper", "c.log"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestExpandDeduplicates(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "auth.log")
	touch(t, p)

	got, err := Expand([]string{p, filepath.Join(dir, "*.log")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 path, got %v", got)
	}
}

func TestExpandNoMatch(t *testing.T) {
	got, err := Expand([]string{filepath.Join(t.TempDir(), "*.log")})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %v", got)
	}
}

func TestNewWatchesMatches(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "auth.log")
	touch(t, p)

	w, err := New([]string{filepath.Join(dir, "*.log")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.fsw.Close()

	if !reflect.DeepEqual(w.Paths(), []string{p}) {
		t.Errorf("expected [%s], got %v", p, w.Paths())
	}
}
