package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/atikulmunna/logsift/internal/features"
	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/pipeline"
	"github.com/atikulmunna/logsift/internal/table"
)

func TestShouldShow(t *testing.T) {
	warn := model.Scored{Record: model.Record{Level: "WARN"}, Prediction: 1}
	info := model.Scored{Record: model.Record{Level: "INFO"}}
	bad := model.Scored{Record: model.Record{ParseError: true}}

	levels := map[string]bool{"WARN": true}

	if !shouldShow(info, nil, false) || !shouldShow(bad, nil, false) {
		t.Error("expected everything to pass without filters")
	}
	if !shouldShow(warn, levels, false) || shouldShow(info, levels, false) {
		t.Error("level filter not applied")
	}
	if shouldShow(bad, levels, false) {
		t.Error("malformed lines have no level and should not pass a level filter")
	}
	if !shouldShow(warn, nil, true) || shouldShow(info, nil, true) {
		t.Error("flagged filter not applied")
	}
}

func TestExtractAllGlobs(t *testing.T) {
	dir := t.TempDir()
	a := "2025-01-01 10:00:00,INFO,login,username=alice,status=success,ip=10.0.0.5\n"
	b := "2025-01-01 10:05:23,WARN,login,username=admin,status=failed,ip=8.8.8.8\nbroken\n"
	if err := os.WriteFile(filepath.Join(dir, "a.log"), []byte(a), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.log"), []byte(b), 0644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	w := table.NewWriter(&buf)
	ext := pipeline.NewExtractor(slog.Default())

	sum, err := extractAll(context.Background(), ext, []string{filepath.Join(dir, "*.log")}, w, slog.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	if sum.Lines != 3 || sum.ParseErrors != 1 {
		t.Errorf("expected 3 lines / 1 parse error, got %+v", sum)
	}

	want := strings.Join([]string{
		"is_failed_login,is_admin_user,is_external_ip,level_info,level_warn,level_error,parse_error",
		"0,0,0,1,0,0,0",
		"1,1,1,0,1,0,0",
		"0,0,0,0,0,0,1",
	}, "\n") + "\n"
	if buf.String() != want {
		t.Errorf("expected table:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestExtractAllNoMatch(t *testing.T) {
	ext := pipeline.NewExtractor(nil)
	_, err := extractAll(context.Background(), ext, []string{filepath.Join(t.TempDir(), "*.log")}, table.NewWriter(&bytes.Buffer{}), slog.Default())
	if err == nil {
		t.Error("expected error when no files match")
	}
}

func TestLazyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")

	empty := &lazyFile{path: path}
	if err := empty.Commit(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file without writes, stat err = %v", err)
	}

	f := &lazyFile{path: path}
	if _, err := f.Write([]byte("x\n")); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file before Commit, stat err = %v", err)
	}
	if err := f.Commit(); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "x\n" {
		t.Errorf("expected %q, got %q", "x\n", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("expected temporary file to be gone, stat err = %v", err)
	}
}

func TestLazyFileAbortAfterFailedExtract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.csv")
	good := filepath.Join(dir, "a.log")
	if err := os.WriteFile(good, []byte("ts,INFO,login,status=success\n"), 0644); err != nil {
		t.Fatal(err)
	}

	f := &lazyFile{path: path}
	w := table.NewWriter(f)
	ext := pipeline.NewExtractor(nil)

	// The second pattern is a literal path that disappears before it is opened.
	missing := filepath.Join(dir, "b.log")
	if err := os.WriteFile(missing, []byte("ts,WARN,login\n"), 0644); err != nil {
		t.Fatal(err)
	}
	ext.TextStats = func(source, _ string, _ features.TextStats) {
		if source == good {
			os.Remove(missing)
		}
	}

	_, err := extractAll(context.Background(), ext, []string{good, missing}, w, slog.Default())
	if err == nil {
		t.Fatal("expected error for a file removed mid-run")
	}
	_ = w.Flush()
	f.Abort()

	for _, p := range []string{path, path + ".tmp"} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s to be absent after a failed run, stat err = %v", p, err)
		}
	}
}
