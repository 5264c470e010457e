package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rostersync/internal/roster"
	"rostersync/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOptionalDirectory_Missing(t *testing.T) {
	result := CheckOptionalDirectory("test", filepath.Join(t.TempDir(), "a", "b"))
	if !result.Passed {
		t.Fatalf("expected pass for creatable dir, got: %s", result.Detail)
	}
}

func TestCheckRosterFile_Missing(t *testing.T) {
	result := CheckRosterFile("roster", filepath.Join(t.TempDir(), "select.def"))
	if result.Passed {
		t.Fatal("expected failure for missing roster")
	}
}

func TestCheckRosterSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "select.def")
	testsupport.WriteText(t, path, "[Characters]\nkfm\nRyu\nrandomselect\n")

	if result := CheckRosterSection(path, roster.SectionCharacters, roster.SectionCodec{}); !result.Passed || result.Detail != "2 entries" {
		t.Fatalf("unexpected Characters result %+v", result)
	}
	if result := CheckRosterSection(path, roster.SectionExtraStages, roster.SectionCodec{}); result.Passed {
		t.Fatal("expected failure for missing ExtraStages header")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_HealthyGameTree(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := RunAll(context.Background(), cfg)
	if len(results) != 9 {
		t.Fatalf("expected 9 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_MissingCharsDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.RemoveAll(cfg.Paths.CharsDir); err != nil {
		t.Fatal(err)
	}

	failed := Failed(RunAll(context.Background(), cfg))
	if len(failed) != 1 || failed[0].Name != "Characters directory" {
		t.Fatalf("expected only the characters check to fail, got %+v", failed)
	}
}
