package backup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func writeRoster(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "select.def")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCreateWritesTimestampedCopy(t *testing.T) {
	dir := t.TempDir()
	roster := writeRoster(t, dir, "[Characters]\r\nkfm\r\n")
	m := NewManager(filepath.Join(dir, "backups"), nil)
	m.now = fixedClock(time.Date(2026, 3, 4, 5, 6, 7, 890_000_000, time.UTC))

	snapshot, err := m.Create(roster)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if got, want := snapshot.Name(), "select.def.2026-03-04T05-06-07.890Z.bak"; got != want {
		t.Fatalf("snapshot name = %q, want %q", got, want)
	}
	data, err := os.ReadFile(snapshot.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[Characters]\r\nkfm\r\n" {
		t.Fatalf("snapshot content mismatch: %q", data)
	}
	if snapshot.Size != int64(len(data)) {
		t.Fatalf("unexpected size %d", snapshot.Size)
	}
}

func TestCreateCollisionGetsSuffix(t *testing.T) {
	dir := t.TempDir()
	roster := writeRoster(t, dir, "[Characters]\n")
	m := NewManager(filepath.Join(dir, "backups"), nil)
	m.now = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	first, err := m.Create(roster)
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.Create(roster)
	if err != nil {
		t.Fatal(err)
	}
	if first.Path == second.Path {
		t.Fatal("expected distinct snapshot paths")
	}
	if got, want := second.Name(), "select.def.2026-01-01T00-00-00.000Z.1.bak"; got != want {
		t.Fatalf("second snapshot = %q, want %q", got, want)
	}

	snapshots, err := m.List(roster)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 2 || snapshots[0].Path != second.Path {
		t.Fatalf("expected suffixed snapshot first, got %+v", snapshots)
	}
}

func TestCreateMissingRosterIsBackupError(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "backups"), nil)

	_, err := m.Create(filepath.Join(dir, "select.def"))
	var backupErr *BackupError
	if !errors.As(err, &backupErr) {
		t.Fatalf("expected BackupError, got %v", err)
	}
	if backupErr.ErrorKind() != "backup" {
		t.Fatalf("unexpected kind %q", backupErr.ErrorKind())
	}
}

func TestCreateUnwritableDirectoryIsBackupError(t *testing.T) {
	dir := t.TempDir()
	roster := writeRoster(t, dir, "[Characters]\n")
	blocker := filepath.Join(dir, "backups")
	if err := os.WriteFile(blocker, []byte("not a directory"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewManager(blocker, nil).Create(roster)
	var backupErr *BackupError
	if !errors.As(err, &backupErr) {
		t.Fatalf("expected BackupError, got %v", err)
	}
}

func TestListNewestFirstIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	roster := writeRoster(t, dir, "[Characters]\n")
	backups := filepath.Join(dir, "backups")
	m := NewManager(backups, nil)

	for _, ts := range []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	} {
		m.now = fixedClock(ts)
		if _, err := m.Create(roster); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"notes.txt", "other.def.2026-01-01T00-00-00.000Z.bak", "select.def.garbage.bak"} {
		if err := os.WriteFile(filepath.Join(backups, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	snapshots, err := m.List(roster)
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots[0].CreatedAt.Month() != time.February {
		t.Fatalf("expected newest first, got %v", snapshots[0].CreatedAt)
	}

	latest, err := m.Resolve(roster, "latest")
	if err != nil || latest.Path != snapshots[0].Path {
		t.Fatalf("Resolve(latest) = %+v, %v", latest, err)
	}
	byName, err := m.Resolve(roster, snapshots[1].Name())
	if err != nil || byName.Path != snapshots[1].Path {
		t.Fatalf("Resolve(name) = %+v, %v", byName, err)
	}
	if _, err := m.Resolve(roster, "missing.bak"); err == nil {
		t.Fatal("expected error for unknown snapshot")
	}
}

func TestListMissingDirectory(t *testing.T) {
	snapshots, err := NewManager(filepath.Join(t.TempDir(), "none"), nil).List("select.def")
	if err != nil || len(snapshots) != 0 {
		t.Fatalf("expected empty list, got %v, %v", snapshots, err)
	}
}

func TestRestoreSnapshotsCurrentFirst(t *testing.T) {
	dir := t.TempDir()
	roster := writeRoster(t, dir, "[Characters]\nkfm\n")
	m := NewManager(filepath.Join(dir, "backups"), nil)
	m.now = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	original, err := m.Create(roster)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(roster, []byte("[Characters]\nkfm\nryu\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m.now = fixedClock(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	previous, err := m.Restore(original, roster)
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if previous == nil {
		t.Fatal("expected pre-restore snapshot")
	}

	restored, _ := os.ReadFile(roster)
	if string(restored) != "[Characters]\nkfm\n" {
		t.Fatalf("unexpected restored content %q", restored)
	}
	saved, _ := os.ReadFile(previous.Path)
	if string(saved) != "[Characters]\nkfm\nryu\n" {
		t.Fatalf("pre-restore snapshot content %q", saved)
	}
}

func TestParseName(t *testing.T) {
	cases := []struct {
		name string
		ok   bool
		seq  int
	}{
		{"select.def.2026-01-01T00-00-00.000Z.bak", true, 0},
		{"select.def.2026-01-01T00-00-00.000Z.3.bak", true, 3},
		{"select.def.2026-01-01T00-00-00.000Z.x.bak", false, 0},
		{"select.def.2026-01-01T00-00-00.000Z.0.bak", false, 0},
		{"select.def.bak", false, 0},
		{"other.def.2026-01-01T00-00-00.000Z.bak", false, 0},
	}
	for _, tc := range cases {
		_, seq, ok := parseName(tc.name, "select.def")
		if ok != tc.ok || seq != tc.seq {
			t.Errorf("parseName(%q) = (%d, %v), want (%d, %v)", tc.name, seq, ok, tc.seq, tc.ok)
		}
	}
}
