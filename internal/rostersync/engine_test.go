package rostersync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"rostersync/internal/backup"
	"rostersync/internal/history"
	"rostersync/internal/roster"
	"rostersync/internal/testsupport"
)

type memoryRecorder struct {
	mu      sync.Mutex
	records []history.Record
}

func (r *memoryRecorder) Record(_ context.Context, records ...history.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
	return nil
}

func (r *memoryRecorder) outcomes() map[history.Outcome]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[history.Outcome]int)
	for _, rec := range r.records {
		counts[rec.Outcome]++
	}
	return counts
}

type fixture struct {
	engine   *Engine
	roster   string
	backups  string
	recorder *memoryRecorder
}

func newFixture(t *testing.T, content string) fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "select.def")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	backups := filepath.Join(dir, "backups")
	recorder := &memoryRecorder{}
	engine := New(Options{
		Backups:     backup.NewManager(backups, nil),
		Recorder:    recorder,
		OperationID: "op-test",
	})
	return fixture{engine: engine, roster: path, backups: backups, recorder: recorder}
}

func (f fixture) content(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.roster)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func (f fixture) snapshotCount(t *testing.T) int {
	t.Helper()
	entries, err := os.ReadDir(f.backups)
	if errors.Is(err, os.ErrNotExist) {
		return 0
	}
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func entries(names ...string) []roster.Entry {
	out := make([]roster.Entry, 0, len(names))
	for _, name := range names {
		out = append(out, roster.NewEntry(name))
	}
	return out
}

func TestReconcileAddsMissingEntries(t *testing.T) {
	f := newFixture(t, "[Characters]\nKFM\nrandomselect\n[ExtraStages]\n")

	result, err := f.engine.Reconcile(context.Background(), f.roster, roster.SectionCharacters, entries("Ryu", "kfm"))
	if err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	delta := result.Section(roster.SectionCharacters)
	if got := roster.Names(delta.Added); len(got) != 1 || got[0] != "Ryu" {
		t.Fatalf("added = %v, want [Ryu]", got)
	}
	if got := roster.Names(delta.AlreadyPresent); len(got) != 1 || got[0] != "kfm" {
		t.Fatalf("already present = %v, want [kfm]", got)
	}
	if !result.Written || result.Backup == nil {
		t.Fatalf("expected a write with a backup, got %+v", result)
	}
	if got, want := f.content(t), "[Characters]\nKFM\nRyu\nrandomselect\n[ExtraStages]\n"; got != want {
		t.Fatalf("roster = %q, want %q", got, want)
	}

	saved, err := os.ReadFile(result.Backup.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(saved) != "[Characters]\nKFM\nrandomselect\n[ExtraStages]\n" {
		t.Fatalf("backup holds %q", saved)
	}

	counts := f.recorder.outcomes()
	if counts[history.OutcomeAdded] != 1 || counts[history.OutcomeSkipped] != 1 {
		t.Fatalf("unexpected history outcomes %v", counts)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newFixture(t, "[Characters]\nKFM\n\n[ExtraStages]\n")
	ctx := context.Background()

	if _, err := f.engine.Reconcile(ctx, f.roster, roster.SectionCharacters, entries("Ryu")); err != nil {
		t.Fatal(err)
	}
	after := f.content(t)
	snapshots := f.snapshotCount(t)

	second, err := f.engine.Reconcile(ctx, f.roster, roster.SectionCharacters, entries("Ryu", "RYU", "kfm"))
	if err != nil {
		t.Fatal(err)
	}
	if second.Written || second.Backup != nil {
		t.Fatalf("second reconcile should not write, got %+v", second)
	}
	if len(second.Section(roster.SectionCharacters).Added) != 0 {
		t.Fatalf("second reconcile added %v", second.Section(roster.SectionCharacters).Added)
	}
	if f.content(t) != after {
		t.Fatalf("roster changed on second run: %q", f.content(t))
	}
	if f.snapshotCount(t) != snapshots {
		t.Fatalf("second run created a snapshot")
	}
}

func TestReconcileDedupesDiscoveredCaseInsensitively(t *testing.T) {
	f := newFixture(t, "[Characters]\n\n[ExtraStages]\n")

	result, err := f.engine.Reconcile(context.Background(), f.roster, roster.SectionCharacters, entries("Ryu", "ryu", " ", "randomselect"))
	if err != nil {
		t.Fatal(err)
	}
	delta := result.Section(roster.SectionCharacters)
	if len(delta.Added) != 1 || len(delta.AlreadyPresent) != 1 {
		t.Fatalf("unexpected delta %+v", delta)
	}
	got, err := f.engine.Entries(f.roster, roster.SectionCharacters)
	if err != nil {
		t.Fatal(err)
	}
	if names := roster.Names(got); len(names) != 1 || names[0] != "Ryu" {
		t.Fatalf("entries = %v", names)
	}
}

func TestReconcileStageMatchesListedPathIgnoringCase(t *testing.T) {
	content := "[Characters]\nkfm\nrandomselect\n\n[ExtraStages]\nstages/foo.def\n"
	f := newFixture(t, content)

	result, err := f.engine.Reconcile(context.Background(), f.roster, roster.SectionExtraStages, entries("stages/Foo.def"))
	if err != nil {
		t.Fatal(err)
	}
	delta := result.Section(roster.SectionExtraStages)
	if len(delta.Added) != 0 {
		t.Fatalf("stage added twice: %v", roster.Names(delta.Added))
	}
	if names := roster.Names(delta.AlreadyPresent); len(names) != 1 || names[0] != "stages/Foo.def" {
		t.Fatalf("already present = %v, want [stages/Foo.def]", names)
	}
	if result.Written || result.Backup != nil {
		t.Fatalf("nothing should be written, got %+v", result)
	}
	if f.content(t) != content || f.snapshotCount(t) != 0 {
		t.Fatal("roster or backups changed")
	}
}

func TestReconcileSectionsSingleWrite(t *testing.T) {
	f := newFixture(t, "[Characters]\nkfm\n\n[ExtraStages]\nstages/stage0.def\n")

	result, err := f.engine.ReconcileSections(context.Background(), f.roster, map[string][]roster.Entry{
		roster.SectionCharacters:  entries("Ryu"),
		roster.SectionExtraStages: entries("stages/bridge.def"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.snapshotCount(t) != 1 {
		t.Fatalf("expected one snapshot, got %d", f.snapshotCount(t))
	}
	want := "[Characters]\nkfm\nRyu\nrandomselect\n\n[ExtraStages]\nstages/bridge.def\nstages/stage0.def\n"
	if got := f.content(t); got != want {
		t.Fatalf("roster = %q, want %q", got, want)
	}
	if len(result.Sections) != 2 {
		t.Fatalf("expected two section deltas, got %d", len(result.Sections))
	}
}

func TestReconcileSkipsSectionsWithoutAdditions(t *testing.T) {
	f := newFixture(t, "[Characters]\nkfm\n")

	result, err := f.engine.ReconcileSections(context.Background(), f.roster, map[string][]roster.Entry{
		roster.SectionCharacters:  entries("Ryu"),
		roster.SectionExtraStages: nil,
	})
	if err != nil {
		t.Fatalf("missing ExtraStages without additions should not fail: %v", err)
	}
	if !result.Written {
		t.Fatal("expected Characters to be written")
	}
}

func TestReconcileMissingSectionLeavesFileUntouched(t *testing.T) {
	original := "[Characters]\nkfm\n"
	f := newFixture(t, original)

	_, err := f.engine.Reconcile(context.Background(), f.roster, roster.SectionExtraStages, entries("stages/bridge.def"))
	var notFound *roster.SectionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected SectionNotFoundError, got %v", err)
	}
	if f.content(t) != original {
		t.Fatalf("roster modified: %q", f.content(t))
	}
	if f.snapshotCount(t) != 0 {
		t.Fatal("no snapshot expected when nothing is written")
	}
	if f.recorder.outcomes()[history.OutcomeFailed] != 1 {
		t.Fatalf("expected a failed history record, got %v", f.recorder.outcomes())
	}
}

func TestReconcileBackupFailureAbortsWrite(t *testing.T) {
	original := "[Characters]\nkfm\n"
	f := newFixture(t, original)
	blocker := filepath.Join(t.TempDir(), "backups")
	if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}
	f.engine.backups = backup.NewManager(blocker, nil)

	_, err := f.engine.Reconcile(context.Background(), f.roster, roster.SectionCharacters, entries("Ryu"))
	var backupErr *backup.BackupError
	if !errors.As(err, &backupErr) {
		t.Fatalf("expected BackupError, got %v", err)
	}
	if roster.Kind(err) != "backup" {
		t.Fatalf("unexpected kind %q", roster.Kind(err))
	}
	if f.content(t) != original {
		t.Fatalf("roster modified: %q", f.content(t))
	}
}

func TestReconcileWriteFailureLeavesFileUntouched(t *testing.T) {
	original := "[Characters]\nkfm\n"
	f := newFixture(t, original)
	f.engine.writeFile = func(string, []byte, os.FileMode) error {
		return errors.New("disk full")
	}

	_, err := f.engine.Reconcile(context.Background(), f.roster, roster.SectionCharacters, entries("Ryu"))
	var writeErr *roster.WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
	if f.content(t) != original {
		t.Fatalf("roster modified: %q", f.content(t))
	}
}

func TestReconcileMissingRosterFails(t *testing.T) {
	dir := t.TempDir()
	engine := New(Options{Backups: backup.NewManager(filepath.Join(dir, "backups"), nil)})
	path := filepath.Join(dir, "select.def")

	_, err := engine.Reconcile(context.Background(), path, roster.SectionCharacters, entries("Ryu"))
	var notFound *roster.SectionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected SectionNotFoundError, got %v", err)
	}
	if _, statErr := os.Stat(path); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatal("roster should not be created")
	}
}

func TestReconcileBusyRoster(t *testing.T) {
	f := newFixture(t, "[Characters]\nkfm\n")
	held := flock.New(f.roster + ".lock")
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("could not take lock: %v", err)
	}
	defer held.Unlock()

	_, err = f.engine.Reconcile(context.Background(), f.roster, roster.SectionCharacters, entries("Ryu"))
	if !errors.Is(err, ErrRosterBusy) {
		t.Fatalf("expected ErrRosterBusy, got %v", err)
	}
}

func TestConfiguredLockLivesInStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	engine, err := NewFromConfig(cfg, nil, nil, "")
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if _, err := engine.Reconcile(context.Background(), cfg.Paths.RosterFile, roster.SectionCharacters, entries("Ryu")); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.RosterFile + ".lock"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("lock file left beside the roster, stat err = %v", err)
	}
	lockPath := LockPath(filepath.Join(cfg.Paths.StateDir, "locks"), cfg.Paths.RosterFile)
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("lock file not under state dir: %v", err)
	}

	held := flock.New(lockPath)
	if ok, err := held.TryLock(); err != nil || !ok {
		t.Fatalf("could not take lock: %v", err)
	}
	defer held.Unlock()
	if _, err := engine.Reconcile(context.Background(), cfg.Paths.RosterFile, roster.SectionCharacters, entries("Ken")); !errors.Is(err, ErrRosterBusy) {
		t.Fatalf("expected ErrRosterBusy, got %v", err)
	}
}

func TestLockPathDistinguishesRosters(t *testing.T) {
	dir := t.TempDir()
	a := LockPath(dir, filepath.Join(dir, "mugen", "data", "select.def"))
	b := LockPath(dir, filepath.Join(dir, "ikemen", "data", "select.def"))
	if a == b {
		t.Fatalf("two rosters share lock %s", a)
	}
	if filepath.Dir(a) != dir {
		t.Fatalf("lock %s not inside %s", a, dir)
	}
	if got := LockPath("", "/games/select.def"); got != "/games/select.def.lock" {
		t.Fatalf("LockPath without dir = %q", got)
	}
}

func TestReconcileCancelledContext(t *testing.T) {
	original := "[Characters]\nkfm\n"
	f := newFixture(t, original)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.engine.Reconcile(ctx, f.roster, roster.SectionCharacters, entries("Ryu")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.content(t) != original {
		t.Fatal("roster modified")
	}
}

func TestRemoveDeletesMatchingEntries(t *testing.T) {
	f := newFixture(t, "[Characters]\nkfm\nRyu, stages/ryu.def\nryu/ryu.def\nrandomselect\n\n[ExtraStages]\n")

	result, err := f.engine.Remove(context.Background(), f.roster, roster.SectionCharacters, "ryu")
	if err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if len(result.Removed) != 2 {
		t.Fatalf("expected two removals, got %v", roster.Names(result.Removed))
	}
	if got, want := f.content(t), "[Characters]\nkfm\nrandomselect\n\n[ExtraStages]\n"; got != want {
		t.Fatalf("roster = %q, want %q", got, want)
	}
	if f.recorder.outcomes()[history.OutcomeRemoved] != 2 {
		t.Fatalf("unexpected history %v", f.recorder.outcomes())
	}
}

func TestRemoveUnknownEntryWritesNothing(t *testing.T) {
	original := "[Characters]\nkfm\n"
	f := newFixture(t, original)

	result, err := f.engine.Remove(context.Background(), f.roster, roster.SectionCharacters, "ryu")
	if err != nil {
		t.Fatal(err)
	}
	if result.Written || len(result.Removed) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.snapshotCount(t) != 0 || f.content(t) != original {
		t.Fatal("nothing should be written")
	}
}

func TestRemoveRejectsSentinel(t *testing.T) {
	f := newFixture(t, "[Characters]\nrandomselect\n")
	if _, err := f.engine.Remove(context.Background(), f.roster, roster.SectionCharacters, "RandomSelect"); err == nil {
		t.Fatal("expected error removing the sentinel")
	}
}

func TestEntriesReportsParseWarning(t *testing.T) {
	engine := New(Options{})
	_, err := engine.Entries(filepath.Join(t.TempDir(), "missing.def"), roster.SectionCharacters)
	var warning *roster.ParseWarning
	if !errors.As(err, &warning) {
		t.Fatalf("expected ParseWarning, got %v", err)
	}
}

func TestReconcileRecordsJSONRoster(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roster.json")
	if err := os.WriteFile(path, []byte(`{"characters": [{"name": "kfm"}], "extraStages": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	engine := New(Options{Codec: roster.RecordCodec{}, Backups: backup.NewManager(filepath.Join(dir, "backups"), nil)})

	if _, err := engine.Reconcile(context.Background(), path, roster.SectionCharacters, entries("Ryu")); err != nil {
		t.Fatalf("Reconcile returned error: %v", err)
	}
	got, err := engine.Entries(path, roster.SectionCharacters)
	if err != nil {
		t.Fatal(err)
	}
	if names := roster.Names(got); len(names) != 2 || names[0] != "kfm" || names[1] != "Ryu" {
		t.Fatalf("entries = %v", names)
	}
}
