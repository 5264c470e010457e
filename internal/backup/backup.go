package backup

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"rostersync/internal/fileutil"
	"rostersync/internal/logging"
)

// TimestampLayout formats the snapshot timestamp embedded in file names.
const TimestampLayout = "2006-01-02T15-04-05.000Z"

const (
	snapshotExt  = ".bak"
	maxCollision = 1000
)

// Snapshot describes one backup file.
type Snapshot struct {
	Path      string    `json:"path"`
	Roster    string    `json:"roster"`
	CreatedAt time.Time `json:"created_at"`
	Size      int64     `json:"size"`
}

// Name returns the snapshot's file name.
func (s Snapshot) Name() string {
	return filepath.Base(s.Path)
}

// BackupError reports a snapshot that could not be taken. The roster must not
// be written when this is returned.
type BackupError struct {
	Path string
	Err  error
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("backup of %s failed: %v", e.Path, e.Err)
}

func (e *BackupError) Unwrap() error { return e.Err }

// ErrorKind implements the roster error classifier.
func (e *BackupError) ErrorKind() string { return "backup" }

// Manager creates, lists, and restores roster snapshots in one directory.
type Manager struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewManager returns a Manager writing into dir.
func NewManager(dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		dir:    dir,
		logger: logging.NewComponentLogger(logger, "backup"),
		now:    time.Now,
	}
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create copies rosterPath into the backup directory, creating it if needed.
func (m *Manager) Create(rosterPath string) (Snapshot, error) {
	if strings.TrimSpace(m.dir) == "" {
		return Snapshot{}, &BackupError{Path: rosterPath, Err: errors.New("backup directory not configured")}
	}
	info, err := os.Stat(rosterPath)
	if err != nil {
		return Snapshot{}, &BackupError{Path: rosterPath, Err: err}
	}
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return Snapshot{}, &BackupError{Path: rosterPath, Err: fmt.Errorf("create backup directory: %w", err)}
	}

	created := m.now().UTC()
	base := filepath.Base(rosterPath)
	stamp := created.Format(TimestampLayout)

	for attempt := 0; attempt < maxCollision; attempt++ {
		name := base + "." + stamp
		if attempt > 0 {
			name += "." + strconv.Itoa(attempt)
		}
		target := filepath.Join(m.dir, name+snapshotExt)

		err := fileutil.CopyFileVerified(rosterPath, target)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return Snapshot{}, &BackupError{Path: rosterPath, Err: err}
		}

		snapshot := Snapshot{Path: target, Roster: base, CreatedAt: created, Size: info.Size()}
		m.logger.Info("roster backup created",
			logging.String(logging.FieldEventType, "backup_created"),
			logging.String(logging.FieldPath, target),
			logging.Int64("bytes", info.Size()),
		)
		return snapshot, nil
	}
	return Snapshot{}, &BackupError{Path: rosterPath, Err: fmt.Errorf("too many backups named %s.%s", base, stamp)}
}

// List returns the snapshots of rosterPath, newest first. A missing backup
// directory yields no snapshots.
func (m *Manager) List(rosterPath string) ([]Snapshot, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	base := filepath.Base(rosterPath)
	type ranked struct {
		snapshot Snapshot
		seq      int
	}
	var found []ranked
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		created, seq, ok := parseName(entry.Name(), base)
		if !ok {
			continue
		}
		var size int64
		if info, err := entry.Info(); err == nil {
			size = info.Size()
		}
		found = append(found, ranked{
			snapshot: Snapshot{
				Path:      filepath.Join(m.dir, entry.Name()),
				Roster:    base,
				CreatedAt: created,
				Size:      size,
			},
			seq: seq,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if !found[i].snapshot.CreatedAt.Equal(found[j].snapshot.CreatedAt) {
			return found[i].snapshot.CreatedAt.After(found[j].snapshot.CreatedAt)
		}
		return found[i].seq > found[j].seq
	})

	snapshots := make([]Snapshot, len(found))
	for i, r := range found {
		snapshots[i] = r.snapshot
	}
	return snapshots, nil
}

// Resolve finds a snapshot of rosterPath by file name or path. "latest"
// selects the newest snapshot.
func (m *Manager) Resolve(rosterPath, ref string) (Snapshot, error) {
	snapshots, err := m.List(rosterPath)
	if err != nil {
		return Snapshot{}, err
	}
	if len(snapshots) == 0 {
		return Snapshot{}, fmt.Errorf("no backups of %s in %s", filepath.Base(rosterPath), m.dir)
	}
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.EqualFold(ref, "latest") {
		return snapshots[0], nil
	}
	for _, snapshot := range snapshots {
		if ref == snapshot.Name() || filepath.Clean(ref) == filepath.Clean(snapshot.Path) {
			return snapshot, nil
		}
	}
	return Snapshot{}, fmt.Errorf("backup %q not found in %s", ref, m.dir)
}

// Restore replaces rosterPath with the content of snapshot. The current
// roster, when present, is snapshotted first and returned.
func (m *Manager) Restore(snapshot Snapshot, rosterPath string) (*Snapshot, error) {
	data, err := os.ReadFile(snapshot.Path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	var previous *Snapshot
	if _, err := os.Stat(rosterPath); err == nil {
		taken, err := m.Create(rosterPath)
		if err != nil {
			return nil, err
		}
		previous = &taken
	}

	if err := fileutil.WriteFileAtomic(rosterPath, data, fileutil.FileMode(rosterPath, 0o644)); err != nil {
		return previous, fmt.Errorf("restore %s: %w", rosterPath, err)
	}
	m.logger.Info("roster restored from backup",
		logging.String(logging.FieldEventType, "backup_restored"),
		logging.String(logging.FieldPath, snapshot.Path),
	)
	return previous, nil
}

// parseName extracts the timestamp and collision suffix from a snapshot file
// name belonging to the roster named base.
func parseName(name, base string) (time.Time, int, bool) {
	prefix := base + "."
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, snapshotExt) {
		return time.Time{}, 0, false
	}
	middle := strings.TrimSuffix(strings.TrimPrefix(name, prefix), snapshotExt)
	if len(middle) < len(TimestampLayout) {
		return time.Time{}, 0, false
	}
	created, err := time.Parse(TimestampLayout, middle[:len(TimestampLayout)])
	if err != nil {
		return time.Time{}, 0, false
	}
	rest := middle[len(TimestampLayout):]
	if rest == "" {
		return created, 0, true
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(rest, "."))
	if err != nil || !strings.HasPrefix(rest, ".") || seq <= 0 {
		return time.Time{}, 0, false
	}
	return created, seq, true
}
