package rostersync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"rostersync/internal/backup"
	"rostersync/internal/config"
	"rostersync/internal/fileutil"
	"rostersync/internal/history"
	"rostersync/internal/logging"
	"rostersync/internal/roster"
)

// ErrRosterBusy reports that another operation holds the roster lock.
var ErrRosterBusy = errors.New("roster is locked by another rostersync operation")

// Recorder persists operation outcomes. *history.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, records ...history.Record) error
}

// Options configures an Engine.
type Options struct {
	Codec       roster.Codec
	Order       roster.Order
	Backups     *backup.Manager
	Recorder    Recorder
	Logger      *slog.Logger
	OperationID string
	// LockDir holds roster lock files. Empty places the lock beside the
	// roster as <roster>.lock.
	LockDir string
}

// Engine reconciles and edits one roster file at a time.
type Engine struct {
	codec       roster.Codec
	order       roster.Order
	backups     *backup.Manager
	recorder    Recorder
	logger      *slog.Logger
	operationID string
	kind        history.Kind
	lockDir     string
	writeFile   func(path string, data []byte, perm os.FileMode) error
}

// New builds an Engine. A nil codec selects the section text format.
func New(opts Options) *Engine {
	codec := opts.Codec
	if codec == nil {
		codec = roster.SectionCodec{}
	}
	logger := logging.NewComponentLogger(opts.Logger, "rostersync")
	backups := opts.Backups
	if backups == nil {
		backups = backup.NewManager("", logger)
	}
	return &Engine{
		codec:       codec,
		order:       opts.Order,
		backups:     backups,
		recorder:    opts.Recorder,
		logger:      logger,
		operationID: opts.OperationID,
		kind:        history.KindReconcile,
		lockDir:     opts.LockDir,
		writeFile:   fileutil.WriteFileAtomic,
	}
}

// NewFromConfig builds an Engine for the configured roster format, order, and
// backup directory. recorder may be nil.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, recorder Recorder, operationID string) (*Engine, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	codec, err := roster.CodecFor(cfg.RosterFormat())
	if err != nil {
		return nil, err
	}
	order := roster.OrderSorted
	if cfg.Roster.Order == config.OrderInsertion {
		order = roster.OrderInsertion
	}
	return New(Options{
		Codec:       codec,
		Order:       order,
		Backups:     backup.NewManager(cfg.Paths.BackupDir, logger),
		Recorder:    recorder,
		Logger:      logger,
		OperationID: operationID,
		LockDir:     filepath.Join(cfg.Paths.StateDir, "locks"),
	}), nil
}

// WithKind returns a copy of the engine that labels history records with kind.
func (e *Engine) WithKind(kind history.Kind) *Engine {
	clone := *e
	clone.kind = kind
	return &clone
}

// Codec returns the roster codec in use.
func (e *Engine) Codec() roster.Codec {
	return e.codec
}

// Backups returns the backup manager used before every write.
func (e *Engine) Backups() *backup.Manager {
	return e.backups
}

// SectionDelta is the outcome of reconciling one section.
type SectionDelta struct {
	Section string `json:"section"`
	// Added entries were not in the roster and have been written.
	Added []roster.Entry `json:"added"`
	// AlreadyPresent entries matched an existing (or earlier discovered)
	// entry and were skipped.
	AlreadyPresent []roster.Entry `json:"already_present"`
}

// ReconcileResult is the outcome of a reconcile call.
type ReconcileResult struct {
	Sections []SectionDelta   `json:"sections"`
	Backup   *backup.Snapshot `json:"backup,omitempty"`
	Written  bool             `json:"written"`
}

// Section returns the delta for section, or an empty delta.
func (r ReconcileResult) Section(section string) SectionDelta {
	for _, delta := range r.Sections {
		if strings.EqualFold(delta.Section, section) {
			return delta
		}
	}
	return SectionDelta{Section: section}
}

// RemoveResult is the outcome of a remove call.
type RemoveResult struct {
	Section   string           `json:"section"`
	Removed   []roster.Entry   `json:"removed"`
	Remaining []roster.Entry   `json:"remaining"`
	Backup    *backup.Snapshot `json:"backup,omitempty"`
	Written   bool             `json:"written"`
}

// Entries reads section from the roster at path. A missing, unreadable, or
// malformed roster yields no entries and a *roster.ParseWarning the caller
// should log and otherwise ignore.
func (e *Engine) Entries(path, section string) ([]roster.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &roster.ParseWarning{Path: path, Err: err}
	}
	entries, err := e.codec.Entries(data, section)
	if err != nil {
		return nil, &roster.ParseWarning{Path: path, Err: err}
	}
	return entries, nil
}

// Reconcile adds the discovered entries that section does not already list.
func (e *Engine) Reconcile(ctx context.Context, path, section string, discovered []roster.Entry) (ReconcileResult, error) {
	return e.ReconcileSections(ctx, path, map[string][]roster.Entry{section: discovered})
}

// ReconcileSections reconciles several sections with a single backup and
// write. Sections without additions are left untouched, so a roster lacking
// one of the headers only fails when something must be added to it.
func (e *Engine) ReconcileSections(ctx context.Context, path string, discovered map[string][]roster.Entry) (ReconcileResult, error) {
	var result ReconcileResult

	unlock, err := e.lock(path)
	if err != nil {
		return result, err
	}
	defer unlock()
	if err := ctx.Err(); err != nil {
		return result, err
	}

	data := e.read(path)
	updates := make(map[string][]roster.Entry)
	for _, section := range sortedKeys(discovered) {
		current := e.current(data, path, section)
		merged := append([]roster.Entry(nil), current...)
		delta := SectionDelta{Section: section}
		for _, candidate := range discovered[section] {
			candidate.Name = strings.TrimSpace(candidate.Name)
			if candidate.Name == "" || roster.IsSentinel(candidate.Name) {
				continue
			}
			if roster.Find(merged, candidate.Name) >= 0 {
				delta.AlreadyPresent = append(delta.AlreadyPresent, candidate)
				e.logger.Info("entry already in roster; skipping",
					logging.String(logging.FieldEventType, "duplicate_entry_skip"),
					logging.String(logging.FieldSection, section),
					logging.String(logging.FieldEntry, candidate.Name),
				)
				continue
			}
			merged = append(merged, candidate)
			delta.Added = append(delta.Added, candidate)
		}
		if len(delta.Added) > 0 {
			updates[section] = merged
		}
		result.Sections = append(result.Sections, delta)
	}

	if len(updates) == 0 {
		e.logger.Debug("roster already up to date", logging.String(logging.FieldPath, path))
		e.record(ctx, reconcileRecords(e, path, result, nil))
		return result, nil
	}

	snapshot, err := e.commit(ctx, path, data, updates)
	if err != nil {
		e.record(ctx, reconcileRecords(e, path, result, err))
		return result, err
	}
	result.Backup = snapshot
	result.Written = true

	for _, delta := range result.Sections {
		for _, entry := range delta.Added {
			e.logger.Info("roster entry added",
				logging.String(logging.FieldEventType, "roster_entry_added"),
				logging.String(logging.FieldSection, delta.Section),
				logging.String(logging.FieldEntry, entry.Name),
			)
		}
	}
	e.record(ctx, reconcileRecords(e, path, result, nil))
	return result, nil
}

// Remove deletes every entry of section that matches name in one write.
// Removing a name that is not listed is not an error; the result is empty
// and nothing is written.
func (e *Engine) Remove(ctx context.Context, path, section, name string) (RemoveResult, error) {
	result := RemoveResult{Section: section}
	name = strings.TrimSpace(name)
	if name == "" {
		return result, errors.New("entry name is required")
	}
	if roster.IsSentinel(name) {
		return result, fmt.Errorf("%q is reserved and cannot be removed", roster.SentinelName)
	}

	unlock, err := e.lock(path)
	if err != nil {
		return result, err
	}
	defer unlock()
	if err := ctx.Err(); err != nil {
		return result, err
	}

	data := e.read(path)
	for _, entry := range e.current(data, path, section) {
		if roster.Matches(entry.Name, name) {
			result.Removed = append(result.Removed, entry)
			continue
		}
		result.Remaining = append(result.Remaining, entry)
	}
	if len(result.Removed) == 0 {
		return result, nil
	}

	snapshot, err := e.commit(ctx, path, data, map[string][]roster.Entry{section: result.Remaining})
	if err != nil {
		e.record(ctx, removeRecords(e, path, result, err))
		return result, err
	}
	result.Backup = snapshot
	result.Written = true
	for _, entry := range result.Removed {
		e.logger.Info("roster entry removed",
			logging.String(logging.FieldEventType, "roster_entry_removed"),
			logging.String(logging.FieldSection, section),
			logging.String(logging.FieldEntry, entry.Name),
		)
	}
	e.record(ctx, removeRecords(e, path, result, nil))
	return result, nil
}

// commit renders the new content, snapshots the current file, and replaces
// it. Nothing touches disk until the content is complete.
func (e *Engine) commit(ctx context.Context, path string, data []byte, updates map[string][]roster.Entry) (*backup.Snapshot, error) {
	content, err := e.codec.Rewrite(data, updates, roster.WriteOptions{Order: e.order, Path: path})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snapshot, err := e.backups.Create(path)
	if err != nil {
		return nil, err
	}
	if err := e.writeFile(path, content, fileutil.FileMode(path, 0o644)); err != nil {
		return &snapshot, &roster.WriteError{Path: path, Err: err}
	}
	return &snapshot, nil
}

// read returns the roster bytes, or nil after logging a parse warning.
func (e *Engine) read(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		e.warnParse(&roster.ParseWarning{Path: path, Err: err})
		return nil
	}
	return data
}

func (e *Engine) current(data []byte, path, section string) []roster.Entry {
	if data == nil {
		return nil
	}
	entries, err := e.codec.Entries(data, section)
	if err != nil {
		e.warnParse(&roster.ParseWarning{Path: path, Err: err})
		return nil
	}
	return entries
}

func (e *Engine) warnParse(warning *roster.ParseWarning) {
	logging.WarnWithContext(e.logger, "roster unreadable; treating as empty", "roster_parse_warning",
		logging.String(logging.FieldPath, warning.Path),
		logging.Error(warning.Err),
		logging.String(logging.FieldErrorHint, "check paths.roster_file and the file's permissions"),
		logging.String(logging.FieldImpact, "existing entries are not visible to this operation"),
	)
}

// LockPath returns the lock file guarding the roster at rosterPath. Under
// lockDir the name carries a digest of the roster's absolute path, so two
// game trees never share a lock.
func LockPath(lockDir, rosterPath string) string {
	if lockDir == "" {
		return rosterPath + ".lock"
	}
	abs, err := filepath.Abs(rosterPath)
	if err != nil {
		abs = rosterPath
	}
	sum := sha256.Sum256([]byte(abs))
	return filepath.Join(lockDir, fmt.Sprintf("%s-%s.lock", filepath.Base(rosterPath), hex.EncodeToString(sum[:6])))
}

func (e *Engine) lock(path string) (func(), error) {
	dir := filepath.Dir(path)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("roster directory %s is not accessible", dir)
	}
	if e.lockDir != "" {
		if err := os.MkdirAll(e.lockDir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory: %w", err)
		}
	}
	lock := flock.New(LockPath(e.lockDir, path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire roster lock: %w", err)
	}
	if !ok {
		return nil, ErrRosterBusy
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(e.logger, "failed to release roster lock", "roster_unlock_failed",
				logging.String(logging.FieldPath, lock.Path()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the lock file if no rostersync process is running"),
			)
		}
	}, nil
}

func (e *Engine) record(ctx context.Context, records []history.Record) {
	if e.recorder == nil || len(records) == 0 || e.operationID == "" {
		return
	}
	if err := e.recorder.Record(ctx, records...); err != nil {
		logging.WarnWithContext(e.logger, "failed to record operation history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "the roster was updated but the history ledger is incomplete"),
		)
	}
}

func sortedKeys(m map[string][]roster.Entry) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
