package installer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"rostersync/internal/config"
	"rostersync/internal/fileutil"
	"rostersync/internal/history"
	"rostersync/internal/logging"
	"rostersync/internal/roster"
	"rostersync/internal/rostersync"
)

// Extractor unpacks one archive into a directory and returns its top-level
// names. *archive.Extractor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) ([]string, error)
}

// AssetKind identifies what an archive installed.
type AssetKind string

const (
	KindCharacter AssetKind = "character"
	KindStage     AssetKind = "stage"
)

// Status is the per-archive outcome of an install.
type Status string

const (
	StatusInstalled        Status = "installed"
	StatusAlreadyInstalled Status = "already_installed"
	StatusUnrecognized     Status = "unrecognized"
	StatusFailed           Status = "failed"
)

// Result reports what happened to one archive.
type Result struct {
	Archive        string    `json:"archive"`
	Kind           AssetKind `json:"kind,omitempty"`
	Status         Status    `json:"status"`
	Installed      []string  `json:"installed,omitempty"`
	Entries        []string  `json:"entries,omitempty"`
	ArchiveRemoved bool      `json:"archive_removed"`
	Error          string    `json:"error,omitempty"`
	Err            error     `json:"-"`
}

// BatchResult collects the results of one install run.
type BatchResult struct {
	Results []Result `json:"results"`
}

// Count returns the number of results with status.
func (b BatchResult) Count(status Status) int {
	n := 0
	for _, result := range b.Results {
		if result.Status == status {
			n++
		}
	}
	return n
}

// Installer moves archive contents into the game tree and keeps the roster in
// step with it.
type Installer struct {
	cfg       *config.Config
	engine    *rostersync.Engine
	extractor Extractor
	fs        fileutil.FS
	logger    *slog.Logger
}

// New constructs an Installer. A nil fsys uses the host filesystem.
func New(cfg *config.Config, engine *rostersync.Engine, extractor Extractor, fsys fileutil.FS, logger *slog.Logger) *Installer {
	if fsys == nil {
		fsys = fileutil.OS{}
	}
	return &Installer{
		cfg:       cfg,
		engine:    engine,
		extractor: extractor,
		fs:        fsys,
		logger:    logging.NewComponentLogger(logger, "installer"),
	}
}

// PendingArchives lists the archives waiting in the downloads directory,
// sorted by name. A missing downloads directory is created.
func (i *Installer) PendingArchives() ([]string, error) {
	dir := i.cfg.Paths.DownloadsDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create downloads directory: %w", err)
	}
	entries, err := i.fs.ListDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list downloads directory: %w", err)
	}
	var archives []string
	for _, entry := range entries {
		if entry.IsDir() || !i.cfg.IsArchive(entry.Name()) {
			continue
		}
		archives = append(archives, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(archives)
	return archives, nil
}

// InstallAll processes every pending archive. A failing archive is reported
// in its result and the batch moves on; only listing failures, cancellation,
// and a busy roster stop the run.
func (i *Installer) InstallAll(ctx context.Context) (BatchResult, error) {
	var batch BatchResult
	archives, err := i.PendingArchives()
	if err != nil {
		return batch, err
	}
	if len(archives) == 0 {
		i.logger.Info("no archives found in downloads directory",
			logging.String(logging.FieldPath, i.cfg.Paths.DownloadsDir))
		return batch, nil
	}
	i.logger.Info("processing archives", logging.Int("count", len(archives)))

	for _, archivePath := range archives {
		if err := ctx.Err(); err != nil {
			return batch, err
		}
		result := i.Install(ctx, archivePath)
		batch.Results = append(batch.Results, result)
		if errors.Is(result.Err, rostersync.ErrRosterBusy) {
			return batch, result.Err
		}
	}
	return batch, nil
}

// Install extracts one archive into the temp directory, moves the character
// folder or stage files into the game tree, and reconciles the roster. The
// archive is only deleted (when configured) after the roster update succeeds.
func (i *Installer) Install(ctx context.Context, archivePath string) Result {
	result := Result{Archive: filepath.Base(archivePath)}
	logger := i.logger.With(logging.String(logging.FieldArchive, result.Archive))

	temp := i.cfg.Install.TempDir
	if err := i.resetTemp(temp, archivePath); err != nil {
		return i.fail(logger, result, err)
	}
	defer func() {
		if err := i.fs.RemoveAll(temp); err != nil {
			logging.WarnWithContext(logger, "failed to clean temp extraction directory", "temp_cleanup_failed",
				logging.String(logging.FieldPath, temp),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the directory manually"),
				logging.String(logging.FieldImpact, "the next install will retry the cleanup"),
			)
		}
	}()

	if _, err := i.extractor.Extract(ctx, archivePath, temp); err != nil {
		return i.fail(logger, result, err)
	}

	if folder, ok := i.findCharacterFolder(temp); ok {
		result.Kind = KindCharacter
		return i.installCharacter(ctx, logger, result, archivePath, filepath.Join(temp, folder))
	}
	if stageDir, defs := i.findStages(temp); len(defs) > 0 {
		result.Kind = KindStage
		return i.installStages(ctx, logger, result, archivePath, stageDir, defs)
	}

	result.Status = StatusUnrecognized
	result.Error = "no character folder or stage definition found"
	logging.WarnWithContext(logger, "archive not recognised; skipping", "archive_unrecognized",
		logging.String(logging.FieldErrorHint, "expected a folder holding <name>.def or stage .def files"),
		logging.String(logging.FieldImpact, "the archive was left in the downloads directory"),
	)
	return result
}

func (i *Installer) installCharacter(ctx context.Context, logger *slog.Logger, result Result, archivePath, source string) Result {
	name := filepath.Base(source)
	dest := filepath.Join(i.cfg.Paths.CharsDir, name)
	result.Entries = []string{name}
	if i.fs.Exists(dest) {
		result.Status = StatusAlreadyInstalled
		logging.WarnWithContext(logger, "character already exists; skipping", "character_exists",
			logging.String(logging.FieldEntry, name),
			logging.String(logging.FieldPath, dest),
			logging.String(logging.FieldErrorHint, "remove the character first to reinstall it"),
			logging.String(logging.FieldImpact, "the archive was not installed"),
		)
		return result
	}
	if err := i.fs.Move(source, dest); err != nil {
		return i.fail(logger, result, err)
	}
	result.Installed = []string{dest}
	logger.Info("character folder installed",
		logging.String(logging.FieldEntry, name),
		logging.String(logging.FieldPath, dest),
	)

	discovered := map[string][]roster.Entry{roster.SectionCharacters: {roster.NewEntry(name)}}
	return i.finish(ctx, logger, result, archivePath, discovered)
}

func (i *Installer) installStages(ctx context.Context, logger *slog.Logger, result Result, archivePath, stageDir string, defs []string) Result {
	entries, err := i.fs.ListDir(stageDir)
	if err != nil {
		return i.fail(logger, result, err)
	}
	var moved, existing []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		dest := filepath.Join(i.cfg.Paths.StagesDir, entry.Name())
		if i.fs.Exists(dest) {
			existing = append(existing, entry.Name())
			continue
		}
		if err := i.fs.Move(filepath.Join(stageDir, entry.Name()), dest); err != nil {
			return i.fail(logger, result, err)
		}
		moved = append(moved, entry.Name())
		result.Installed = append(result.Installed, dest)
	}

	var discovered []roster.Entry
	for _, def := range defs {
		entry := i.StageEntry(def)
		result.Entries = append(result.Entries, entry)
		discovered = append(discovered, roster.NewEntry(entry))
	}
	if len(moved) == 0 {
		result.Status = StatusAlreadyInstalled
		logging.WarnWithContext(logger, "stage files already exist; skipping", "stage_exists",
			logging.Any("files", existing),
			logging.String(logging.FieldErrorHint, "remove the existing stage files to reinstall"),
			logging.String(logging.FieldImpact, "the archive was not installed"),
		)
		return result
	}
	if len(existing) > 0 {
		logging.WarnWithContext(logger, "some stage files already existed and were kept", "stage_partial",
			logging.Any("files", existing),
			logging.String(logging.FieldImpact, "existing files were not overwritten"),
		)
	}
	logger.Info("stage files installed", logging.Int("files", len(moved)))
	return i.finish(ctx, logger, result, archivePath, map[string][]roster.Entry{roster.SectionExtraStages: discovered})
}

// finish reconciles the roster for a moved asset and deletes the archive when
// configured.
func (i *Installer) finish(ctx context.Context, logger *slog.Logger, result Result, archivePath string, discovered map[string][]roster.Entry) Result {
	if _, err := i.engine.WithKind(history.KindInstall).ReconcileSections(ctx, i.cfg.Paths.RosterFile, discovered); err != nil {
		result = i.fail(logger, result, err)
		logging.WarnWithContext(logger, "asset installed but roster not updated", "roster_update_failed",
			logging.Any("entries", result.Entries),
			logging.String(logging.FieldErrorHint, "fix the roster and run rostersync scan"),
			logging.String(logging.FieldImpact, "the asset is on disk but not selectable"),
		)
		return result
	}
	result.Status = StatusInstalled

	if i.cfg.Install.CleanupArchives {
		if err := os.Remove(archivePath); err != nil {
			logging.WarnWithContext(logger, "failed to delete installed archive", "archive_cleanup_failed",
				logging.String(logging.FieldPath, archivePath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the archive manually"),
				logging.String(logging.FieldImpact, "the next install run will report it as already installed"),
			)
		} else {
			result.ArchiveRemoved = true
			logger.Info("archive removed", logging.String(logging.FieldPath, archivePath))
		}
	}
	return result
}

func (i *Installer) fail(logger *slog.Logger, result Result, err error) Result {
	result.Status = StatusFailed
	result.Err = err
	result.Error = err.Error()
	logging.ErrorWithContext(logger, "archive install failed", "archive_install_failed",
		logging.Error(err),
		logging.String("error_kind", roster.Kind(err)),
		logging.String(logging.FieldErrorHint, "check the archive and the game directory permissions"),
	)
	return result
}

// resetTemp empties the extraction directory. It refuses to touch a directory
// that holds the archive being installed, the downloads directory, or any
// other pending archive.
func (i *Installer) resetTemp(temp, archivePath string) error {
	if strings.TrimSpace(temp) == "" {
		return errors.New("install.temp_dir is not configured")
	}
	if fileutil.Within(temp, archivePath) || fileutil.Within(temp, i.cfg.Paths.DownloadsDir) {
		return fmt.Errorf("refusing to clear %s: it holds pending archives; set install.temp_dir to a dedicated folder", temp)
	}
	if entries, err := i.fs.ListDir(temp); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && i.cfg.IsArchive(entry.Name()) {
				return fmt.Errorf("refusing to clear %s: it holds archive %s; move it to %s", temp, entry.Name(), i.cfg.Paths.DownloadsDir)
			}
		}
	}
	if err := i.fs.RemoveAll(temp); err != nil {
		return fmt.Errorf("clean temp directory: %w", err)
	}
	if err := os.MkdirAll(temp, 0o755); err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	return nil
}

// findCharacterFolder picks the character folder of an extracted archive: a
// lone top-level folder with a definition file, else the first top-level
// folder holding a definition file of its own name. A stages/ folder is never
// a character.
func (i *Installer) findCharacterFolder(base string) (string, bool) {
	listed, err := i.fs.ListDir(base)
	if err != nil {
		return "", false
	}
	entries := listed[:0:0]
	for _, entry := range listed {
		if entry.IsDir() && strings.EqualFold(entry.Name(), "stages") {
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		if _, ok := FindDefinitionFile(filepath.Join(base, entries[0].Name())); ok {
			return entries[0].Name(), true
		}
	}
	for _, entry := range entries {
		if entry.IsDir() && hasOwnDefinition(filepath.Join(base, entry.Name())) {
			return entry.Name(), true
		}
	}
	return "", false
}

// findStages returns the directory holding stage definitions, either the
// extraction root or its stages/ folder, and the definition names found there.
func (i *Installer) findStages(base string) (string, []string) {
	for _, dir := range []string{base, i.childDir(base, "stages")} {
		if dir == "" {
			continue
		}
		entries, err := i.fs.ListDir(dir)
		if err != nil {
			continue
		}
		var defs []string
		for _, entry := range entries {
			if !entry.IsDir() && isDefinition(entry.Name()) {
				defs = append(defs, entry.Name())
			}
		}
		if len(defs) > 0 {
			return dir, defs
		}
	}
	return "", nil
}

func (i *Installer) childDir(base, name string) string {
	entries, err := i.fs.ListDir(base)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.EqualFold(entry.Name(), name) {
			return filepath.Join(base, entry.Name())
		}
	}
	return ""
}

// StageEntry returns the roster token for a stage file: its path relative to
// the game directory with forward slashes.
func (i *Installer) StageEntry(file string) string {
	full := filepath.Join(i.cfg.Paths.StagesDir, file)
	rel, err := filepath.Rel(i.cfg.Paths.GameDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path.Join("stages", file)
	}
	return filepath.ToSlash(rel)
}
