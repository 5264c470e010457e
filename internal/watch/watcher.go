package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"rostersync/internal/installer"
	"rostersync/internal/logging"
)

// DefaultSettle is how long an archive must stay quiet before it is installed.
const DefaultSettle = 2 * time.Second

// Installer installs a single archive. *installer.Installer satisfies it.
type Installer interface {
	Install(ctx context.Context, archivePath string) installer.Result
}

// Options configures a Watcher.
type Options struct {
	// Dir is the watched downloads directory.
	Dir string
	// IsArchive selects the files to install.
	IsArchive func(name string) bool
	// Settle overrides DefaultSettle.
	Settle time.Duration
	// IncludeExisting queues archives already present when Run starts.
	IncludeExisting bool
	// OnResult is called after every install attempt.
	OnResult func(installer.Result)
	Logger   *slog.Logger
}

// Watcher turns downloads into installs.
type Watcher struct {
	opts      Options
	installer Installer
	logger    *slog.Logger
	pending   map[string]time.Time
	now       func() time.Time
}

// New constructs a Watcher.
func New(inst Installer, opts Options) *Watcher {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.IsArchive == nil {
		opts.IsArchive = func(string) bool { return true }
	}
	return &Watcher{
		opts:      opts,
		installer: inst,
		logger:    logging.NewComponentLogger(opts.Logger, "watch"),
		pending:   make(map[string]time.Time),
		now:       time.Now,
	}
}

// Run watches until ctx is cancelled. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.opts.Dir, 0o755); err != nil {
		return fmt.Errorf("create downloads directory: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("failed to watch downloads directory %s: %w", w.opts.Dir, err)
	}

	if w.opts.IncludeExisting {
		w.queueExisting()
	}
	w.logger.Info("watching downloads directory",
		logging.String(logging.FieldPath, w.opts.Dir),
		logging.Duration("settle", w.opts.Settle),
	)

	ticker := time.NewTicker(w.opts.Settle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.observe(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(w.logger, "filesystem watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some downloads may be missed until the next event"),
				logging.String(logging.FieldErrorHint, "run rostersync install to pick up missed archives"),
			)

		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// observe records create, write, and rename-into events for archives.
func (w *Watcher) observe(event fsnotify.Event) {
	if !w.opts.IsArchive(filepath.Base(event.Name)) {
		return
	}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if _, seen := w.pending[event.Name]; !seen {
			w.logger.Debug("archive detected", logging.String(logging.FieldArchive, filepath.Base(event.Name)))
		}
		w.pending[event.Name] = w.now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, event.Name)
	}
}

// flush installs every pending archive that has been quiet for the settle
// delay, oldest path first.
func (w *Watcher) flush(ctx context.Context) {
	now := w.now()
	var ready []string
	for path, seen := range w.pending {
		if now.Sub(seen) >= w.opts.Settle {
			ready = append(ready, path)
		}
	}
	sort.Strings(ready)
	for _, path := range ready {
		if ctx.Err() != nil {
			return
		}
		delete(w.pending, path)
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		result := w.installer.Install(ctx, path)
		w.logger.Info("archive processed",
			logging.String(logging.FieldArchive, result.Archive),
			logging.String("status", string(result.Status)),
		)
		if w.opts.OnResult != nil {
			w.opts.OnResult(result)
		}
	}
}

func (w *Watcher) queueExisting() {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		logging.WarnWithContext(w.logger, "failed to list existing downloads", "watch_list_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "archives already present are not installed"),
		)
		return
	}
	past := w.now().Add(-w.opts.Settle)
	for _, entry := range entries {
		if entry.IsDir() || !w.opts.IsArchive(entry.Name()) {
			continue
		}
		w.pending[filepath.Join(w.opts.Dir, entry.Name())] = past
	}
}
