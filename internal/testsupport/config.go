package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"rostersync/internal/config"
)

// DefaultRoster is the select file written into every generated game tree.
const DefaultRoster = "[Characters]\nkfm\nrandomselect\n\n[ExtraStages]\nstages/stage0.def\n\n[Options]\narcade.maxmatches = 6,1,1,0,0,0,0,0,0,0\n"

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
	roster  string
}

// NewConfig produces a config rooted in a fresh temp directory holding a
// minimal game tree: chars/, stages/ and data/select.def. Options run before
// the tree is written.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	game := filepath.Join(base, "game")
	cfgVal.Paths.GameDir = game
	cfgVal.Paths.DownloadsDir = filepath.Join(base, "downloads")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.CharsDir = filepath.Join(game, "chars")
	cfgVal.Paths.StagesDir = filepath.Join(game, "stages")
	cfgVal.Paths.RosterFile = filepath.Join(game, "data", "select.def")
	cfgVal.Paths.BackupDir = filepath.Join(game, "data", "backups")
	cfgVal.Install.TempDir = filepath.Join(cfgVal.Paths.DownloadsDir, "_temp_extract")
	cfgVal.Logging.RetentionDays = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
		roster:  DefaultRoster,
	}

	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.Paths.CharsDir, cfgVal.Paths.StagesDir, cfgVal.Paths.DownloadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}
	if builder.roster != "" {
		WriteText(t, cfgVal.Paths.RosterFile, builder.roster)
	}
	return builder.cfg
}

// WithRoster replaces the roster content. An empty string leaves the roster
// file absent.
func WithRoster(content string) ConfigOption {
	return func(b *configBuilder) {
		b.roster = content
	}
}

// WithJSONRoster switches the roster to data/roster.json with the given content.
func WithJSONRoster(content string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.RosterFile = filepath.Join(b.cfg.Paths.GameDir, "data", "roster.json")
		b.cfg.Roster.Format = config.FormatJSON
		b.roster = content
	}
}

// WithCleanupArchives enables archive deletion after successful installs.
func WithCleanupArchives() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Install.CleanupArchives = true
	}
}

// WithInsertionOrder keeps the roster's existing entry order on rewrite.
func WithInsertionOrder() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Roster.Order = config.OrderInsertion
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.GameDir)
}
