package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Roster file formats.
const (
	FormatAuto = "auto"
	FormatDef  = "def"
	FormatJSON = "json"
)

// Roster entry orderings applied when a managed section is rewritten.
const (
	OrderSorted    = "sorted"
	OrderInsertion = "insertion"
)

// Paths contains the game installation and working directory layout.
type Paths struct {
	GameDir      string `toml:"game_dir"`
	DownloadsDir string `toml:"downloads_dir"`
	CharsDir     string `toml:"chars_dir"`
	StagesDir    string `toml:"stages_dir"`
	RosterFile   string `toml:"roster_file"`
	BackupDir    string `toml:"backup_dir"`
	StateDir     string `toml:"state_dir"`
}

// Install contains archive installation behaviour.
type Install struct {
	CleanupArchives   bool     `toml:"cleanup_archives"`
	ArchiveExtensions []string `toml:"archive_extensions"`
	TempDir           string   `toml:"temp_dir"`
}

// Roster contains roster file handling options.
type Roster struct {
	// Format selects the roster codec: "def" for the bracketed section text
	// format, "json" for the structured record list, "auto" to pick by file
	// extension.
	Format string `toml:"format"`
	// Order controls managed section ordering on rewrite: "sorted" or
	// "insertion".
	Order string `toml:"order"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
	MaxSizeMB     int    `toml:"max_size_mb"`
	MaxBackups    int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for rostersync.
//
// Configuration sections:
//   - Paths: game root, downloads, asset directories, roster, backups, state
//   - Install: archive cleanup and recognised archive extensions
//   - Roster: codec selection and rewrite ordering
//   - Logging: log format, level, rotation, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Install Install `toml:"install"`
	Roster  Roster  `toml:"roster"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rostersync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("rostersync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directories rostersync owns. The game
// directories are never created here; a missing chars/ or stages/ folder is
// reported by the doctor checks instead.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.LogDir(), c.Paths.DownloadsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogDir returns the directory holding rostersync log files.
func (c *Config) LogDir() string {
	if c.Paths.StateDir == "" {
		return ""
	}
	return filepath.Join(c.Paths.StateDir, "logs")
}

// HistoryPath returns the location of the operation history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// RosterFormat resolves the configured format, inspecting the roster file
// extension when set to auto.
func (c *Config) RosterFormat() string {
	switch c.Roster.Format {
	case FormatDef, FormatJSON:
		return c.Roster.Format
	}
	if strings.EqualFold(filepath.Ext(c.Paths.RosterFile), ".json") {
		return FormatJSON
	}
	return FormatDef
}

// IsArchive reports whether name carries one of the configured archive extensions.
func (c *Config) IsArchive(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, candidate := range c.Install.ArchiveExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
