package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"rostersync/internal/fileutil"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRoster(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.GameDir) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/rostersync/config.toml"
		}
		return fmt.Errorf("paths.game_dir is required. Set ROSTERSYNC_GAME_DIR or edit %s (create with 'rostersync config init')", defaultPath)
	}
	if strings.TrimSpace(c.Paths.DownloadsDir) == "" {
		return errors.New("paths.downloads_dir must be set")
	}
	if strings.TrimSpace(c.Paths.RosterFile) == "" {
		return errors.New("paths.roster_file must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return c.validateTempDir()
}

// validateTempDir keeps install.temp_dir away from anything it must not wipe:
// the directory is emptied before and after every install.
func (c *Config) validateTempDir() error {
	temp := strings.TrimSpace(c.Install.TempDir)
	if temp == "" {
		return nil
	}
	rosterDir := filepath.Dir(c.Paths.RosterFile)
	guarded := []struct{ key, path string }{
		{"paths.game_dir", c.Paths.GameDir},
		{"paths.downloads_dir", c.Paths.DownloadsDir},
		{"paths.chars_dir", c.Paths.CharsDir},
		{"paths.stages_dir", c.Paths.StagesDir},
		{"the roster directory", rosterDir},
		{"paths.backup_dir", c.Paths.BackupDir},
		{"paths.state_dir", c.Paths.StateDir},
	}
	for _, g := range guarded {
		if fileutil.Within(temp, g.path) {
			return fmt.Errorf("install.temp_dir %s must not be or contain %s (%s); it is emptied on every install", temp, g.key, g.path)
		}
	}
	for _, g := range guarded[2:5] {
		if fileutil.Within(g.path, temp) {
			return fmt.Errorf("install.temp_dir %s must not sit inside %s (%s)", temp, g.key, g.path)
		}
	}
	if fileutil.Within(c.Paths.GameDir, temp) && !fileutil.Within(c.Paths.DownloadsDir, temp) {
		return fmt.Errorf("install.temp_dir %s must not sit inside paths.game_dir; use a folder under paths.downloads_dir", temp)
	}
	return nil
}

func (c *Config) validateRoster() error {
	switch c.Roster.Format {
	case FormatAuto, FormatDef, FormatJSON:
	default:
		return fmt.Errorf("roster.format must be one of %q, %q, %q (got %q)", FormatAuto, FormatDef, FormatJSON, c.Roster.Format)
	}
	switch c.Roster.Order {
	case OrderSorted, OrderInsertion:
	default:
		return fmt.Errorf("roster.order must be %q or %q (got %q)", OrderSorted, OrderInsertion, c.Roster.Order)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
}
