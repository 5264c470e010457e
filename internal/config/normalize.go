package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeInstall(); err != nil {
		return err
	}
	c.normalizeRoster()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("ROSTERSYNC_GAME_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.GameDir = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("ROSTERSYNC_DOWNLOADS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DownloadsDir = strings.TrimSpace(value)
	}

	var err error
	if c.Paths.GameDir, err = expandPath(strings.TrimSpace(c.Paths.GameDir)); err != nil {
		return fmt.Errorf("paths.game_dir: %w", err)
	}
	if c.Paths.DownloadsDir, err = expandPath(strings.TrimSpace(c.Paths.DownloadsDir)); err != nil {
		return fmt.Errorf("paths.downloads_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}

	if c.Paths.CharsDir, err = c.gameRelative(c.Paths.CharsDir, defaultCharsSubdir); err != nil {
		return fmt.Errorf("paths.chars_dir: %w", err)
	}
	if c.Paths.StagesDir, err = c.gameRelative(c.Paths.StagesDir, defaultStagesSubdir); err != nil {
		return fmt.Errorf("paths.stages_dir: %w", err)
	}
	if c.Paths.RosterFile, err = c.gameRelative(c.Paths.RosterFile, filepath.FromSlash(defaultRosterRelPath)); err != nil {
		return fmt.Errorf("paths.roster_file: %w", err)
	}

	if strings.TrimSpace(c.Paths.BackupDir) == "" {
		if c.Paths.RosterFile != "" {
			c.Paths.BackupDir = filepath.Join(filepath.Dir(c.Paths.RosterFile), defaultBackupSubdir)
		}
	} else if c.Paths.BackupDir, err = expandPath(strings.TrimSpace(c.Paths.BackupDir)); err != nil {
		return fmt.Errorf("paths.backup_dir: %w", err)
	}
	return nil
}

// gameRelative expands value, or derives it from the game directory when
// empty. Relative values are resolved against the game directory rather than
// the working directory.
func (c *Config) gameRelative(value, fallback string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if c.Paths.GameDir == "" {
			return "", nil
		}
		return filepath.Join(c.Paths.GameDir, fallback), nil
	}
	if !strings.HasPrefix(value, "~") && !filepath.IsAbs(value) && c.Paths.GameDir != "" {
		return filepath.Join(c.Paths.GameDir, value), nil
	}
	return expandPath(value)
}

func (c *Config) normalizeInstall() error {
	exts := make([]string, 0, len(c.Install.ArchiveExtensions))
	seen := make(map[string]struct{}, len(c.Install.ArchiveExtensions))
	for _, ext := range c.Install.ArchiveExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultArchiveExtensions...)
	}
	c.Install.ArchiveExtensions = exts

	var err error
	if strings.TrimSpace(c.Install.TempDir) == "" {
		if c.Paths.DownloadsDir != "" {
			c.Install.TempDir = filepath.Join(c.Paths.DownloadsDir, defaultTempSubdir)
		}
	} else if c.Install.TempDir, err = expandPath(strings.TrimSpace(c.Install.TempDir)); err != nil {
		return fmt.Errorf("install.temp_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeRoster() {
	c.Roster.Format = strings.ToLower(strings.TrimSpace(c.Roster.Format))
	if c.Roster.Format == "" {
		c.Roster.Format = defaultRosterFormat
	}
	c.Roster.Order = strings.ToLower(strings.TrimSpace(c.Roster.Order))
	if c.Roster.Order == "" {
		c.Roster.Order = defaultRosterOrder
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}
