package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"rostersync/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ROSTERSYNC_GAME_DIR", "")
	t.Setenv("ROSTERSYNC_DOWNLOADS_DIR", "")
}

func TestLoadDefaultConfigDerivesGamePaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	gameDir := filepath.Join(tempHome, "games", "mugen")
	if cfg.Paths.GameDir != gameDir {
		t.Fatalf("unexpected game dir: got %q want %q", cfg.Paths.GameDir, gameDir)
	}
	if cfg.Paths.CharsDir != filepath.Join(gameDir, "chars") {
		t.Fatalf("unexpected chars dir: %q", cfg.Paths.CharsDir)
	}
	if cfg.Paths.StagesDir != filepath.Join(gameDir, "stages") {
		t.Fatalf("unexpected stages dir: %q", cfg.Paths.StagesDir)
	}
	wantRoster := filepath.Join(gameDir, "data", "select.def")
	if cfg.Paths.RosterFile != wantRoster {
		t.Fatalf("unexpected roster file: got %q want %q", cfg.Paths.RosterFile, wantRoster)
	}
	if cfg.Paths.BackupDir != filepath.Join(gameDir, "data", "backups") {
		t.Fatalf("unexpected backup dir: %q", cfg.Paths.BackupDir)
	}
	if cfg.Install.TempDir != filepath.Join(tempHome, "Downloads", "mugen", "_temp_extract") {
		t.Fatalf("unexpected temp dir: %q", cfg.Install.TempDir)
	}
	if cfg.Install.CleanupArchives {
		t.Fatal("expected archive cleanup disabled by default")
	}
	if cfg.Roster.Order != config.OrderSorted {
		t.Fatalf("expected sorted order by default, got %q", cfg.Roster.Order)
	}
	if cfg.RosterFormat() != config.FormatDef {
		t.Fatalf("expected def format for select.def, got %q", cfg.RosterFormat())
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StateDir, cfg.LogDir(), cfg.Paths.DownloadsDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
	if _, err := os.Stat(cfg.Paths.CharsDir); !os.IsNotExist(err) {
		t.Fatalf("expected chars dir to be left alone, stat err=%v", err)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "rostersync.toml")

	type payload struct {
		Paths struct {
			GameDir    string `toml:"game_dir"`
			RosterFile string `toml:"roster_file"`
		} `toml:"paths"`
		Install struct {
			CleanupArchives   bool     `toml:"cleanup_archives"`
			ArchiveExtensions []string `toml:"archive_extensions"`
		} `toml:"install"`
		Roster struct {
			Order string `toml:"order"`
		} `toml:"roster"`
	}
	custom := payload{}
	custom.Paths.GameDir = filepath.Join(tempDir, "ikemen")
	custom.Paths.RosterFile = "save/roster.json"
	custom.Install.CleanupArchives = true
	custom.Install.ArchiveExtensions = []string{"ZIP", ".zip", " .7z "}
	custom.Roster.Order = "Insertion"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	wantRoster := filepath.Join(tempDir, "ikemen", "save", "roster.json")
	if cfg.Paths.RosterFile != wantRoster {
		t.Fatalf("relative roster path not resolved against game dir: %q", cfg.Paths.RosterFile)
	}
	if cfg.RosterFormat() != config.FormatJSON {
		t.Fatalf("expected json format for .json roster, got %q", cfg.RosterFormat())
	}
	if cfg.Roster.Order != config.OrderInsertion {
		t.Fatalf("expected normalized insertion order, got %q", cfg.Roster.Order)
	}
	if !cfg.Install.CleanupArchives {
		t.Fatal("expected cleanup_archives true")
	}
	got := strings.Join(cfg.Install.ArchiveExtensions, ",")
	if got != ".zip,.7z" {
		t.Fatalf("unexpected archive extensions: %q", got)
	}
	if !cfg.IsArchive("Ryu.ZIP") || cfg.IsArchive("Ryu.rar") {
		t.Fatalf("IsArchive does not honour configured extensions")
	}
}

func TestLoadEnvOverridesGameDir(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	gameDir := t.TempDir()
	t.Setenv("ROSTERSYNC_GAME_DIR", gameDir)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.GameDir != gameDir {
		t.Fatalf("expected env game dir %q, got %q", gameDir, cfg.Paths.GameDir)
	}
	if cfg.Paths.CharsDir != filepath.Join(gameDir, "chars") {
		t.Fatalf("chars dir not derived from env game dir: %q", cfg.Paths.CharsDir)
	}
}

func TestLoadRejectsUnknownOrder(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "rostersync.toml")
	if err := os.WriteFile(configPath, []byte("[roster]\norder = \"random\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, _, _, err := config.Load(configPath)
	if err == nil {
		t.Fatal("expected validation error for unknown order")
	}
	if !strings.Contains(err.Error(), "roster.order") {
		t.Fatalf("error should name the offending key, got %v", err)
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(target); err != nil || !exists {
		t.Fatalf("sample config should load cleanly: exists=%v err=%v", exists, err)
	}
}

func TestLoadGuardsTempDir(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	base := t.TempDir()
	game := filepath.Join(base, "game")
	downloads := filepath.Join(base, "downloads")

	cases := []struct {
		name    string
		temp    string
		wantErr string
	}{
		{"downloads itself", downloads, "paths.downloads_dir"},
		{"parent of game", base, "paths.game_dir"},
		{"chars directory", filepath.Join(game, "chars"), "paths.chars_dir"},
		{"inside stages", filepath.Join(game, "stages", "tmp"), "paths.stages_dir"},
		{"roster directory", filepath.Join(game, "data"), "the roster directory"},
		{"inside game", filepath.Join(game, "tmp"), "paths.game_dir"},
		{"under downloads", filepath.Join(downloads, "_unpack"), ""},
		{"outside both", filepath.Join(base, "scratch"), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "rostersync.toml")
			content := "[paths]\ngame_dir = \"" + game + "\"\ndownloads_dir = \"" + downloads +
				"\"\nstate_dir = \"" + filepath.Join(base, "state") + "\"\n\n[install]\ntemp_dir = \"" + tc.temp + "\"\n"
			if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg, _, _, err := config.Load(configPath)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Load returned error: %v", err)
				}
				if cfg.Install.TempDir != tc.temp {
					t.Fatalf("temp dir = %q, want %q", cfg.Install.TempDir, tc.temp)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected temp_dir %s to be rejected", tc.temp)
			}
			if !strings.Contains(err.Error(), "install.temp_dir") || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error should name install.temp_dir and %s, got %v", tc.wantErr, err)
			}
		})
	}
}
