package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rostersync/internal/config"
	"rostersync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("ROSTERSYNC_GAME_DIR", "")
	t.Setenv("ROSTERSYNC_DOWNLOADS_DIR", "")

	configPath := filepath.Join(base, "rostersync.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	flags := []string{"--quiet"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
game_dir = %q
downloads_dir = %q
chars_dir = %q
stages_dir = %q
roster_file = %q
backup_dir = %q
state_dir = %q

[install]
cleanup_archives = %t
temp_dir = %q

[roster]
format = %q
order = %q

[logging]
level = "warn"
retention_days = 0
`,
		cfg.Paths.GameDir,
		cfg.Paths.DownloadsDir,
		cfg.Paths.CharsDir,
		cfg.Paths.StagesDir,
		cfg.Paths.RosterFile,
		cfg.Paths.BackupDir,
		cfg.Paths.StateDir,
		cfg.Install.CleanupArchives,
		cfg.Install.TempDir,
		cfg.Roster.Format,
		cfg.Roster.Order,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
