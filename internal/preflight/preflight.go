package preflight

import (
	"context"

	"rostersync/internal/config"
	"rostersync/internal/roster"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Game directory", cfg.Paths.GameDir),
		CheckDirectoryAccess("Characters directory", cfg.Paths.CharsDir),
		CheckDirectoryAccess("Stages directory", cfg.Paths.StagesDir),
		CheckOptionalDirectory("Downloads directory", cfg.Paths.DownloadsDir),
		CheckOptionalDirectory("Backup directory", cfg.Paths.BackupDir),
		CheckOptionalDirectory("State directory", cfg.Paths.StateDir),
		CheckRosterFile("Roster file", cfg.Paths.RosterFile),
	}

	codec, err := roster.CodecFor(cfg.RosterFormat())
	if err != nil {
		return append(results, Result{Name: "Roster file", Detail: err.Error()})
	}
	for _, section := range []string{roster.SectionCharacters, roster.SectionExtraStages} {
		if ctx.Err() != nil {
			break
		}
		results = append(results, CheckRosterSection(cfg.Paths.RosterFile, section, codec))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
