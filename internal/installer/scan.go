package installer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"rostersync/internal/history"
	"rostersync/internal/logging"
	"rostersync/internal/roster"
	"rostersync/internal/rostersync"
)

// Orphan is a roster entry with nothing on disk behind it.
type Orphan struct {
	Section string `json:"section"`
	Entry   string `json:"entry"`
}

// ScanResult reports what a scan found and changed.
type ScanResult struct {
	Characters []string                   `json:"characters"`
	Stages     []string                   `json:"stages"`
	Reconcile  rostersync.ReconcileResult `json:"reconcile"`
	Orphans    []Orphan                   `json:"orphans"`
}

// Scan discovers installed characters (folders with a definition file) and
// stage definitions, adds the missing ones to the roster in one write, and
// reports roster entries that no longer exist on disk. Orphans are reported,
// never removed.
func (i *Installer) Scan(ctx context.Context) (ScanResult, error) {
	var result ScanResult

	characters, err := i.discoverCharacters()
	if err != nil {
		return result, err
	}
	stages, err := i.discoverStages()
	if err != nil {
		return result, err
	}
	discovered := map[string][]roster.Entry{}
	for _, name := range characters {
		result.Characters = append(result.Characters, name)
		discovered[roster.SectionCharacters] = append(discovered[roster.SectionCharacters], roster.NewEntry(name))
	}
	for _, file := range stages {
		entry := i.StageEntry(file)
		result.Stages = append(result.Stages, entry)
		discovered[roster.SectionExtraStages] = append(discovered[roster.SectionExtraStages], roster.NewEntry(entry))
	}

	reconcile, err := i.engine.WithKind(history.KindScan).ReconcileSections(ctx, i.cfg.Paths.RosterFile, discovered)
	result.Reconcile = reconcile
	if err != nil {
		return result, err
	}

	result.Orphans = i.findOrphans()
	for _, orphan := range result.Orphans {
		logging.WarnWithContext(i.logger, "roster entry has no files on disk", "roster_orphan",
			logging.String(logging.FieldSection, orphan.Section),
			logging.String(logging.FieldEntry, orphan.Entry),
			logging.String(logging.FieldErrorHint, "reinstall the asset or run rostersync remove"),
			logging.String(logging.FieldImpact, "the game may fail to load this entry"),
		)
	}
	return result, nil
}

func (i *Installer) discoverCharacters() ([]string, error) {
	entries, err := i.fs.ListDir(i.cfg.Paths.CharsDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, ok := FindDefinitionFile(filepath.Join(i.cfg.Paths.CharsDir, entry.Name())); !ok {
			i.logger.Debug("skipping folder without definition file",
				logging.String(logging.FieldPath, filepath.Join(i.cfg.Paths.CharsDir, entry.Name())))
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

func (i *Installer) discoverStages() ([]string, error) {
	entries, err := i.fs.ListDir(i.cfg.Paths.StagesDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && isDefinition(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

func (i *Installer) findOrphans() []Orphan {
	var orphans []Orphan
	for _, section := range []string{roster.SectionCharacters, roster.SectionExtraStages} {
		entries, err := i.engine.Entries(i.cfg.Paths.RosterFile, section)
		if err != nil {
			logging.WarnWithContext(i.logger, "roster unreadable; orphan check skipped", "roster_parse_warning",
				logging.Error(err),
				logging.String(logging.FieldImpact, "orphaned entries are not reported"),
			)
			return nil
		}
		for _, entry := range entries {
			if !i.entryExists(section, entry.Name) {
				orphans = append(orphans, Orphan{Section: section, Entry: entry.Name})
			}
		}
	}
	return orphans
}

// entryExists resolves a roster token the way the game does: characters
// relative to chars/, stages relative to the game directory.
func (i *Installer) entryExists(section, name string) bool {
	rel := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if strings.EqualFold(section, roster.SectionCharacters) {
		if i.fs.Exists(filepath.Join(i.cfg.Paths.CharsDir, rel)) {
			return true
		}
		if roster.IsQualified(name) {
			return false
		}
		_, ok := i.locateCharacter(name)
		return ok
	}
	return i.fs.Exists(filepath.Join(i.cfg.Paths.GameDir, rel))
}
