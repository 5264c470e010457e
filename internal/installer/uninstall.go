package installer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"rostersync/internal/backup"
	"rostersync/internal/history"
	"rostersync/internal/logging"
	"rostersync/internal/roster"
)

// ErrNotInRoster reports a character folder with no roster entry. Uninstall
// leaves such folders alone unless forced.
var ErrNotInRoster = errors.New("character is not in the roster")

// UninstallResult reports the outcome of removing a character.
type UninstallResult struct {
	Name          string           `json:"name"`
	Removed       []string         `json:"removed"`
	Folder        string           `json:"folder,omitempty"`
	FolderRemoved bool             `json:"folder_removed"`
	Backup        *backup.Snapshot `json:"backup,omitempty"`
}

// Uninstall drops every Characters entry matching name from the roster and
// then deletes the character folder. The folder is only touched after the
// roster update, and its backup, succeeded. A folder without a roster entry
// has no backup behind it and is only deleted when force is set; otherwise
// the result names the folder and the error wraps ErrNotInRoster.
func (i *Installer) Uninstall(ctx context.Context, name string, force bool) (UninstallResult, error) {
	result := UninstallResult{Name: strings.TrimSpace(name)}
	folderName := characterFolder(result.Name)
	if folderName == "" {
		return result, errors.New("character name is required")
	}

	removal, err := i.engine.WithKind(history.KindRemove).Remove(ctx, i.cfg.Paths.RosterFile, roster.SectionCharacters, result.Name)
	if err != nil {
		return result, err
	}
	result.Removed = roster.Names(removal.Removed)
	result.Backup = removal.Backup

	folder, ok := i.locateCharacter(folderName)
	if !ok {
		if len(result.Removed) == 0 {
			i.logger.Info("character not found in roster or chars directory",
				logging.String(logging.FieldEntry, result.Name))
		}
		return result, nil
	}
	result.Folder = folder
	if len(result.Removed) == 0 && !force {
		return result, fmt.Errorf("%s: %w; kept %s", result.Name, ErrNotInRoster, folder)
	}
	if err := i.fs.RemoveAll(folder); err != nil {
		return result, fmt.Errorf("delete character folder %s: %w", folder, err)
	}
	result.FolderRemoved = true
	i.logger.Info("character folder deleted",
		logging.String(logging.FieldEntry, result.Name),
		logging.String(logging.FieldPath, folder),
	)
	return result, nil
}

// locateCharacter finds the chars/ subdirectory named folderName, ignoring
// case.
func (i *Installer) locateCharacter(folderName string) (string, bool) {
	entries, err := i.fs.ListDir(i.cfg.Paths.CharsDir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() && strings.EqualFold(entry.Name(), folderName) {
			return filepath.Join(i.cfg.Paths.CharsDir, entry.Name()), true
		}
	}
	return "", false
}

// characterFolder returns the first path segment of a character token, in its
// original case.
func characterFolder(name string) string {
	name = strings.Trim(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"), "/")
	if idx := strings.IndexByte(name, '/'); idx >= 0 {
		name = name[:idx]
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}
