package installer

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const defExt = ".def"

// FindDefinitionFile returns the definition file that makes folder a
// character: <folder>.def matched case-insensitively, else the only .def file
// in the folder.
func FindDefinitionFile(folder string) (string, bool) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", false
	}
	return findDefinition(filepath.Base(folder), entries)
}

func findDefinition(base string, entries []fs.DirEntry) (string, bool) {
	want := strings.ToLower(base) + defExt
	var defs []string
	for _, entry := range entries {
		if entry.IsDir() || !isDefinition(entry.Name()) {
			continue
		}
		if strings.ToLower(entry.Name()) == want {
			return entry.Name(), true
		}
		defs = append(defs, entry.Name())
	}
	if len(defs) == 1 {
		return defs[0], true
	}
	return "", false
}

// hasOwnDefinition reports whether folder holds <folder>.def exactly, the
// stricter rule used when an archive has several top-level folders.
func hasOwnDefinition(folder string) bool {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return false
	}
	want := strings.ToLower(filepath.Base(folder)) + defExt
	for _, entry := range entries {
		if !entry.IsDir() && strings.ToLower(entry.Name()) == want {
			return true
		}
	}
	return false
}

func isDefinition(name string) bool {
	return strings.EqualFold(filepath.Ext(name), defExt)
}
