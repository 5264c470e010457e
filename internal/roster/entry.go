package roster

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Managed section names.
const (
	SectionCharacters  = "Characters"
	SectionExtraStages = "ExtraStages"
)

// SentinelName is the reserved Characters entry that must always be present
// and never counts as an installed asset.
const SentinelName = "randomselect"

// Entry is one installed asset listed in a roster section.
type Entry struct {
	// Name is the identity token: the text before the first comma of a
	// section line, or the "name" field of a record.
	Name string `json:"name"`
	// Raw is the original representation (trimmed line or JSON record). It is
	// re-emitted verbatim on rewrite so per-entry options survive.
	Raw string `json:"raw,omitempty"`
}

// NewEntry builds an entry for a freshly discovered asset.
func NewEntry(name string) Entry {
	return Entry{Name: strings.TrimSpace(name)}
}

// Key returns the canonical dedup key of the entry.
func (e Entry) Key() string {
	return CanonicalPath(e.Name)
}

// Qualified reports whether the entry references a sub-path rather than a bare folder name.
func (e Entry) Qualified() bool {
	return IsQualified(e.Name)
}

func canonical(entry string) string {
	lowered := cases.Lower(language.Und).String(strings.TrimSpace(entry))
	lowered = strings.ReplaceAll(lowered, `\`, "/")
	lowered = strings.TrimPrefix(lowered, "./")
	return strings.Trim(lowered, "/")
}

// Normalize returns the canonical key used for simple-name equality: lower
// cased, forward slashes, first path segment only.
func Normalize(entry string) string {
	key := canonical(entry)
	if idx := strings.IndexByte(key, '/'); idx >= 0 {
		key = key[:idx]
	}
	return strings.TrimSpace(key)
}

// CanonicalPath is Normalize without the first-segment cut. Qualified entries
// are compared on their full path.
func CanonicalPath(entry string) string {
	return canonical(entry)
}

// IsQualified reports whether entry contains a path separator.
func IsQualified(entry string) bool {
	return strings.ContainsAny(strings.TrimSpace(entry), `/\`)
}

// IsSentinel reports whether entry is the randomselect placeholder.
func IsSentinel(entry string) bool {
	return Normalize(entry) == SentinelName
}

// HasSentinel reports whether section carries the randomselect sentinel.
func HasSentinel(section string) bool {
	return strings.EqualFold(strings.TrimSpace(section), SectionCharacters)
}

// Matches reports whether two entry tokens refer to the same asset.
//
// Qualified entries match on their full canonical path. When either side is a
// simple name the comparison falls back to the first path segment, so "KFM"
// matches "kfm/kfm.def". This is a best-effort heuristic: two distinct installs
// that share a first segment in an unusual layout are treated as one.
func Matches(a, b string) bool {
	ka, kb := CanonicalPath(a), CanonicalPath(b)
	if ka == "" || kb == "" {
		return false
	}
	if ka == kb {
		return true
	}
	if IsQualified(a) && IsQualified(b) {
		return false
	}
	return Normalize(a) == Normalize(b)
}

// Find returns the index of the first entry matching name, or -1.
func Find(entries []Entry, name string) int {
	for i, entry := range entries {
		if Matches(entry.Name, name) {
			return i
		}
	}
	return -1
}

// Dedupe drops empty, sentinel, and repeated entries (by canonical path),
// keeping the first occurrence and the input order.
func Dedupe(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		key := entry.Key()
		if key == "" || IsSentinel(entry.Name) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entry)
	}
	return out
}

// Sorted returns a copy of entries in display order: case-insensitive
// lexicographic on the canonical path, ties broken by the raw name.
func Sorted(entries []Entry) []Entry {
	out := append([]Entry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := out[i].Key(), out[j].Key()
		if ki != kj {
			return ki < kj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Names returns the identity tokens of entries.
func Names(entries []Entry) []string {
	names := make([]string, len(entries))
	for i, entry := range entries {
		names[i] = entry.Name
	}
	return names
}
