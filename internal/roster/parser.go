package roster

// Entries returns the entries of section in file order: empty and sentinel
// tokens skipped, case-insensitive duplicates dropped (first wins). A section
// whose header appears more than once contributes every occurrence; an
// unclosed section runs to end of file.
func (d *Document) Entries(section string) []Entry {
	m := newSectionMachine(section)
	var entries []Entry
	for i, line := range d.Lines {
		cl := classify(line.Text, i == 0)
		m.advance(cl)
		if _, in := m.inside(); !in || cl.kind != kindEntry {
			continue
		}
		if cl.token == "" || IsSentinel(cl.token) {
			continue
		}
		entries = append(entries, Entry{Name: cl.token, Raw: cl.raw})
	}
	return Dedupe(entries)
}

// ParseOrdered parses raw section-format text and returns section's entries
// in file order.
func ParseOrdered(raw []byte, section string) []Entry {
	return NewDocument(raw).Entries(section)
}

// Parse returns section's entries in display order (see Sorted). The order is
// a listing convention only and says nothing about how the game orders its
// select screen.
func Parse(raw []byte, section string) []Entry {
	return Sorted(ParseOrdered(raw, section))
}
