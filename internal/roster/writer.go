package roster

import (
	"bytes"
	"sort"
)

// Order selects how a rewritten section lists its entries.
type Order int

const (
	// OrderSorted lists entries in display order (see Sorted).
	OrderSorted Order = iota
	// OrderInsertion keeps the order of the update list.
	OrderInsertion
)

// WriteOptions tunes Rewrite.
type WriteOptions struct {
	Order Order
	// Path is only used to label errors.
	Path string
}

// Rewrite parses original and replaces the bodies of the sections named in
// updates. See Document.Rewrite.
func Rewrite(original []byte, updates map[string][]Entry, opts WriteOptions) ([]byte, error) {
	return NewDocument(original).Rewrite(updates, opts)
}

// Rewrite returns the document with the body of every section in updates
// replaced by the given entries. Nothing outside those bodies changes.
//
// For each managed section the output is: the original header line, the
// comment lines of the old body in their original order, the entries, and
// for Characters a single randomselect line (the original spelling when the
// old body had one). The old body ends at the next header, blank line, or end
// of file. A managed header that appears again later keeps its header and
// comments but loses its entries, which the parser already merged into the
// first occurrence. New lines use the document's dominant terminator.
//
// If any requested section has no header the result is a
// *SectionNotFoundError and no output is produced.
func (d *Document) Rewrite(updates map[string][]Entry, opts WriteOptions) ([]byte, error) {
	sections := make([]string, 0, len(updates))
	for section := range updates {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	eol := d.EOL()
	m := newSectionMachine(sections...)
	written := make(map[string]bool, len(sections))

	var out bytes.Buffer
	var comments []string
	var sentinel string

	flush := func(section string) {
		first := !written[section]
		if first || len(comments) > 0 {
			if out.Len() > 0 && out.Bytes()[out.Len()-1] != '\n' {
				out.WriteString(eol)
			}
		}
		for _, comment := range comments {
			out.WriteString(comment)
		}
		if first {
			for _, entry := range prepareEntries(updates[section], opts.Order) {
				out.WriteString(entryText(entry))
				out.WriteString(eol)
			}
			if HasSentinel(section) {
				if sentinel == "" {
					sentinel = SentinelName
				}
				out.WriteString(sentinel)
				out.WriteString(eol)
			}
			written[section] = true
		}
		comments = nil
		sentinel = ""
	}

	for i, line := range d.Lines {
		cl := classify(line.Text, i == 0)
		left, wasIn := m.inside()
		tr, _ := m.advance(cl)
		if wasIn && tr != transNone {
			flush(left)
		}

		if _, in := m.inside(); in {
			switch {
			case tr == transEnter:
				out.WriteString(line.Text)
				out.WriteString(line.EOL)
			case cl.kind == kindComment:
				lineEOL := line.EOL
				if lineEOL == "" {
					lineEOL = eol
				}
				comments = append(comments, line.Text+lineEOL)
			case cl.kind == kindEntry && sentinel == "" && IsSentinel(cl.token):
				sentinel = cl.raw
			}
			continue
		}

		out.WriteString(line.Text)
		out.WriteString(line.EOL)
	}
	if section, in := m.inside(); in {
		flush(section)
	}

	for _, section := range sections {
		if !written[section] {
			return nil, &SectionNotFoundError{Section: section, Path: opts.Path}
		}
	}
	return out.Bytes(), nil
}

func prepareEntries(entries []Entry, order Order) []Entry {
	entries = Dedupe(entries)
	if order == OrderSorted {
		entries = Sorted(entries)
	}
	return entries
}

func entryText(entry Entry) string {
	if entry.Raw != "" {
		return entry.Raw
	}
	return entry.Name
}
