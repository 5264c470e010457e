package roster

import (
	"bytes"
	"strings"
)

const utf8BOM = "\uFEFF"

// Line is one physical line of a roster file together with its terminator.
type Line struct {
	Text string
	EOL  string
}

// Document is the ordered raw lines of a section-format roster. Concatenating
// every Text+EOL reproduces the source bytes exactly.
type Document struct {
	Lines []Line
}

// NewDocument splits data into lines, keeping "\n", "\r\n", or no terminator
// (final line) per line.
func NewDocument(data []byte) *Document {
	doc := &Document{}
	for len(data) > 0 {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			doc.Lines = append(doc.Lines, Line{Text: string(data)})
			break
		}
		text := data[:idx]
		eol := "\n"
		if len(text) > 0 && text[len(text)-1] == '\r' {
			text = text[:len(text)-1]
			eol = "\r\n"
		}
		doc.Lines = append(doc.Lines, Line{Text: string(text), EOL: eol})
		data = data[idx+1:]
	}
	return doc
}

// Bytes reassembles the document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	for _, line := range d.Lines {
		buf.WriteString(line.Text)
		buf.WriteString(line.EOL)
	}
	return buf.Bytes()
}

// EOL returns the terminator most lines use, defaulting to "\n".
func (d *Document) EOL() string {
	var lf, crlf int
	for _, line := range d.Lines {
		switch line.EOL {
		case "\n":
			lf++
		case "\r\n":
			crlf++
		}
	}
	if crlf > lf {
		return "\r\n"
	}
	return "\n"
}

// Sections returns the header names in file order, duplicates included.
func (d *Document) Sections() []string {
	var names []string
	for i, line := range d.Lines {
		if cl := classify(line.Text, i == 0); cl.kind == kindHeader {
			names = append(names, cl.header)
		}
	}
	return names
}

// HasSection reports whether a header for section exists.
func (d *Document) HasSection(section string) bool {
	for _, name := range d.Sections() {
		if strings.EqualFold(name, section) {
			return true
		}
	}
	return false
}
