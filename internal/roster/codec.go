package roster

import "fmt"

// Roster format identifiers.
const (
	FormatSections = "def"
	FormatRecords  = "json"
)

// Codec reads and rewrites one roster shape.
type Codec interface {
	// Entries returns section's entries in file order.
	Entries(data []byte, section string) ([]Entry, error)
	// Rewrite replaces the named sections' entries, leaving everything else intact.
	Rewrite(data []byte, updates map[string][]Entry, opts WriteOptions) ([]byte, error)
	// HasSection reports whether section can be rewritten.
	HasSection(data []byte, section string) bool
}

// SectionCodec handles the bracketed select.def text format.
type SectionCodec struct{}

// Entries implements Codec.
func (SectionCodec) Entries(data []byte, section string) ([]Entry, error) {
	return ParseOrdered(data, section), nil
}

// Rewrite implements Codec.
func (SectionCodec) Rewrite(data []byte, updates map[string][]Entry, opts WriteOptions) ([]byte, error) {
	return Rewrite(data, updates, opts)
}

// HasSection implements Codec.
func (SectionCodec) HasSection(data []byte, section string) bool {
	return NewDocument(data).HasSection(section)
}

// CodecFor returns the codec for a format identifier.
func CodecFor(format string) (Codec, error) {
	switch format {
	case FormatSections, "":
		return SectionCodec{}, nil
	case FormatRecords:
		return RecordCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported roster format %q", format)
	}
}
