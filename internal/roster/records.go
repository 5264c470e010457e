package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// RecordCodec handles the structured roster shape: a JSON object (comments
// and trailing commas tolerated) whose keys are section names and whose
// values are arrays of records. A record is an object identified by its
// "name" field, or a bare string.
//
// Rewrites splice a new array over the old one's byte range, so everything
// outside the managed arrays, comments included, is preserved.
type RecordCodec struct{}

// Entries implements Codec. A missing section yields no entries.
func (RecordCodec) Entries(data []byte, section string) ([]Entry, error) {
	root, stripped, err := parseRecords(data)
	if err != nil {
		return nil, err
	}
	key, ok := findSectionKey(root, section)
	if !ok {
		return nil, nil
	}
	arr := gjson.GetBytes(stripped, gjson.Escape(key))
	if !arr.IsArray() {
		return nil, nil
	}
	var entries []Entry
	arr.ForEach(func(_, record gjson.Result) bool {
		name := recordName(record)
		if name == "" || IsSentinel(name) {
			return true
		}
		entries = append(entries, Entry{Name: name, Raw: strings.TrimSpace(record.Raw)})
		return true
	})
	return Dedupe(entries), nil
}

// HasSection implements Codec.
func (RecordCodec) HasSection(data []byte, section string) bool {
	root, stripped, err := parseRecords(data)
	if err != nil {
		return false
	}
	key, ok := findSectionKey(root, section)
	return ok && gjson.GetBytes(stripped, gjson.Escape(key)).IsArray()
}

type splice struct {
	start, end int
	text       string
}

// Rewrite implements Codec.
func (RecordCodec) Rewrite(data []byte, updates map[string][]Entry, opts WriteOptions) ([]byte, error) {
	root, stripped, err := parseRecords(data)
	if err != nil {
		return nil, err
	}

	sections := make([]string, 0, len(updates))
	for section := range updates {
		sections = append(sections, section)
	}
	sort.Strings(sections)

	splices := make([]splice, 0, len(sections))
	for _, section := range sections {
		key, ok := findSectionKey(root, section)
		if !ok {
			return nil, &SectionNotFoundError{Section: section, Path: opts.Path}
		}
		arr := gjson.GetBytes(stripped, gjson.Escape(key))
		if !arr.IsArray() || arr.Index <= 0 {
			return nil, &SectionNotFoundError{Section: section, Path: opts.Path}
		}

		records := make([]string, 0, len(updates[section])+1)
		for _, entry := range prepareEntries(updates[section], opts.Order) {
			records = append(records, recordText(entry))
		}
		if HasSentinel(section) {
			records = append(records, sentinelRecord(arr))
		}

		splices = append(splices, splice{
			start: arr.Index,
			end:   arr.Index + len(arr.Raw),
			text:  renderArray(data, arr.Index, arr.Raw, records),
		})
	}

	sort.Slice(splices, func(i, j int) bool { return splices[i].start > splices[j].start })
	out := append([]byte(nil), data...)
	for _, s := range splices {
		var buf bytes.Buffer
		buf.Grow(len(out) - (s.end - s.start) + len(s.text))
		buf.Write(out[:s.start])
		buf.WriteString(s.text)
		buf.Write(out[s.end:])
		out = buf.Bytes()
	}

	if !gjson.ValidBytes(jsonc.ToJSON(append([]byte(nil), out...))) {
		return nil, fmt.Errorf("%w: rewrite of %s produced invalid JSON", ErrInvalidRecords, opts.Path)
	}
	return out, nil
}

// parseRecords strips comments (ToJSON keeps byte offsets intact) and checks
// that the document is a JSON object.
func parseRecords(data []byte) (gjson.Result, []byte, error) {
	stripped := jsonc.ToJSON(append([]byte(nil), data...))
	if !gjson.ValidBytes(stripped) {
		return gjson.Result{}, nil, ErrInvalidRecords
	}
	root := gjson.ParseBytes(stripped)
	if !root.IsObject() {
		return gjson.Result{}, nil, fmt.Errorf("%w: top level is not an object", ErrInvalidRecords)
	}
	return root, stripped, nil
}

func findSectionKey(root gjson.Result, section string) (string, bool) {
	var found string
	var ok bool
	root.ForEach(func(key, _ gjson.Result) bool {
		if strings.EqualFold(strings.TrimSpace(key.String()), strings.TrimSpace(section)) {
			found, ok = key.String(), true
			return false
		}
		return true
	})
	return found, ok
}

func recordName(record gjson.Result) string {
	switch {
	case record.Type == gjson.String:
		return strings.TrimSpace(record.String())
	case record.IsObject():
		return strings.TrimSpace(record.Get("name").String())
	}
	return ""
}

func recordText(entry Entry) string {
	if raw := strings.TrimSpace(entry.Raw); raw != "" && gjson.Valid(raw) {
		if Matches(recordName(gjson.Parse(raw)), entry.Name) {
			return raw
		}
	}
	return newRecord(entry.Name)
}

func newRecord(name string) string {
	quoted, err := json.Marshal(name)
	if err != nil {
		quoted = []byte(`""`)
	}
	return `{"name": ` + string(quoted) + `}`
}

func sentinelRecord(arr gjson.Result) string {
	sentinel := ""
	arr.ForEach(func(_, record gjson.Result) bool {
		if IsSentinel(recordName(record)) {
			sentinel = strings.TrimSpace(record.Raw)
			return false
		}
		return true
	})
	if sentinel == "" {
		sentinel = newRecord(SentinelName)
	}
	return sentinel
}

// renderArray formats records in the layout of the array being replaced:
// one record per line with the original indentation when the old array
// spanned lines, a single line otherwise.
func renderArray(original []byte, start int, raw string, records []string) string {
	if len(records) == 0 {
		return "[]"
	}
	if !strings.Contains(raw, "\n") {
		return "[" + strings.Join(records, ", ") + "]"
	}

	eol := "\n"
	if strings.Contains(raw, "\r\n") {
		eol = "\r\n"
	}

	lineStart := bytes.LastIndexByte(original[:start], '\n') + 1
	keyIndent := leadingSpace(string(original[lineStart:start]))

	closingIndent := keyIndent
	if idx := strings.LastIndexByte(raw, '\n'); idx >= 0 {
		closingIndent = leadingSpace(raw[idx+1:])
	}

	elemIndent := closingIndent + "  "
	body := strings.TrimLeft(raw[1:], " \t")
	if strings.HasPrefix(body, "\r\n") || strings.HasPrefix(body, "\n") {
		body = strings.TrimLeft(body, "\r\n")
		if indent := leadingSpace(body); indent != "" && !strings.HasPrefix(strings.TrimSpace(body), "]") {
			elemIndent = indent
		}
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(eol)
	for i, record := range records {
		b.WriteString(elemIndent)
		b.WriteString(record)
		if i < len(records)-1 {
			b.WriteString(",")
		}
		b.WriteString(eol)
	}
	b.WriteString(closingIndent)
	b.WriteString("]")
	return b.String()
}

func leadingSpace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}
