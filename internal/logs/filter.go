package logs

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"rostersync/internal/logging"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Filter selects JSON log records. Zero fields match everything.
type Filter struct {
	OperationID string
	// MinLevel drops records below debug, info, warn, or error.
	MinLevel  string
	EventType string
}

// Match reports whether line is a JSON record the filter accepts. Lines that
// are not JSON only match an empty filter.
func (f Filter) Match(line string) bool {
	if f == (Filter{}) {
		return true
	}
	if !gjson.Valid(line) {
		return false
	}
	record := gjson.Parse(line)
	if f.OperationID != "" && !strings.HasPrefix(record.Get(logging.FieldOperationID).String(), f.OperationID) {
		return false
	}
	if f.EventType != "" && record.Get(logging.FieldEventType).String() != f.EventType {
		return false
	}
	if floor, ok := levelRank[strings.ToLower(f.MinLevel)]; ok {
		rank, known := levelRank[record.Get("level").String()]
		if known && rank < floor {
			return false
		}
	}
	return true
}

// Format renders a JSON log record as one readable line: timestamp, level,
// component and message first, then the remaining fields in record order.
// Non-JSON lines are returned unchanged.
func Format(line string) string {
	if !gjson.Valid(line) {
		return line
	}
	record := gjson.Parse(line)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s", record.Get("ts").String(), strings.ToUpper(record.Get("level").String()))
	if component := record.Get(logging.FieldComponent).String(); component != "" {
		fmt.Fprintf(&b, " [%s]", component)
	}
	fmt.Fprintf(&b, " %s", record.Get("msg").String())
	record.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "ts", "level", "msg", "source", logging.FieldComponent, logging.FieldOperationID:
			return true
		}
		fmt.Fprintf(&b, " %s=%s", key.String(), value.String())
		return true
	})
	return b.String()
}
