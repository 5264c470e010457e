package logs

import "testing"

const (
	infoLine = `{"ts":"2026-10-17T10:00:00Z","level":"info","msg":"roster entry added","component":"rostersync","operation_id":"abc123","event_type":"roster_entry_added","entry":"Ryu"}`
	warnLine = `{"ts":"2026-10-17T10:00:01Z","level":"warn","msg":"roster unreadable","operation_id":"def456","event_type":"roster_parse_warning"}`
)

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		line   string
		want   bool
	}{
		{"empty filter keeps plain text", Filter{}, "plain text", true},
		{"operation prefix", Filter{OperationID: "abc"}, infoLine, true},
		{"other operation", Filter{OperationID: "abc"}, warnLine, false},
		{"below min level", Filter{MinLevel: "warn"}, infoLine, false},
		{"at min level", Filter{MinLevel: "warn"}, warnLine, true},
		{"event type", Filter{EventType: "roster_entry_added"}, infoLine, true},
		{"plain text with filter", Filter{MinLevel: "info"}, "plain text", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.line); got != tt.want {
				t.Fatalf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	want := "2026-10-17T10:00:00Z INFO  [rostersync] roster entry added event_type=roster_entry_added entry=Ryu"
	if got := Format(infoLine); got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
	if got := Format("not json"); got != "not json" {
		t.Fatalf("Format(plain) = %q", got)
	}
}
