package roster_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/sebdah/goldie/v2"

	"rostersync/internal/roster"
)

func TestRecordCodecEntries(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "roster.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	codec := roster.RecordCodec{}

	chars, err := codec.Entries(data, roster.SectionCharacters)
	if err != nil {
		t.Fatalf("Entries returned error: %v", err)
	}
	if got := roster.Names(chars); !reflect.DeepEqual(got, []string{"kfm", "Ryu"}) {
		t.Fatalf("unexpected characters: %v", got)
	}
	if chars[0].Raw != `{"name": "kfm", "pal": 1}` {
		t.Fatalf("unexpected raw record: %q", chars[0].Raw)
	}

	stages, err := codec.Entries(data, roster.SectionExtraStages)
	if err != nil {
		t.Fatalf("Entries returned error: %v", err)
	}
	if len(stages) != 0 {
		t.Fatalf("expected no stages, got %v", stages)
	}
	if !codec.HasSection(data, "characters") {
		t.Fatal("expected case-insensitive section lookup")
	}
}

func TestRecordCodecRewriteGolden(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "roster.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	codec := roster.RecordCodec{}
	chars, err := codec.Entries(data, roster.SectionCharacters)
	if err != nil {
		t.Fatalf("Entries returned error: %v", err)
	}

	out, err := codec.Rewrite(data, map[string][]roster.Entry{
		roster.SectionCharacters:  append(chars, roster.NewEntry("Akuma")),
		roster.SectionExtraStages: {roster.NewEntry("stages/bridge.def")},
	}, roster.WriteOptions{Path: "roster.json"})
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "records_rewrite", out)
}

func TestRecordCodecEmptyCharactersKeepsSentinel(t *testing.T) {
	out, err := roster.RecordCodec{}.Rewrite([]byte(`{"Characters": []}`), map[string][]roster.Entry{
		roster.SectionCharacters: nil,
	}, roster.WriteOptions{})
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if got, want := string(out), `{"Characters": [{"name": "randomselect"}]}`; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestRecordCodecMissingSection(t *testing.T) {
	_, err := roster.RecordCodec{}.Rewrite([]byte(`{"Characters": []}`), map[string][]roster.Entry{
		roster.SectionExtraStages: {roster.NewEntry("stages/a.def")},
	}, roster.WriteOptions{})

	var notFound *roster.SectionNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected SectionNotFoundError, got %v", err)
	}
}

func TestRecordCodecRejectsInvalidJSON(t *testing.T) {
	_, err := roster.RecordCodec{}.Entries([]byte("[Characters]\nkfm\n"), roster.SectionCharacters)
	if !errors.Is(err, roster.ErrInvalidRecords) {
		t.Fatalf("expected ErrInvalidRecords, got %v", err)
	}
}

func TestCodecFor(t *testing.T) {
	if codec, err := roster.CodecFor(roster.FormatSections); err != nil {
		t.Fatalf("CodecFor(def) error: %v", err)
	} else if _, ok := codec.(roster.SectionCodec); !ok {
		t.Fatalf("expected SectionCodec, got %T", codec)
	}
	if codec, err := roster.CodecFor(roster.FormatRecords); err != nil {
		t.Fatalf("CodecFor(json) error: %v", err)
	} else if _, ok := codec.(roster.RecordCodec); !ok {
		t.Fatalf("expected RecordCodec, got %T", codec)
	}
	if _, err := roster.CodecFor("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
