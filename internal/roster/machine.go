package roster

import (
	"strings"
)

type lineKind int

const (
	kindEntry lineKind = iota
	kindBlank
	kindComment
	kindHeader
)

// classifiedLine is a roster line reduced to what the section machine needs.
type classifiedLine struct {
	kind   lineKind
	header string // section name for kindHeader
	token  string // identity token for kindEntry
	raw    string // trimmed line for kindEntry, inline comment included
}

func classify(text string, first bool) classifiedLine {
	if first {
		text = strings.TrimPrefix(text, utf8BOM)
	}
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return classifiedLine{kind: kindBlank}
	case strings.HasPrefix(trimmed, ";"):
		return classifiedLine{kind: kindComment}
	case strings.HasPrefix(trimmed, "["):
		name := trimmed[1:]
		if idx := strings.IndexByte(name, ']'); idx >= 0 {
			name = name[:idx]
		}
		return classifiedLine{kind: kindHeader, header: strings.TrimSpace(name)}
	}

	body := trimmed
	if idx := strings.IndexByte(body, ';'); idx >= 0 {
		body = body[:idx]
	}
	token := body
	if idx := strings.IndexByte(token, ','); idx >= 0 {
		token = token[:idx]
	}
	return classifiedLine{
		kind:  kindEntry,
		token: strings.TrimSpace(token),
		raw:   trimmed,
	}
}

type stateKind int

const (
	stateOutside stateKind = iota
	stateInSection
)

// scanState is Outside, or InSection(section) where section is the managed
// name as requested by the caller.
type scanState struct {
	kind    stateKind
	section string
}

type transition int

const (
	transNone  transition = iota // state unchanged
	transEnter                   // entered a managed section (possibly from another)
	transExit                    // left a managed section to Outside
)

// sectionMachine tracks which managed section, if any, the scan is inside.
//
//	Outside        --[managed header]--> InSection(name)
//	Outside        --[other header]----> Outside
//	InSection(a)   --[managed header]--> InSection(b)   (exit a, enter b)
//	InSection(a)   --[other header]----> Outside
//	InSection(a)   --[blank]-----------> Outside
//	any            --[comment|entry]---> unchanged
type sectionMachine struct {
	managed map[string]string // lower-cased header -> requested name
	state   scanState
}

func newSectionMachine(sections ...string) *sectionMachine {
	m := &sectionMachine{managed: make(map[string]string, len(sections))}
	for _, section := range sections {
		m.managed[strings.ToLower(strings.TrimSpace(section))] = section
	}
	return m
}

// advance applies one line and reports the transition plus the state that
// was left (meaningful for transExit and section-to-section transEnter).
func (m *sectionMachine) advance(line classifiedLine) (transition, scanState) {
	prev := m.state
	switch line.kind {
	case kindHeader:
		if name, ok := m.managed[strings.ToLower(line.header)]; ok {
			m.state = scanState{kind: stateInSection, section: name}
			return transEnter, prev
		}
		m.state = scanState{kind: stateOutside}
	case kindBlank:
		m.state = scanState{kind: stateOutside}
	default:
		return transNone, prev
	}
	if prev.kind == stateInSection {
		return transExit, prev
	}
	return transNone, prev
}

func (m *sectionMachine) inside() (string, bool) {
	if m.state.kind != stateInSection {
		return "", false
	}
	return m.state.section, true
}
