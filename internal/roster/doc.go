// Package roster parses and rewrites game roster files.
//
// Two roster shapes are supported. The section format is the bracketed,
// line-oriented select.def dialect:
//
//	[Characters]
//	kfm
//	kfm720, stages/kfm.def
//	randomselect
//	[ExtraStages]
//	stages/Training.def
//
// The record format is a JSON object whose keys name sections and whose values
// are arrays of records identified by their "name" field. Both shapes are
// reached through the Codec interface.
//
// Rewrites only ever touch the bodies of the requested sections: every other
// byte of the file, line terminators included, is reproduced as read. The
// Characters section always ends with exactly one randomselect sentinel, which
// is never reported as an entry.
//
// Parsing and rewriting of the section format share one state machine
// (Outside / InSection) driven by header and blank lines; see machine.go.
package roster
