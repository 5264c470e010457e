// Package logs reads the rostersync JSON log file back for the CLI.
//
// Tail returns the last lines of the file with bounded memory, Follow streams
// lines appended after an offset until its context ends, and Filter/Format
// select and render JSON log records by operation id, level, or event type.
package logs
