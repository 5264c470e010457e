// Package installer turns downloaded archives into installed characters and
// stages, and keeps the roster in step with the game's asset directories.
//
// An install extracts into a temp directory, identifies a character folder
// (a folder holding <name>.def) or stage definitions, moves them into chars/
// or stages/ without overwriting anything, and reconciles the roster through
// the sync engine. Uninstall and Scan cover the reverse direction and the
// drift between disk and roster.
package installer
