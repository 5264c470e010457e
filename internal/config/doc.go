// Package config loads, normalizes, and validates rostersync configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as ROSTERSYNC_GAME_DIR.
// The Config type is the single value object handed to every install, scan,
// and roster operation; nothing in the repository keeps paths in package
// state.
//
// Always obtain settings through this package so downstream code receives
// absolute paths with the asset directories, roster file, and backup location
// already derived from the game root.
package config
