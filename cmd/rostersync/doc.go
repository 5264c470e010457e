// Package main hosts the rostersync CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into installer and
// roster operations: batch archive installs, character removal, directory
// scans, roster listings and dumps, backup management, history queries,
// environment checks, and the downloads watcher. It centralizes configuration
// resolution and logger, history, and engine setup so subcommands only render
// results.
//
// Keep this package lean: add new behaviour to the internal packages first,
// then surface it through a dedicated command or flag here.
package main
