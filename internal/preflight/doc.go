// Package preflight provides readiness checks for the filesystem paths and
// roster file rostersync depends on.
//
// The CLI "rostersync doctor" command runs RunAll and renders the results.
// Mutating commands do not call it: the sync engine reports its own errors
// with the file and reason, and a failing check here is advice, not a gate.
package preflight
