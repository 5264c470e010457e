// Package watch installs archives as they land in the downloads directory.
//
// Events from fsnotify are debounced per file: an archive is installed once no
// create or write event has been seen for the settle delay, so half-written
// downloads are not picked up. Installs run one at a time on the watcher's
// goroutine.
package watch
