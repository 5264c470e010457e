// Package backup takes immutable, timestamped snapshots of the roster file
// before every write.
//
// Snapshots live in the configured backup directory (default:
// <roster dir>/backups) and are named
//
//	<roster basename>.<UTC timestamp>.bak
//
// with the timestamp formatted as 2006-01-02T15-04-05.000Z so names sort
// chronologically. Two snapshots taken within the same millisecond get a
// numeric suffix instead of overwriting each other. Every copy is verified by
// size and SHA-256 before it is reported as created.
//
// Snapshots are never pruned automatically. Restore snapshots the current
// roster first, so a restore can itself be undone.
package backup
