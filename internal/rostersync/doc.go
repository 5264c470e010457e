// Package rostersync keeps a roster file in line with the assets installed on
// disk.
//
// The Engine is the only writer of the roster. Every mutating call follows the
// same sequence:
//
//  1. take the advisory lock <roster>.lock (a second caller gets ErrRosterBusy)
//  2. read the roster fresh from disk and parse the managed sections
//  3. compute the delta against the caller's entries
//  4. render the complete new content in memory
//  5. snapshot the current file through the backup manager
//  6. replace the roster atomically (temp file, fsync, rename)
//  7. append the outcome to the history ledger
//
// Any failure before step 6 leaves the file untouched; a failed backup aborts
// the write. When the delta is empty nothing is written and no snapshot is
// taken.
package rostersync
