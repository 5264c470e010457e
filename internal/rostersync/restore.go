package rostersync

import (
	"context"

	"rostersync/internal/backup"
	"rostersync/internal/history"
)

// RestoreResult reports a roster restore.
type RestoreResult struct {
	Restored backup.Snapshot `json:"restored"`
	// Previous is the snapshot of the roster taken just before it was replaced.
	Previous *backup.Snapshot `json:"previous,omitempty"`
}

// Restore replaces the roster at path with the backup named by ref, holding
// the roster lock for the duration. ref is a snapshot file name, a path, or
// "latest".
func (e *Engine) Restore(ctx context.Context, path, ref string) (RestoreResult, error) {
	var result RestoreResult
	unlock, err := e.lock(path)
	if err != nil {
		return result, err
	}
	defer unlock()

	snapshot, err := e.backups.Resolve(path, ref)
	if err != nil {
		return result, err
	}
	result.Restored = snapshot
	if err := ctx.Err(); err != nil {
		return result, err
	}

	previous, err := e.backups.Restore(snapshot, path)
	result.Previous = previous
	rec := e.WithKind(history.KindRestore).newRecord(path, "", snapshot.Name(), history.OutcomeRestored, previous)
	if err != nil {
		rec.Outcome = history.OutcomeFailed
		rec.Detail = err.Error()
		e.record(ctx, []history.Record{rec})
		return result, err
	}
	e.record(ctx, []history.Record{rec})
	return result, nil
}
