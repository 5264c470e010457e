package rostersync

import (
	"rostersync/internal/backup"
	"rostersync/internal/history"
)

func reconcileRecords(e *Engine, path string, result ReconcileResult, failure error) []history.Record {
	var records []history.Record
	for _, delta := range result.Sections {
		for _, entry := range delta.Added {
			rec := e.newRecord(path, delta.Section, entry.Name, history.OutcomeAdded, result.Backup)
			if failure != nil {
				rec.Outcome = history.OutcomeFailed
				rec.Detail = failure.Error()
			}
			records = append(records, rec)
		}
		for _, entry := range delta.AlreadyPresent {
			rec := e.newRecord(path, delta.Section, entry.Name, history.OutcomeSkipped, nil)
			rec.Detail = "already in roster"
			records = append(records, rec)
		}
	}
	return records
}

func removeRecords(e *Engine, path string, result RemoveResult, failure error) []history.Record {
	records := make([]history.Record, 0, len(result.Removed))
	for _, entry := range result.Removed {
		rec := e.newRecord(path, result.Section, entry.Name, history.OutcomeRemoved, result.Backup)
		if failure != nil {
			rec.Outcome = history.OutcomeFailed
			rec.Detail = failure.Error()
		}
		records = append(records, rec)
	}
	return records
}

func (e *Engine) newRecord(path, section, entry string, outcome history.Outcome, snapshot *backup.Snapshot) history.Record {
	rec := history.Record{
		OperationID: e.operationID,
		Kind:        e.kind,
		Section:     section,
		Entry:       entry,
		Outcome:     outcome,
		RosterPath:  path,
	}
	if snapshot != nil {
		rec.BackupPath = snapshot.Path
	}
	return rec
}
