package testsupport

import (
	"context"
	"testing"

	"rostersync/internal/config"
	"rostersync/internal/history"
)

// MustOpenHistory opens the history ledger for tests and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// OperationRecords returns every ledger row written under operationID.
func OperationRecords(t testing.TB, store *history.Store, operationID string) []history.Record {
	t.Helper()

	records, err := store.ByOperation(context.Background(), operationID)
	if err != nil {
		t.Fatalf("ByOperation: %v", err)
	}
	return records
}
