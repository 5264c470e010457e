package history

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the operation that produced a record.
type Kind string

const (
	KindInstall   Kind = "install"
	KindRemove    Kind = "remove"
	KindScan      Kind = "scan"
	KindReconcile Kind = "reconcile"
	KindRestore   Kind = "restore"
)

// Outcome is the per-entry result of an operation.
type Outcome string

const (
	OutcomeAdded    Outcome = "added"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeRemoved  Outcome = "removed"
	OutcomeFailed   Outcome = "failed"
	OutcomeRestored Outcome = "restored"
)

// Record is one ledger row.
type Record struct {
	ID          int64     `json:"id"`
	OperationID string    `json:"operation_id"`
	Kind        Kind      `json:"kind"`
	Section     string    `json:"section,omitempty"`
	Entry       string    `json:"entry,omitempty"`
	Outcome     Outcome   `json:"outcome"`
	RosterPath  string    `json:"roster_path,omitempty"`
	BackupPath  string    `json:"backup_path,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewOperationID returns a fresh identifier for one CLI invocation.
func NewOperationID() string {
	return uuid.NewString()
}
