package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldOperationID is the standardized key for the per-invocation operation identifier.
	FieldOperationID = "operation_id"
	// FieldSection is the standardized key for roster section names.
	FieldSection = "section"
	// FieldEntry is the standardized key for roster entry tokens.
	FieldEntry = "entry"
	// FieldArchive is the standardized key for archive file names.
	FieldArchive = "archive"
	// FieldPath is the standardized key for filesystem paths.
	FieldPath = "path"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint carries the suggested next step for a failure.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldAlert flags warnings or anomalies that should stand out in structured logs.
	FieldAlert = "alert"
)
