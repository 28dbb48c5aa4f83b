package domain

import "time"

// ChangeOperation describes an accepted board mutation in the activity ledger.
type ChangeOperation string

// ChangeOperation values used by the local activity ledger.
const (
	ChangeOperationAdd        ChangeOperation = "add"
	ChangeOperationRemove     ChangeOperation = "remove"
	ChangeOperationMove       ChangeOperation = "move"
	ChangeOperationUpdate     ChangeOperation = "update"
	ChangeOperationResize     ChangeOperation = "resize"
	ChangeOperationPreference ChangeOperation = "preference"
	ChangeOperationImport     ChangeOperation = "import"
)

// ChangeEvent represents a single activity-log entry for the board.
type ChangeEvent struct {
	ID         string
	Operation  ChangeOperation
	WidgetID   string
	ColumnID   ColumnID
	Source     string
	Metadata   map[string]string
	OccurredAt time.Time
}
