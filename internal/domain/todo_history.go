package domain

import "time"

// TodoChangeType captures what changed in a history entry.
type TodoChangeType string

const (
	ChangeTypeCreated TodoChangeType = "CREATED"
	ChangeTypeStatus  TodoChangeType = "STATUS_CHANGE"
)

// TodoHistory is an immutable audit trail entry.
type TodoHistory struct {
	ID          string
	TodoID      string
	ChangedByID string
	ChangeType  TodoChangeType
	OldStatus   *TodoStatus
	NewStatus   TodoStatus
	CreatedAt   time.Time
}
