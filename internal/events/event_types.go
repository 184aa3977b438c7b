package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/todo-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTodoCreated         EventType = "todo_created"
	EventTodoUpdated         EventType = "todo_updated"
	EventTodoStatusChanged   EventType = "todo_status_changed"
	EventTodoFavoriteChanged EventType = "todo_favorite_changed"
	EventTodoDeleted         EventType = "todo_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TodoID    string    `json:"todo_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps a new event with an id and the current time.
func NewEvent(eventType EventType, todoID, actorID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TodoID:    todoID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TodoCreatedPayload payload.
type TodoCreatedPayload struct {
	Number   int64             `json:"number"`
	Summary  string            `json:"summary"`
	Status   domain.TodoStatus `json:"status"`
	Priority domain.Priority   `json:"priority"`
	Severity domain.Severity   `json:"severity"`
}

// TodoUpdatedPayload payload.
type TodoUpdatedPayload struct {
	Version int64 `json:"version"`
}

// TodoStatusChangedPayload payload.
type TodoStatusChangedPayload struct {
	OldStatus domain.TodoStatus `json:"old_status"`
	NewStatus domain.TodoStatus `json:"new_status"`
}

// TodoFavoriteChangedPayload payload.
type TodoFavoriteChangedPayload struct {
	UserID     string `json:"user_id"`
	IsFavorite bool   `json:"is_favorite"`
}

// TodoDeletedPayload payload.
type TodoDeletedPayload struct {
	Number int64 `json:"number"`
}
