package dto

import (
	"time"

	"github.com/spec-kit/todo-service/internal/domain"
)

// TodoRequest payload for create and full update.
type TodoRequest struct {
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	Status      domain.TodoStatus `json:"status"`
	IssueType   domain.IssueType  `json:"issueType"`
	Severity    domain.Severity   `json:"severity"`
	Priority    domain.Priority   `json:"priority"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TodoStatus `json:"status"`
	TaskID string            `json:"taskId"`
}

// UpdateFavoriteRequest payload.
type UpdateFavoriteRequest struct {
	UserID     string `json:"userId"`
	TaskID     string `json:"taskId"`
	IsFavorite bool   `json:"isFavorite"`
}

// ReporterResponse is the reporter snapshot stored on a todo.
type ReporterResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// TodoResponse provides full todo info.
type TodoResponse struct {
	ID          string            `json:"id"`
	TodoID      int64             `json:"todoId"`
	Summary     string            `json:"summary"`
	Description string            `json:"description"`
	Status      domain.TodoStatus `json:"status"`
	IssueType   domain.IssueType  `json:"issueType"`
	Severity    domain.Severity   `json:"severity"`
	Priority    domain.Priority   `json:"priority"`
	Reporter    ReporterResponse  `json:"reporter"`
	Favorites   []string          `json:"favorites"`
	Version     int64             `json:"version"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// TodoHistoryResponse is one audit entry.
type TodoHistoryResponse struct {
	ID          string                `json:"id"`
	ChangeType  domain.TodoChangeType `json:"changeType"`
	ChangedByID string                `json:"changedById"`
	OldStatus   *domain.TodoStatus    `json:"oldStatus"`
	NewStatus   domain.TodoStatus     `json:"newStatus"`
	CreatedAt   time.Time             `json:"createdAt"`
}
