package domain

import (
	"slices"
	"time"
)

// TodoStatus enumerates lifecycle states for todos. The order below is the
// conceptual workflow; any value may be set at any time.
type TodoStatus string

const (
	TodoStatusNew                 TodoStatus = "new"
	TodoStatusBusinessRequirement TodoStatus = "business-requirement"
	TodoStatusInDevelopment       TodoStatus = "in-development"
	TodoStatusFixed               TodoStatus = "fixed"
	TodoStatusStagingQA           TodoStatus = "staging-qa"
	TodoStatusReadyForDeploy      TodoStatus = "ready-for-deploy"
	TodoStatusProductionQA        TodoStatus = "production-qa"
	TodoStatusClosed              TodoStatus = "closed"
	TodoStatusRejected            TodoStatus = "rejected"
)

// IssueType classifies the kind of work a todo represents.
type IssueType string

const (
	IssueTypeNewDevelopment  IssueType = "new-development"
	IssueTypeIntegration     IssueType = "integration"
	IssueTypeBug             IssueType = "bug"
	IssueTypeBusinessRequest IssueType = "business-request"
)

// Severity expresses impact.
type Severity string

const (
	SeverityVeryLow  Severity = "very-low"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityVeryHigh Severity = "very-high"
)

// Priority expresses urgency.
type Priority string

const (
	PriorityVeryLow  Priority = "very-low"
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityMajor    Priority = "major"
	PriorityCritical Priority = "critical"
)

// TodoStatuses lists every status in workflow order.
func TodoStatuses() []TodoStatus {
	return []TodoStatus{
		TodoStatusNew,
		TodoStatusBusinessRequirement,
		TodoStatusInDevelopment,
		TodoStatusFixed,
		TodoStatusStagingQA,
		TodoStatusReadyForDeploy,
		TodoStatusProductionQA,
		TodoStatusClosed,
		TodoStatusRejected,
	}
}

// IssueTypes lists every issue type.
func IssueTypes() []IssueType {
	return []IssueType{IssueTypeNewDevelopment, IssueTypeIntegration, IssueTypeBug, IssueTypeBusinessRequest}
}

// Severities lists severities from lowest to highest.
func Severities() []Severity {
	return []Severity{SeverityVeryLow, SeverityLow, SeverityMedium, SeverityHigh, SeverityVeryHigh}
}

// Priorities lists priorities from lowest to highest.
func Priorities() []Priority {
	return []Priority{PriorityVeryLow, PriorityLow, PriorityMedium, PriorityMajor, PriorityCritical}
}

// Valid reports whether s is a known status.
func (s TodoStatus) Valid() bool {
	return slices.Contains(TodoStatuses(), s)
}

// ReporterSnapshot is a copy of the creating user's identity taken at creation
// time. It is never refreshed from the user record.
type ReporterSnapshot struct {
	ID        string
	FirstName string
	LastName  string
}

// Todo is the aggregate for tracked work items.
type Todo struct {
	ID          string
	Number      int64
	Summary     string
	Description string
	Status      TodoStatus
	IssueType   IssueType
	Severity    Severity
	Priority    Priority
	Reporter    ReporterSnapshot
	Favorites   []string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsReportedBy reports whether userID created the todo.
func (t *Todo) IsReportedBy(userID string) bool {
	return t.Reporter.ID == userID
}

// IsFavoriteOf reports whether userID has favorited the todo.
func (t *Todo) IsFavoriteOf(userID string) bool {
	return slices.Contains(t.Favorites, userID)
}

// SetFavorite adds or removes userID from the favorites set. Adding an existing
// member is a no-op.
func (t *Todo) SetFavorite(userID string, favorite bool) {
	if favorite {
		if !t.IsFavoriteOf(userID) {
			t.Favorites = append(t.Favorites, userID)
		}
		return
	}
	t.Favorites = slices.DeleteFunc(t.Favorites, func(id string) bool { return id == userID })
}
