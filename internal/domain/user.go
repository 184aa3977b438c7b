package domain

import "time"

// User is the domain model for account holders who report and work on todos.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot captures the reporter fields copied onto a todo.
func (u *User) Snapshot() ReporterSnapshot {
	return ReporterSnapshot{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

// NameQuery selects users by case-insensitive name substrings. Empty fields are
// unconstrained.
type NameQuery struct {
	FirstName string
	LastName  string
}
