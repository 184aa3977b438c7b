package validation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/spec-kit/todo-service/internal/domain"
)

const (
	NameMinLength        = 2
	NameMaxLength        = 30
	EmailMinLength       = 5
	EmailMaxLength       = 255
	PhoneMinLength       = 5
	PhoneMaxLength       = 50
	PasswordMinLength    = 5
	PasswordMaxLength    = 72
	PasswordMaxBytes     = 72 // bcrypt input limit
	SummaryMinLength     = 2
	SummaryMaxLength     = 255
	DescriptionMinLength = 2
	DescriptionMaxLength = 10000
)

// Set holds every payload validator the API uses. Build it once at startup.
type Set struct {
	User       *Validator
	Login      *Validator
	Todo       *Validator
	TodoStatus *Validator
	Favorite   *Validator
}

// NewSet compiles all validators.
func NewSet() (*Set, error) {
	var (
		set Set
		err error
	)
	if set.User, err = New("user",
		Rule{Name: "firstName", Required: true, Schema: stringLen(NameMinLength, NameMaxLength)},
		Rule{Name: "lastName", Required: true, Schema: stringLen(NameMinLength, NameMaxLength)},
		Rule{Name: "email", Required: true, Schema: email()},
		Rule{Name: "phone", Required: true, Schema: stringLen(PhoneMinLength, PhoneMaxLength)},
		Rule{Name: "password", Required: true, Schema: stringLen(PasswordMinLength, PasswordMaxLength), MaxBytes: PasswordMaxBytes},
	); err != nil {
		return nil, err
	}
	if set.Login, err = New("login",
		Rule{Name: "email", Required: true, Schema: email()},
		Rule{Name: "password", Required: true, Schema: stringLen(PasswordMinLength, PasswordMaxLength)},
	); err != nil {
		return nil, err
	}
	if set.Todo, err = New("todo",
		Rule{Name: "summary", Required: true, Schema: stringLen(SummaryMinLength, SummaryMaxLength)},
		Rule{Name: "description", Required: true, Schema: stringLen(DescriptionMinLength, DescriptionMaxLength)},
		Rule{Name: "status", Required: true, Schema: oneOf(domain.TodoStatuses())},
		Rule{Name: "issueType", Required: true, Schema: oneOf(domain.IssueTypes())},
		Rule{Name: "severity", Required: true, Schema: oneOf(domain.Severities())},
		Rule{Name: "priority", Required: true, Schema: oneOf(domain.Priorities())},
	); err != nil {
		return nil, err
	}
	if set.TodoStatus, err = New("todo-status",
		Rule{Name: "status", Required: true, Schema: oneOf(domain.TodoStatuses())},
		Rule{Name: "taskId", Required: true, Schema: nonEmptyString()},
	); err != nil {
		return nil, err
	}
	if set.Favorite, err = New("favorite",
		Rule{Name: "userId", Required: true, Schema: nonEmptyString()},
		Rule{Name: "taskId", Required: true, Schema: nonEmptyString()},
		Rule{Name: "isFavorite", Required: true, Schema: map[string]any{"type": "boolean"}},
	); err != nil {
		return nil, err
	}
	return &set, nil
}

// MustNewSet is NewSet for process start-up and tests.
func MustNewSet() *Set {
	set, err := NewSet()
	if err != nil {
		panic(fmt.Sprintf("validation: %v", err))
	}
	return set
}

// IsIdentifier reports whether s is a well-formed entity identifier.
func IsIdentifier(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func stringLen(min, max int) map[string]any {
	return map[string]any{"type": "string", "minLength": min, "maxLength": max}
}

func nonEmptyString() map[string]any {
	return map[string]any{"type": "string", "minLength": 1}
}

func email() map[string]any {
	return map[string]any{
		"type":      "string",
		"minLength": EmailMinLength,
		"maxLength": EmailMaxLength,
		"format":    "email",
	}
}

func oneOf[T ~string](values []T) map[string]any {
	enum := make([]string, 0, len(values))
	for _, v := range values {
		enum = append(enum, string(v))
	}
	return map[string]any{"type": "string", "enum": enum}
}
