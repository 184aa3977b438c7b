package service

import (
	"context"
	"errors"
	"strings"

	"github.com/spec-kit/todo-service/internal/auth"
	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/repository"
	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

// UserService serves profile reads, self-service updates and name search.
type UserService struct {
	users repository.UserRepository
	auth  *AuthService
}

// NewUserService builds the service. Updates re-issue tokens through authService.
func NewUserService(users repository.UserRepository, authService *AuthService) *UserService {
	return &UserService{users: users, auth: authService}
}

// Me returns the caller's own record.
func (s *UserService) Me(ctx context.Context, actor auth.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}

// GetByID returns the record for id, which must be the caller's.
func (s *UserService) GetByID(ctx context.Context, actor auth.Identity, id string) (*domain.User, error) {
	if err := requireIdentifier("id", id); err != nil {
		return nil, err
	}
	if id != actor.UserID {
		return nil, apperrors.NewForbidden("access denied")
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	return user, nil
}

// Update replaces the caller's profile and issues a new token. The password is
// re-hashed on every update.
func (s *UserService) Update(ctx context.Context, actor auth.Identity, id string, in UserInput) (*AuthResult, error) {
	if err := requireIdentifier("id", id); err != nil {
		return nil, err
	}
	if id != actor.UserID {
		return nil, apperrors.NewForbidden("access denied")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}

	email := normalizeEmail(in.Email)
	if email != user.Email {
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return nil, apperrors.NewDuplicateEmail(email)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewInternalError(err)
		}
	}

	hash, err := hashPassword(in.Password, s.auth.bcryptCost)
	if err != nil {
		return nil, err
	}

	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = email
	user.Phone = in.Phone
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, apperrors.NewDuplicateEmail(email)
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFound("user", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}
	return s.auth.issue(user)
}

// SearchByName finds users by name. "John Smith" matches first name John and
// last name Smith; a single word matches either name.
func (s *UserService) SearchByName(ctx context.Context, term string) ([]domain.User, error) {
	words := strings.Fields(term)
	if len(words) == 0 {
		return nil, apperrors.NewValidationError(`"name" is not allowed to be empty`, map[string]any{"field": "name"})
	}

	var (
		users []domain.User
		err   error
	)
	if len(words) > 1 {
		users, err = s.users.SearchByName(ctx, domain.NameQuery{
			FirstName: words[0],
			LastName:  strings.Join(words[1:], " "),
		})
	} else {
		users, err = s.searchEitherName(ctx, words[0])
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if len(users) == 0 {
		return nil, apperrors.NewNotFound("user", map[string]any{"name": term})
	}
	return users, nil
}

func (s *UserService) searchEitherName(ctx context.Context, word string) ([]domain.User, error) {
	byFirst, err := s.users.SearchByName(ctx, domain.NameQuery{FirstName: word})
	if err != nil {
		return nil, err
	}
	byLast, err := s.users.SearchByName(ctx, domain.NameQuery{LastName: word})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(byFirst))
	for _, u := range byFirst {
		seen[u.ID] = struct{}{}
	}
	for _, u := range byLast {
		if _, ok := seen[u.ID]; !ok {
			byFirst = append(byFirst, u)
		}
	}
	return byFirst, nil
}
