// Package testutil provides in-memory repositories for service and HTTP tests.
package testutil

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/repository"
)

// UserStore is an in-memory repository.UserRepository.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]domain.User
	// Calls counts every repository call, for asserting that no query ran.
	Calls int
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{users: map[string]domain.User{}}
}

func cloneUser(u domain.User) *domain.User {
	u.Roles = slices.Clone(u.Roles)
	return &u
}

func (s *UserStore) Create(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (s *UserStore) Update(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	for _, user := range s.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *UserStore) SearchByName(_ context.Context, q domain.NameQuery) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	var result []domain.User
	for _, user := range s.users {
		if !containsFold(user.FirstName, q.FirstName) || !containsFold(user.LastName, q.LastName) {
			continue
		}
		result = append(result, *cloneUser(user))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].LastName != result[j].LastName {
			return result[i].LastName < result[j].LastName
		}
		return result[i].FirstName < result[j].FirstName
	})
	return result, nil
}

// Delete removes a user, simulating an account that vanished after a token was issued.
func (s *UserStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func containsFold(value, term string) bool {
	return term == "" || strings.Contains(strings.ToLower(value), strings.ToLower(term))
}

// TodoStore is an in-memory repository.TodoRepository.
type TodoStore struct {
	mu     sync.RWMutex
	todos  map[string]domain.Todo
	number int64
	Calls  int
}

// NewTodoStore returns an empty store.
func NewTodoStore() *TodoStore {
	return &TodoStore{todos: map[string]domain.Todo{}}
}

func cloneTodo(t domain.Todo) *domain.Todo {
	t.Favorites = slices.Clone(t.Favorites)
	if t.Favorites == nil {
		t.Favorites = []string{}
	}
	return &t
}

func (s *TodoStore) Create(_ context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	s.number++
	now := time.Now()
	todo.Number = s.number
	todo.Version = 1
	todo.CreatedAt, todo.UpdatedAt = now, now
	if todo.Favorites == nil {
		todo.Favorites = []string{}
	}
	s.todos[todo.ID] = *cloneTodo(*todo)
	return nil
}

func (s *TodoStore) Update(_ context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	stored, ok := s.todos[todo.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != todo.Version {
		return repository.ErrVersionConflict
	}
	stored.Summary = todo.Summary
	stored.Description = todo.Description
	stored.Status = todo.Status
	stored.IssueType = todo.IssueType
	stored.Severity = todo.Severity
	stored.Priority = todo.Priority
	stored.Version++
	stored.UpdatedAt = time.Now()
	s.todos[todo.ID] = stored
	todo.Version, todo.UpdatedAt = stored.Version, stored.UpdatedAt
	return nil
}

func (s *TodoStore) UpdateStatus(_ context.Context, id string, status domain.TodoStatus) (*domain.Todo, error) {
	return s.mutate(id, func(t *domain.Todo) { t.Status = status })
}

func (s *TodoStore) SetFavorite(_ context.Context, id, userID string, favorite bool) (*domain.Todo, error) {
	return s.mutate(id, func(t *domain.Todo) { t.SetFavorite(userID, favorite) })
}

func (s *TodoStore) mutate(id string, fn func(*domain.Todo)) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	stored, ok := s.todos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	todo := cloneTodo(stored)
	fn(todo)
	todo.Version++
	todo.UpdatedAt = time.Now()
	s.todos[id] = *cloneTodo(*todo)
	return todo, nil
}

func (s *TodoStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if _, ok := s.todos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.todos, id)
	return nil
}

func (s *TodoStore) GetByID(_ context.Context, id string) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	todo, ok := s.todos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTodo(todo), nil
}

func (s *TodoStore) List(_ context.Context, filter repository.TodoFilter) ([]domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	result := []domain.Todo{}
	for _, todo := range s.todos {
		if filter.ReporterID != nil && todo.Reporter.ID != *filter.ReporterID {
			continue
		}
		result = append(result, *cloneTodo(todo))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

// HistoryStore is an in-memory repository.TodoHistoryRepository.
type HistoryStore struct {
	mu      sync.Mutex
	entries []domain.TodoHistory
}

// NewHistoryStore returns an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Create(_ context.Context, history *domain.TodoHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	history.CreatedAt = time.Now()
	s.entries = append(s.entries, *history)
	return nil
}

func (s *HistoryStore) ListByTodo(_ context.Context, todoID string) ([]domain.TodoHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []domain.TodoHistory{}
	for _, entry := range s.entries {
		if entry.TodoID == todoID {
			result = append(result, entry)
		}
	}
	return result, nil
}

var (
	_ repository.UserRepository        = (*UserStore)(nil)
	_ repository.TodoRepository        = (*TodoStore)(nil)
	_ repository.TodoHistoryRepository = (*HistoryStore)(nil)
)
