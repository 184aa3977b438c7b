package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-service/internal/auth"
	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/events"
	"github.com/spec-kit/todo-service/internal/repository"
	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

// TodoService coordinates todo workflows.
type TodoService struct {
	todos      repository.TodoRepository
	users      repository.UserRepository
	history    repository.TodoHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TodoDependencies bundles collaborators for the todo service.
type TodoDependencies struct {
	TodoRepo    repository.TodoRepository
	UserRepo    repository.UserRepository
	HistoryRepo repository.TodoHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TodoInput holds the mutable fields replaced on create and full update.
type TodoInput struct {
	Summary     string
	Description string
	Status      domain.TodoStatus
	IssueType   domain.IssueType
	Severity    domain.Severity
	Priority    domain.Priority
}

// StatusChangeInput targets a single todo's status.
type StatusChangeInput struct {
	TaskID string
	Status domain.TodoStatus
}

// FavoriteInput sets or clears a user's favorite flag on a todo.
type FavoriteInput struct {
	UserID     string
	TaskID     string
	IsFavorite bool
}

// NewTodoService builds the service.
func NewTodoService(deps TodoDependencies) *TodoService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TodoService{
		todos:      deps.TodoRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// List returns every todo ordered by number.
func (s *TodoService) List(ctx context.Context) ([]domain.Todo, error) {
	todos, err := s.todos.List(ctx, repository.TodoFilter{})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return todos, nil
}

// ListByReporter returns the todos whose reporter snapshot carries userID.
func (s *TodoService) ListByReporter(ctx context.Context, userID string) ([]domain.Todo, error) {
	if err := requireIdentifier("userId", userID); err != nil {
		return nil, err
	}
	todos, err := s.todos.List(ctx, repository.TodoFilter{ReporterID: &userID})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return todos, nil
}

// Get fetches a todo by id.
func (s *TodoService) Get(ctx context.Context, id string) (*domain.Todo, error) {
	if err := requireIdentifier("id", id); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// History lists the status changes recorded for a todo, oldest first.
func (s *TodoService) History(ctx context.Context, id string) ([]domain.TodoHistory, error) {
	if err := requireIdentifier("id", id); err != nil {
		return nil, err
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByTodo(ctx, id)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

// Create stores a new todo with the caller as reporter.
func (s *TodoService) Create(ctx context.Context, actor auth.Identity, in TodoInput) (*domain.Todo, error) {
	user, err := s.resolveActor(ctx, actor)
	if err != nil {
		return nil, err
	}

	todo := &domain.Todo{
		ID:        uuid.NewString(),
		Reporter:  user.Snapshot(),
		Favorites: []string{},
	}
	in.apply(todo)
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.recordHistory(ctx, todo.ID, actor.UserID, domain.ChangeTypeCreated, nil, todo.Status)
	s.publish(ctx, events.NewEvent(events.EventTodoCreated, todo.ID, actor.UserID, events.TodoCreatedPayload{
		Number:   todo.Number,
		Summary:  todo.Summary,
		Status:   todo.Status,
		Priority: todo.Priority,
		Severity: todo.Severity,
	}))
	return todo, nil
}

// Update replaces every mutable field. Only the reporter may do this, and the
// write fails with a conflict if the todo changed since it was read.
func (s *TodoService) Update(ctx context.Context, actor auth.Identity, id string, in TodoInput) (*domain.Todo, error) {
	if err := requireIdentifier("id", id); err != nil {
		return nil, err
	}
	todo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveActor(ctx, actor); err != nil {
		return nil, err
	}
	if !todo.IsReportedBy(actor.UserID) {
		return nil, apperrors.NewForbidden("only the reporter may edit this todo")
	}

	oldStatus := todo.Status
	in.apply(todo)
	if err := s.todos.Update(ctx, todo); err != nil {
		switch {
		case errors.Is(err, repository.ErrVersionConflict):
			return nil, apperrors.NewConflict("the todo was modified concurrently; reload and retry",
				map[string]any{"id": id})
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewNotFound("todo", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	if oldStatus != todo.Status {
		s.statusChanged(ctx, todo, actor.UserID, oldStatus)
	}
	s.publish(ctx, events.NewEvent(events.EventTodoUpdated, todo.ID, actor.UserID,
		events.TodoUpdatedPayload{Version: todo.Version}))
	return todo, nil
}

// ChangeStatus sets only the status. Any authenticated user may do this.
func (s *TodoService) ChangeStatus(ctx context.Context, actor auth.Identity, in StatusChangeInput) (*domain.Todo, error) {
	if err := requireIdentifier("taskId", in.TaskID); err != nil {
		return nil, err
	}
	current, err := s.load(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveActor(ctx, actor); err != nil {
		return nil, err
	}

	todo, err := s.todos.UpdateStatus(ctx, in.TaskID, in.Status)
	if err != nil {
		return nil, notFoundOr(err, "todo")
	}
	if current.Status != todo.Status {
		s.statusChanged(ctx, todo, actor.UserID, current.Status)
	}
	return todo, nil
}

// UpdateFavorites adds or removes the caller from a todo's favorites.
// Repeating the same call leaves the set unchanged.
func (s *TodoService) UpdateFavorites(ctx context.Context, actor auth.Identity, in FavoriteInput) (*domain.Todo, error) {
	if err := requireIdentifier("userId", in.UserID); err != nil {
		return nil, err
	}
	if err := requireIdentifier("taskId", in.TaskID); err != nil {
		return nil, err
	}
	if in.UserID != actor.UserID {
		return nil, apperrors.NewForbidden("favorites can only be changed for yourself")
	}
	if _, err := s.load(ctx, in.TaskID); err != nil {
		return nil, err
	}
	if _, err := s.resolveActor(ctx, actor); err != nil {
		return nil, err
	}

	todo, err := s.todos.SetFavorite(ctx, in.TaskID, in.UserID, in.IsFavorite)
	if err != nil {
		return nil, notFoundOr(err, "todo")
	}
	s.publish(ctx, events.NewEvent(events.EventTodoFavoriteChanged, todo.ID, actor.UserID,
		events.TodoFavoriteChangedPayload{UserID: in.UserID, IsFavorite: in.IsFavorite}))
	return todo, nil
}

// Delete removes a todo and returns it. Only the reporter may do this.
func (s *TodoService) Delete(ctx context.Context, actor auth.Identity, id string) (*domain.Todo, error) {
	if err := requireIdentifier("id", id); err != nil {
		return nil, err
	}
	todo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveActor(ctx, actor); err != nil {
		return nil, err
	}
	if !todo.IsReportedBy(actor.UserID) {
		return nil, apperrors.NewForbidden("only the reporter may delete this todo")
	}

	if err := s.todos.Delete(ctx, id); err != nil {
		return nil, notFoundOr(err, "todo")
	}
	s.publish(ctx, events.NewEvent(events.EventTodoDeleted, todo.ID, actor.UserID,
		events.TodoDeletedPayload{Number: todo.Number}))
	return todo, nil
}

func (s *TodoService) load(ctx context.Context, id string) (*domain.Todo, error) {
	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "todo")
	}
	return todo, nil
}

// resolveActor loads the caller's user record; a token whose user no longer
// exists yields UserNotFound.
func (s *TodoService) resolveActor(ctx context.Context, actor auth.Identity) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUserNotFound()
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *TodoService) statusChanged(ctx context.Context, todo *domain.Todo, actorID string, old domain.TodoStatus) {
	s.recordHistory(ctx, todo.ID, actorID, domain.ChangeTypeStatus, &old, todo.Status)
	s.publish(ctx, events.NewEvent(events.EventTodoStatusChanged, todo.ID, actorID,
		events.TodoStatusChangedPayload{OldStatus: old, NewStatus: todo.Status}))
}

// recordHistory appends an audit entry. The todo write has already committed,
// so a failure here is logged rather than returned.
func (s *TodoService) recordHistory(ctx context.Context, todoID, actorID string, change domain.TodoChangeType, old *domain.TodoStatus, status domain.TodoStatus) {
	if s.history == nil {
		return
	}
	entry := &domain.TodoHistory{
		ID:          uuid.NewString(),
		TodoID:      todoID,
		ChangedByID: actorID,
		ChangeType:  change,
		OldStatus:   old,
		NewStatus:   status,
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Error("record todo history", zap.String("todo_id", todoID), zap.Error(err))
	}
}

func (s *TodoService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func (in TodoInput) apply(todo *domain.Todo) {
	todo.Summary = in.Summary
	todo.Description = in.Description
	todo.Status = in.Status
	todo.IssueType = in.IssueType
	todo.Severity = in.Severity
	todo.Priority = in.Priority
}
