package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-service/internal/api/dto"
	"github.com/spec-kit/todo-service/internal/service"
	"github.com/spec-kit/todo-service/internal/validation"
	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

// TodosHandler manages todo endpoints.
type TodosHandler struct {
	service    *service.TodoService
	validators *validation.Set
}

// NewTodosHandler constructs handler.
func NewTodosHandler(todoService *service.TodoService, validators *validation.Set) *TodosHandler {
	return &TodosHandler{service: todoService, validators: validators}
}

// List GET /api/todos.
func (h *TodosHandler) List(c *fiber.Ctx) error {
	todos, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": todoList(todos)})
}

// ListByReporter GET /api/todos/reporter/:userId.
func (h *TodosHandler) ListByReporter(c *fiber.Ctx) error {
	todos, err := h.service.ListByReporter(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": todoList(todos)})
}

// Get GET /api/todos/:id.
func (h *TodosHandler) Get(c *fiber.Ctx) error {
	todo, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": todoResponse(todo)})
}

// History GET /api/todos/:id/history.
func (h *TodosHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TodoHistoryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.TodoHistoryResponse{
			ID:          e.ID,
			ChangeType:  e.ChangeType,
			ChangedByID: e.ChangedByID,
			OldStatus:   e.OldStatus,
			NewStatus:   e.NewStatus,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Create POST /api/todos.
func (h *TodosHandler) Create(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.TodoRequest
	if err := h.validators.Todo.Validate(c.Body(), &req); err != nil {
		return err
	}
	todo, err := h.service.Create(c.UserContext(), identity, todoInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": todoResponse(todo)})
}

// Update PUT /api/todos/:id.
func (h *TodosHandler) Update(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	id := c.Params("id")
	if !validation.IsIdentifier(id) {
		return apperrors.NewInvalidIdentifier("id")
	}
	var req dto.TodoRequest
	if err := h.validators.Todo.Validate(c.Body(), &req); err != nil {
		return err
	}
	todo, err := h.service.Update(c.UserContext(), identity, id, todoInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": todoResponse(todo)})
}

// ChangeStatus PATCH /api/todos/change-status.
func (h *TodosHandler) ChangeStatus(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := h.validators.TodoStatus.Validate(c.Body(), &req); err != nil {
		return err
	}
	todo, err := h.service.ChangeStatus(c.UserContext(), identity, service.StatusChangeInput{
		TaskID: req.TaskID,
		Status: req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": todoResponse(todo)})
}

// UpdateFavorites PATCH /api/todos/update-favorites.
func (h *TodosHandler) UpdateFavorites(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.UpdateFavoriteRequest
	if err := h.validators.Favorite.Validate(c.Body(), &req); err != nil {
		return err
	}
	todo, err := h.service.UpdateFavorites(c.UserContext(), identity, service.FavoriteInput{
		UserID:     req.UserID,
		TaskID:     req.TaskID,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": todoResponse(todo)})
}

// Delete DELETE /api/todos/:id.
func (h *TodosHandler) Delete(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	todo, err := h.service.Delete(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": todoResponse(todo)})
}

func todoInput(req dto.TodoRequest) service.TodoInput {
	return service.TodoInput{
		Summary:     req.Summary,
		Description: req.Description,
		Status:      req.Status,
		IssueType:   req.IssueType,
		Severity:    req.Severity,
		Priority:    req.Priority,
	}
}
