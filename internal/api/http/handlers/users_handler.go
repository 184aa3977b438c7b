package handlers

import (
	"net/http"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-service/internal/api/dto"
	"github.com/spec-kit/todo-service/internal/service"
	"github.com/spec-kit/todo-service/internal/validation"
	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

// UsersHandler exposes registration and profile endpoints.
type UsersHandler struct {
	auth       *service.AuthService
	users      *service.UserService
	validators *validation.Set
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, userService *service.UserService, validators *validation.Set) *UsersHandler {
	return &UsersHandler{auth: authService, users: userService, validators: validators}
}

// Register handles POST /api/users.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRequest
	if err := h.validators.User.Validate(c.Body(), &req); err != nil {
		return err
	}
	res, err := h.auth.Register(c.UserContext(), userInput(req))
	if err != nil {
		return err
	}
	return respondWithToken(c, http.StatusCreated, res)
}

// Me handles GET /api/users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.users.Me(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(user)})
}

// GetByID handles GET /api/users/:id.
func (h *UsersHandler) GetByID(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetByID(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": profileResponse(user)})
}

// Update handles PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	identity, err := callerIdentity(c)
	if err != nil {
		return err
	}
	var req dto.UserRequest
	if err := h.validators.User.Validate(c.Body(), &req); err != nil {
		return err
	}
	res, err := h.users.Update(c.UserContext(), identity, c.Params("id"), userInput(req))
	if err != nil {
		return err
	}
	return respondWithToken(c, http.StatusOK, res)
}

// SearchByName handles GET /api/users/reporter/:name.
func (h *UsersHandler) SearchByName(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		return apperrors.NewValidationError(`"name" must be a valid path segment`, map[string]any{"field": "name"})
	}
	users, err := h.users.SearchByName(c.UserContext(), name)
	if err != nil {
		return err
	}
	items := make([]dto.UserSummary, 0, len(users))
	for _, u := range users {
		items = append(items, dto.UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName})
	}
	return c.JSON(fiber.Map{"data": items})
}

func userInput(req dto.UserRequest) service.UserInput {
	return service.UserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
	}
}
