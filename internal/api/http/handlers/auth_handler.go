package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-service/internal/api/dto"
	"github.com/spec-kit/todo-service/internal/service"
	"github.com/spec-kit/todo-service/internal/validation"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth       *service.AuthService
	validators *validation.Set
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validators *validation.Set) *AuthHandler {
	return &AuthHandler{auth: authService, validators: validators}
}

// Login handles POST /api/auth.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.validators.Login.Validate(c.Body(), &req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return respondWithToken(c, fiber.StatusOK, res)
}
