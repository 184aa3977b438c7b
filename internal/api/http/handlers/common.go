package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-service/internal/api/dto"
	"github.com/spec-kit/todo-service/internal/auth"
	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/service"
	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

func callerIdentity(c *fiber.Ctx) (auth.Identity, error) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return auth.Identity{}, apperrors.NewUnauthenticated("access denied. no token provided")
	}
	return identity, nil
}

// respondWithToken sets the token header and writes the user with its token.
func respondWithToken(c *fiber.Ctx, status int, res *service.AuthResult) error {
	c.Set(auth.TokenHeader, res.Token)
	return c.Status(status).JSON(fiber.Map{
		"data": fiber.Map{
			"user": userResponse(res.User),
			"auth": dto.AuthResponse{Token: res.Token, ExpiresAt: res.ExpiresAt},
		},
	})
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Roles:     u.Roles,
	}
}

func profileResponse(u *domain.User) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Roles:     u.Roles,
	}
}

func todoResponse(t *domain.Todo) dto.TodoResponse {
	favorites := t.Favorites
	if favorites == nil {
		favorites = []string{}
	}
	return dto.TodoResponse{
		ID:          t.ID,
		TodoID:      t.Number,
		Summary:     t.Summary,
		Description: t.Description,
		Status:      t.Status,
		IssueType:   t.IssueType,
		Severity:    t.Severity,
		Priority:    t.Priority,
		Reporter: dto.ReporterResponse{
			ID:        t.Reporter.ID,
			FirstName: t.Reporter.FirstName,
			LastName:  t.Reporter.LastName,
		},
		Favorites: favorites,
		Version:   t.Version,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func todoList(todos []domain.Todo) []dto.TodoResponse {
	items := make([]dto.TodoResponse, 0, len(todos))
	for i := range todos {
		items = append(items, todoResponse(&todos[i]))
	}
	return items
}
