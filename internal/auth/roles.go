package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/todo-service/internal/domain"
	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

// RequireRole ensures the authenticated caller holds role. It must run after
// AuthMiddleware.Handle.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("access denied. no token provided")
		}
		if !domain.HasRole(identity.Roles, role) {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}

// RequireCapability ensures one of the caller's roles grants capability.
func RequireCapability(capability domain.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("access denied. no token provided")
		}
		if !identity.Can(capability) {
			return apperrors.NewForbidden("access denied")
		}
		return c.Next()
	}
}
