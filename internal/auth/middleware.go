package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

// TokenHeader carries the token on requests and on login/registration responses.
const TokenHeader = "x-auth-token"

const identityKey = "auth_identity"

// AuthMiddleware validates tokens and stores the caller identity on the request.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	raw := extractToken(c)
	if raw == "" {
		return apperrors.NewUnauthenticated("access denied. no token provided")
	}

	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return apperrors.NewInvalidToken("invalid token")
	}

	c.Locals(identityKey, claims.Identity())
	return c.Next()
}

// extractToken prefers the x-auth-token header and falls back to a bearer
// Authorization header.
func extractToken(c *fiber.Ctx) string {
	if token := strings.TrimSpace(c.Get(TokenHeader)); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// IdentityFromContext retrieves the authenticated caller.
func IdentityFromContext(c *fiber.Ctx) (Identity, bool) {
	identity, ok := c.Locals(identityKey).(Identity)
	return identity, ok
}
