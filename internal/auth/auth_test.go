package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/todo-service/internal/domain"
	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	identity := Identity{UserID: "5b7c2f0e-1111-4c1e-9a55-2b8f5f3f0a01", Email: "ada@example.com", Roles: []domain.Role{domain.RoleUser}}

	token, exp, err := tm.GenerateToken(identity)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, identity, claims.Identity())
	assert.Equal(t, identity.UserID, claims.Subject)
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(Identity{UserID: "u1", Roles: domain.DefaultRoles()})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewTokenManager("other", 5).ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("tampered payload", func(t *testing.T) {
		other, _, err := tm.GenerateToken(Identity{UserID: "u2", Roles: domain.DefaultRoles()})
		require.NoError(t, err)
		a := strings.Split(token, ".")
		b := strings.Split(other, ".")
		require.Len(t, a, 3)
		require.Len(t, b, 3)
		_, err = tm.ParseToken(a[0] + "." + b[1] + "." + a[2])
		assert.Error(t, err)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := tm.ParseToken("not-a-jwt")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		expired := &TokenManager{secret: []byte("secret"), ttl: -time.Minute}
		old, _, err := expired.GenerateToken(Identity{UserID: "u1"})
		require.NoError(t, err)
		_, err = tm.ParseToken(old)
		assert.Error(t, err)
	})

	t.Run("missing subject", func(t *testing.T) {
		anon, _, err := tm.GenerateToken(Identity{})
		require.NoError(t, err)
		_, err = tm.ParseToken(anon)
		assert.Error(t, err)
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, ComparePassword(hash, "s3cret!"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrPasswordMismatch)

	other, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes are salted")

	_, err = HashPassword(strings.Repeat("é", 37), 4)
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

// newGuardedApp mounts the auth middleware plus optional guards in front of an
// endpoint echoing the caller identity.
func newGuardedApp(tm *TokenManager, guards ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"code": de.Code})
		},
	})
	handlers := []fiber.Handler{NewAuthMiddleware(tm).Handle}
	handlers = append(handlers, guards...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return fiber.ErrInternalServerError
		}
		return c.JSON(fiber.Map{"uid": identity.UserID})
	})
	app.Get("/protected", handlers...)
	return app
}

func doRequest(t *testing.T, app *fiber.App, headers map[string]string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return resp.StatusCode, body
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	app := newGuardedApp(tm)
	token, _, err := tm.GenerateToken(Identity{UserID: "u1", Roles: domain.DefaultRoles()})
	require.NoError(t, err)

	t.Run("missing token is unauthenticated", func(t *testing.T) {
		status, body := doRequest(t, app, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, apperrors.CodeUnauthenticated, body["code"])
	})

	t.Run("invalid token", func(t *testing.T) {
		status, body := doRequest(t, app, map[string]string{TokenHeader: "garbage"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, apperrors.CodeInvalidToken, body["code"])
	})

	t.Run("token header", func(t *testing.T) {
		status, body := doRequest(t, app, map[string]string{TokenHeader: token})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "u1", body["uid"])
	})

	t.Run("bearer fallback", func(t *testing.T) {
		status, body := doRequest(t, app, map[string]string{"Authorization": "Bearer " + token})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "u1", body["uid"])
	})

	t.Run("non bearer authorization is ignored", func(t *testing.T) {
		status, _ := doRequest(t, app, map[string]string{"Authorization": "Basic dXNlcjpwYXNz"})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestRoleGuards(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	userToken, _, err := tm.GenerateToken(Identity{UserID: "u1", Roles: []domain.Role{domain.RoleUser}})
	require.NoError(t, err)
	bareToken, _, err := tm.GenerateToken(Identity{UserID: "u2"})
	require.NoError(t, err)

	t.Run("require role", func(t *testing.T) {
		app := newGuardedApp(tm, RequireRole(domain.RoleAdmin))
		status, body := doRequest(t, app, map[string]string{TokenHeader: userToken})
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, apperrors.CodeForbidden, body["code"])

		app = newGuardedApp(tm, RequireRole(domain.RoleUser))
		status, _ = doRequest(t, app, map[string]string{TokenHeader: userToken})
		assert.Equal(t, http.StatusOK, status)
	})

	t.Run("require capability", func(t *testing.T) {
		app := newGuardedApp(tm, RequireCapability(domain.CapabilityTodoWrite))
		status, _ := doRequest(t, app, map[string]string{TokenHeader: userToken})
		assert.Equal(t, http.StatusOK, status)

		status, _ = doRequest(t, app, map[string]string{TokenHeader: bareToken})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("guard without authentication", func(t *testing.T) {
		app := fiber.New(fiber.Config{
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				return c.SendStatus(apperrors.ToDomainError(err).HTTPStatus)
			},
		})
		app.Get("/protected", RequireCapability(domain.CapabilityTodoRead), func(c *fiber.Ctx) error {
			return c.SendStatus(http.StatusOK)
		})
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/protected", nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}
