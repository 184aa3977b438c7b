//go:build integration

package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/persistence"
	"github.com/spec-kit/todo-service/internal/repository"
)

func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("todo_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	return pool
}

func newUser(first, last, email string) *domain.User {
	return &domain.User{
		ID:           uuid.NewString(),
		FirstName:    first,
		LastName:     last,
		Email:        email,
		Phone:        "555-0100",
		PasswordHash: "hash",
		Roles:        domain.DefaultRoles(),
	}
}

func TestPostgresRepositories(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	todos := repository.NewTodoRepository(pool)
	history := repository.NewTodoHistoryRepository(pool)

	ada := newUser("Ada", "Lovelace", "ada@example.com")
	require.NoError(t, users.Create(ctx, ada))
	require.NoError(t, users.Create(ctx, newUser("John", "Smith", "john@example.com")))
	require.NoError(t, users.Create(ctx, newUser("Jane", "Smith_x", "jane@example.com")))

	t.Run("users", func(t *testing.T) {
		err := users.Create(ctx, newUser("Dup", "Dup", "ada@example.com"))
		assert.ErrorIs(t, err, repository.ErrDuplicate)

		got, err := users.GetByEmail(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, ada.ID, got.ID)
		assert.Equal(t, domain.DefaultRoles(), got.Roles)

		_, err = users.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, repository.ErrNotFound)

		found, err := users.SearchByName(ctx, domain.NameQuery{FirstName: "JOHN", LastName: "smi"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "John", found[0].FirstName)

		literal, err := users.SearchByName(ctx, domain.NameQuery{LastName: "h_x"})
		require.NoError(t, err)
		require.Len(t, literal, 1, "underscore must match literally")
	})

	todo := &domain.Todo{
		ID:          uuid.NewString(),
		Summary:     "Login page crashes",
		Description: "Crash on submit",
		Status:      domain.TodoStatusNew,
		IssueType:   domain.IssueTypeBug,
		Severity:    domain.SeverityHigh,
		Priority:    domain.PriorityMajor,
		Reporter:    ada.Snapshot(),
	}
	require.NoError(t, todos.Create(ctx, todo))
	assert.Positive(t, todo.Number)
	assert.Equal(t, int64(1), todo.Version)

	t.Run("optimistic update", func(t *testing.T) {
		stale := *todo
		_, err := todos.UpdateStatus(ctx, todo.ID, domain.TodoStatusFixed)
		require.NoError(t, err)

		stale.Summary = "stale write"
		assert.ErrorIs(t, todos.Update(ctx, &stale), repository.ErrVersionConflict)

		fresh, err := todos.GetByID(ctx, todo.ID)
		require.NoError(t, err)
		fresh.Summary = "fresh write"
		require.NoError(t, todos.Update(ctx, fresh))
		assert.Equal(t, int64(3), fresh.Version)

		missing := *fresh
		missing.ID = uuid.NewString()
		assert.ErrorIs(t, todos.Update(ctx, &missing), repository.ErrNotFound)
	})

	t.Run("concurrent favorites stay a set", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := todos.SetFavorite(ctx, todo.ID, ada.ID, true)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := todos.GetByID(ctx, todo.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{ada.ID}, got.Favorites)

		got, err = todos.SetFavorite(ctx, todo.ID, ada.ID, false)
		require.NoError(t, err)
		assert.Empty(t, got.Favorites)
	})

	t.Run("history and delete", func(t *testing.T) {
		old := domain.TodoStatusNew
		require.NoError(t, history.Create(ctx, &domain.TodoHistory{
			ID: uuid.NewString(), TodoID: todo.ID, ChangedByID: ada.ID,
			ChangeType: domain.ChangeTypeStatus, OldStatus: &old, NewStatus: domain.TodoStatusFixed,
		}))
		entries, err := history.ListByTodo(ctx, todo.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, domain.TodoStatusNew, *entries[0].OldStatus)

		byReporter, err := todos.List(ctx, repository.TodoFilter{ReporterID: &ada.ID})
		require.NoError(t, err)
		assert.Len(t, byReporter, 1)

		require.NoError(t, todos.Delete(ctx, todo.ID))
		assert.ErrorIs(t, todos.Delete(ctx, todo.ID), repository.ErrNotFound)

		entries, err = history.ListByTodo(ctx, todo.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
