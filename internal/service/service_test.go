package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-service/internal/auth"
	"github.com/spec-kit/todo-service/internal/config"
	"github.com/spec-kit/todo-service/internal/domain"
	"github.com/spec-kit/todo-service/internal/events"
	"github.com/spec-kit/todo-service/internal/observability"
	"github.com/spec-kit/todo-service/internal/repository"
	"github.com/spec-kit/todo-service/internal/testutil"
	apperrors "github.com/spec-kit/todo-service/pkg/util/errorutil"
)

type fixture struct {
	users      *testutil.UserStore
	todos      *testutil.TodoStore
	history    *testutil.HistoryStore
	dispatcher events.Dispatcher
	auth       *AuthService
	profiles   *UserService
	todoSvc    *TodoService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:      testutil.NewUserStore(),
		todos:      testutil.NewTodoStore(),
		history:    testutil.NewHistoryStore(),
		dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
	}
	f.auth = NewAuthService(config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 5, BcryptCost: 4}, f.users)
	f.profiles = NewUserService(f.users, f.auth)
	f.todoSvc = NewTodoService(TodoDependencies{
		TodoRepo:    f.todos,
		UserRepo:    f.users,
		HistoryRepo: f.history,
		Dispatcher:  f.dispatcher,
		Logger:      zap.NewNop(),
	})
	return f
}

func (f *fixture) register(t *testing.T, first, last, email string) auth.Identity {
	t.Helper()
	res, err := f.auth.Register(context.Background(), UserInput{
		FirstName: first, LastName: last, Email: email, Phone: "555-0100", Password: "secret1",
	})
	require.NoError(t, err)
	return auth.Identity{UserID: res.User.ID, Email: res.User.Email, Roles: res.User.Roles}
}

func sampleTodo() TodoInput {
	return TodoInput{
		Summary:     "Login page crashes",
		Description: "Crash on submit",
		Status:      domain.TodoStatusNew,
		IssueType:   domain.IssueTypeBug,
		Severity:    domain.SeverityHigh,
		Priority:    domain.PriorityMajor,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Truef(t, apperrors.Is(err, code), "expected %s, got %v", code, err)
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.auth.Register(ctx, UserInput{
		FirstName: "Ada", LastName: "Lovelace", Email: " Ada@Example.com ", Phone: "555-0100", Password: "secret1",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", reg.User.Email)
	assert.Equal(t, domain.DefaultRoles(), reg.User.Roles)
	assert.NotEqual(t, "secret1", reg.User.PasswordHash)

	login, err := f.auth.Login(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	claims, err := f.auth.TokenManager().ParseToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, claims.UserID)
	assert.Equal(t, reg.User.Roles, claims.Roles)
}

func TestAuthService_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ada", "Lovelace", "ada@example.com")

	_, err := f.auth.Register(context.Background(), UserInput{
		FirstName: "Other", LastName: "Person", Email: "ADA@example.com", Phone: "555-0101", Password: "secret2",
	})
	assertCode(t, err, apperrors.CodeDuplicateEmail)
}

func TestAuthService_LoginFailures(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Ada", "Lovelace", "ada@example.com")

	_, err := f.auth.Login(context.Background(), "ada@example.com", "wrong")
	assertCode(t, err, apperrors.CodeInvalidCredentials)

	_, err = f.auth.Login(context.Background(), "nobody@example.com", "secret1")
	assertCode(t, err, apperrors.CodeInvalidCredentials)
}

func TestAuthService_MultibytePasswords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fits := strings.Repeat("é", 36)
	reg, err := f.auth.Register(ctx, UserInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0100", Password: fits,
	})
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, "ada@example.com", fits)
	require.NoError(t, err)

	tooLong := strings.Repeat("é", 72)
	_, err = f.auth.Register(ctx, UserInput{
		FirstName: "Bob", LastName: "Builder", Email: "bob@example.com", Phone: "555-0101", Password: tooLong,
	})
	assertCode(t, err, apperrors.CodeValidation)

	ada := auth.Identity{UserID: reg.User.ID, Email: reg.User.Email, Roles: reg.User.Roles}
	_, err = f.profiles.Update(ctx, ada, ada.UserID, UserInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0100", Password: tooLong,
	})
	assertCode(t, err, apperrors.CodeValidation)

	_, err = f.auth.Login(ctx, "ada@example.com", fits)
	assert.NoError(t, err, "rejected update leaves the password untouched")
}

func TestUserService_SelfOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")
	bob := f.register(t, "Bob", "Builder", "bob@example.com")

	me, err := f.profiles.GetByID(ctx, ada, ada.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", me.FirstName)

	_, err = f.profiles.GetByID(ctx, ada, bob.UserID)
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.profiles.Update(ctx, ada, bob.UserID, UserInput{FirstName: "X", LastName: "Y", Email: "x@example.com", Phone: "55555", Password: "secret"})
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestUserService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")
	f.register(t, "Bob", "Builder", "bob@example.com")

	_, err := f.profiles.Update(ctx, ada, ada.UserID, UserInput{
		FirstName: "Ada", LastName: "Lovelace", Email: "bob@example.com", Phone: "555-0100", Password: "secret1",
	})
	assertCode(t, err, apperrors.CodeDuplicateEmail)

	res, err := f.profiles.Update(ctx, ada, ada.UserID, UserInput{
		FirstName: "Augusta", LastName: "King", Email: "ada@example.com", Phone: "555-0199", Password: "newpass",
	})
	require.NoError(t, err)
	assert.Equal(t, "Augusta", res.User.FirstName)
	assert.NotEmpty(t, res.Token)

	_, err = f.auth.Login(ctx, "ada@example.com", "newpass")
	assert.NoError(t, err)
}

func TestUserService_SearchByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "John", "Smith", "john.smith@example.com")
	f.register(t, "John", "Doe", "john.doe@example.com")
	f.register(t, "Elton", "Johnson", "elton@example.com")
	f.register(t, "Jane", "Smith", "jane@example.com")

	both, err := f.profiles.SearchByName(ctx, "john smith")
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "john.smith@example.com", both[0].Email)

	either, err := f.profiles.SearchByName(ctx, "John")
	require.NoError(t, err)
	emails := make([]string, 0, len(either))
	for _, u := range either {
		emails = append(emails, u.Email)
	}
	assert.ElementsMatch(t, []string{"john.smith@example.com", "john.doe@example.com", "elton@example.com"}, emails)

	lastOnly, err := f.profiles.SearchByName(ctx, "smith")
	require.NoError(t, err)
	assert.Len(t, lastOnly, 2)

	_, err = f.profiles.SearchByName(ctx, "zelda")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestUserService_SearchMultiWordLastName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "Mary", "Ann Smith", "mary.ann@example.com")
	f.register(t, "Mary", "Smith", "mary.smith@example.com")

	found, err := f.profiles.SearchByName(ctx, "mary  ann   smith")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "mary.ann@example.com", found[0].Email)

	found, err = f.profiles.SearchByName(ctx, "Mary Smith")
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestTodoService_CreateSnapshotsReporter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")

	first, err := f.todoSvc.Create(ctx, ada, sampleTodo())
	require.NoError(t, err)
	second, err := f.todoSvc.Create(ctx, ada, sampleTodo())
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Number)
	assert.Equal(t, int64(2), second.Number)
	assert.Equal(t, domain.ReporterSnapshot{ID: ada.UserID, FirstName: "Ada", LastName: "Lovelace"}, first.Reporter)

	_, err = f.profiles.Update(ctx, ada, ada.UserID, UserInput{
		FirstName: "Augusta", LastName: "King", Email: "ada@example.com", Phone: "555-0100", Password: "secret1",
	})
	require.NoError(t, err)
	got, err := f.todoSvc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Reporter.FirstName, "snapshot must not follow profile edits")

	mine, err := f.todoSvc.ListByReporter(ctx, ada.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	entries, err := f.todoSvc.History(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ChangeTypeCreated, entries[0].ChangeType)
	assert.Nil(t, entries[0].OldStatus)
}

func TestTodoService_CreateWithVanishedUser(t *testing.T) {
	f := newFixture(t)
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")
	f.users.Delete(ada.UserID)

	_, err := f.todoSvc.Create(context.Background(), ada, sampleTodo())
	assertCode(t, err, apperrors.CodeUserNotFound)
}

func TestTodoService_ReporterOnlyWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")
	bob := f.register(t, "Bob", "Builder", "bob@example.com")

	todo, err := f.todoSvc.Create(ctx, ada, sampleTodo())
	require.NoError(t, err)

	_, err = f.todoSvc.Update(ctx, bob, todo.ID, sampleTodo())
	assertCode(t, err, apperrors.CodeForbidden)

	_, err = f.todoSvc.Delete(ctx, bob, todo.ID)
	assertCode(t, err, apperrors.CodeForbidden)

	changed, err := f.todoSvc.ChangeStatus(ctx, bob, StatusChangeInput{TaskID: todo.ID, Status: domain.TodoStatusInDevelopment})
	require.NoError(t, err)
	assert.Equal(t, domain.TodoStatusInDevelopment, changed.Status)

	entries, err := f.todoSvc.History(ctx, todo.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, bob.UserID, entries[1].ChangedByID)
	require.NotNil(t, entries[1].OldStatus)
	assert.Equal(t, domain.TodoStatusNew, *entries[1].OldStatus)

	deleted, err := f.todoSvc.Delete(ctx, ada, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, todo.ID, deleted.ID)

	_, err = f.todoSvc.Get(ctx, todo.ID)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestTodoService_UpdateDetectsConcurrentStatusChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")
	bob := f.register(t, "Bob", "Builder", "bob@example.com")

	todo, err := f.todoSvc.Create(ctx, ada, sampleTodo())
	require.NoError(t, err)

	stale, err := f.todos.GetByID(ctx, todo.ID)
	require.NoError(t, err)

	_, err = f.todoSvc.ChangeStatus(ctx, bob, StatusChangeInput{TaskID: todo.ID, Status: domain.TodoStatusFixed})
	require.NoError(t, err)

	stale.Summary = "overwrite"
	assert.ErrorIs(t, f.todos.Update(ctx, stale), repository.ErrVersionConflict)

	input := sampleTodo()
	input.Status = domain.TodoStatusClosed
	updated, err := f.todoSvc.Update(ctx, ada, todo.ID, input)
	require.NoError(t, err)
	assert.Equal(t, domain.TodoStatusClosed, updated.Status)
	assert.Equal(t, int64(3), updated.Version)
}

func TestTodoService_FavoritesAreASet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")
	bob := f.register(t, "Bob", "Builder", "bob@example.com")

	todo, err := f.todoSvc.Create(ctx, ada, sampleTodo())
	require.NoError(t, err)

	in := FavoriteInput{UserID: bob.UserID, TaskID: todo.ID, IsFavorite: true}
	_, err = f.todoSvc.UpdateFavorites(ctx, bob, in)
	require.NoError(t, err)
	got, err := f.todoSvc.UpdateFavorites(ctx, bob, in)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.UserID}, got.Favorites)

	in.IsFavorite = false
	got, err = f.todoSvc.UpdateFavorites(ctx, bob, in)
	require.NoError(t, err)
	assert.Empty(t, got.Favorites)

	_, err = f.todoSvc.UpdateFavorites(ctx, ada, FavoriteInput{UserID: bob.UserID, TaskID: todo.ID, IsFavorite: true})
	assertCode(t, err, apperrors.CodeForbidden)
}

func TestTodoService_InvalidIdentifierSkipsRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")
	todoCalls, userCalls := f.todos.Calls, f.users.Calls

	_, err := f.todoSvc.Get(ctx, "abc")
	assertCode(t, err, apperrors.CodeInvalidIdentifier)
	_, err = f.todoSvc.ListByReporter(ctx, "abc")
	assertCode(t, err, apperrors.CodeInvalidIdentifier)
	_, err = f.todoSvc.Update(ctx, ada, "abc", sampleTodo())
	assertCode(t, err, apperrors.CodeInvalidIdentifier)
	_, err = f.todoSvc.Delete(ctx, ada, "abc")
	assertCode(t, err, apperrors.CodeInvalidIdentifier)
	_, err = f.todoSvc.ChangeStatus(ctx, ada, StatusChangeInput{TaskID: "abc", Status: domain.TodoStatusFixed})
	assertCode(t, err, apperrors.CodeInvalidIdentifier)
	_, err = f.profiles.GetByID(ctx, ada, "abc")
	assertCode(t, err, apperrors.CodeInvalidIdentifier)

	assert.Equal(t, todoCalls, f.todos.Calls)
	assert.Equal(t, userCalls, f.users.Calls)
}

func TestTodoService_MissingTodo(t *testing.T) {
	f := newFixture(t)
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")

	_, err := f.todoSvc.Get(context.Background(), uuid.NewString())
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = f.todoSvc.ChangeStatus(context.Background(), ada, StatusChangeInput{TaskID: uuid.NewString(), Status: domain.TodoStatusFixed})
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestNotificationService_CountsEvents(t *testing.T) {
	f := newFixture(t)
	metrics := observability.NewMetrics(nil)
	NewNotificationService(f.dispatcher, zap.NewNop(), metrics, config.NotificationConfig{WebhookURL: "http://hook"}).RegisterHandlers()

	var seen []events.EventType
	for _, et := range []events.EventType{events.EventTodoCreated, events.EventTodoStatusChanged, events.EventTodoDeleted} {
		f.dispatcher.Subscribe(et, func(_ context.Context, e events.Event) error {
			seen = append(seen, e.Type)
			return nil
		})
	}

	ctx := context.Background()
	ada := f.register(t, "Ada", "Lovelace", "ada@example.com")
	todo, err := f.todoSvc.Create(ctx, ada, sampleTodo())
	require.NoError(t, err)
	_, err = f.todoSvc.ChangeStatus(ctx, ada, StatusChangeInput{TaskID: todo.ID, Status: domain.TodoStatusFixed})
	require.NoError(t, err)
	_, err = f.todoSvc.Delete(ctx, ada, todo.ID)
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{events.EventTodoCreated, events.EventTodoStatusChanged, events.EventTodoDeleted}, seen)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != "todo_domain_events_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 3.0, total)
}
