package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/todo-service/internal/domain"
)

// TodoFilter narrows todo listings.
type TodoFilter struct {
	ReporterID *string
}

// TodoRepository encapsulates todo persistence. Every write touches a single row.
type TodoRepository interface {
	Create(ctx context.Context, todo *domain.Todo) error
	// Update replaces the mutable fields if the stored version still equals
	// todo.Version; it returns ErrVersionConflict otherwise.
	Update(ctx context.Context, todo *domain.Todo) error
	UpdateStatus(ctx context.Context, id string, status domain.TodoStatus) (*domain.Todo, error)
	SetFavorite(ctx context.Context, id, userID string, favorite bool) (*domain.Todo, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Todo, error)
	List(ctx context.Context, filter TodoFilter) ([]domain.Todo, error)
}

type todoRepository struct {
	pool *pgxpool.Pool
}

// NewTodoRepository instantiates repository.
func NewTodoRepository(pool *pgxpool.Pool) TodoRepository {
	return &todoRepository{pool: pool}
}

const todoColumns = `id, number, summary, description, status, issue_type, severity, priority,
               reporter_id, reporter_first_name, reporter_last_name, favorites, version, created_at, updated_at`

func (r *todoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	const query = `
        INSERT INTO todos (id, summary, description, status, issue_type, severity, priority,
                           reporter_id, reporter_first_name, reporter_last_name, favorites)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING number, version, created_at, updated_at`
	if todo.Favorites == nil {
		todo.Favorites = []string{}
	}
	err := r.pool.QueryRow(ctx, query,
		todo.ID,
		todo.Summary,
		todo.Description,
		todo.Status,
		todo.IssueType,
		todo.Severity,
		todo.Priority,
		todo.Reporter.ID,
		todo.Reporter.FirstName,
		todo.Reporter.LastName,
		todo.Favorites,
	).Scan(&todo.Number, &todo.Version, &todo.CreatedAt, &todo.UpdatedAt)
	return mapError(err)
}

func (r *todoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	const query = `
        UPDATE todos SET summary=$1, description=$2, status=$3, issue_type=$4, severity=$5, priority=$6,
            version=version+1, updated_at=NOW()
        WHERE id=$7 AND version=$8
        RETURNING version, updated_at`
	err := r.pool.QueryRow(ctx, query,
		todo.Summary,
		todo.Description,
		todo.Status,
		todo.IssueType,
		todo.Severity,
		todo.Priority,
		todo.ID,
		todo.Version,
	).Scan(&todo.Version, &todo.UpdatedAt)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return mapError(err)
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM todos WHERE id=$1)`, todo.ID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return ErrNotFound
}

func (r *todoRepository) UpdateStatus(ctx context.Context, id string, status domain.TodoStatus) (*domain.Todo, error) {
	const query = `
        UPDATE todos SET status=$1, version=version+1, updated_at=NOW()
        WHERE id=$2
        RETURNING ` + todoColumns
	return r.fetchSingle(ctx, query, status, id)
}

// SetFavorite adds or removes userID in a single statement so concurrent
// toggles never duplicate or lose entries.
func (r *todoRepository) SetFavorite(ctx context.Context, id, userID string, favorite bool) (*domain.Todo, error) {
	const query = `
        UPDATE todos SET
            favorites = CASE
                WHEN $3 THEN (CASE WHEN $2 = ANY(favorites) THEN favorites ELSE array_append(favorites, $2) END)
                ELSE array_remove(favorites, $2)
            END,
            version=version+1, updated_at=NOW()
        WHERE id=$1
        RETURNING ` + todoColumns
	return r.fetchSingle(ctx, query, id, userID, favorite)
}

func (r *todoRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *todoRepository) GetByID(ctx context.Context, id string) (*domain.Todo, error) {
	return r.fetchSingle(ctx, `SELECT `+todoColumns+` FROM todos WHERE id=$1`, id)
}

func (r *todoRepository) List(ctx context.Context, filter TodoFilter) ([]domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos`
	args := []any{}
	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		query += ` WHERE reporter_id=$1`
	}
	query += ` ORDER BY number ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTodos(rows)
}

func (r *todoRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Todo, error) {
	todo, err := scanTodo(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return todo, nil
}

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var todo domain.Todo
	if err := row.Scan(
		&todo.ID,
		&todo.Number,
		&todo.Summary,
		&todo.Description,
		&todo.Status,
		&todo.IssueType,
		&todo.Severity,
		&todo.Priority,
		&todo.Reporter.ID,
		&todo.Reporter.FirstName,
		&todo.Reporter.LastName,
		&todo.Favorites,
		&todo.Version,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &todo, nil
}

func scanTodos(rows pgx.Rows) ([]domain.Todo, error) {
	result := []domain.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *todo)
	}
	return result, rows.Err()
}
