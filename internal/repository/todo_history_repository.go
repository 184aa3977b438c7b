package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/todo-service/internal/domain"
)

// TodoHistoryRepository stores audit entries.
type TodoHistoryRepository interface {
	Create(ctx context.Context, history *domain.TodoHistory) error
	ListByTodo(ctx context.Context, todoID string) ([]domain.TodoHistory, error)
}

type todoHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTodoHistoryRepository builds repository.
func NewTodoHistoryRepository(pool *pgxpool.Pool) TodoHistoryRepository {
	return &todoHistoryRepository{pool: pool}
}

func (r *todoHistoryRepository) Create(ctx context.Context, history *domain.TodoHistory) error {
	const query = `
        INSERT INTO todo_history (id, todo_id, changed_by_id, change_type, old_status, new_status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at`
	var oldStatus *string
	if history.OldStatus != nil {
		s := string(*history.OldStatus)
		oldStatus = &s
	}
	return r.pool.QueryRow(ctx, query,
		history.ID,
		history.TodoID,
		history.ChangedByID,
		history.ChangeType,
		oldStatus,
		history.NewStatus,
	).Scan(&history.CreatedAt)
}

func (r *todoHistoryRepository) ListByTodo(ctx context.Context, todoID string) ([]domain.TodoHistory, error) {
	const query = `
        SELECT id, todo_id, changed_by_id, change_type, old_status, new_status, created_at
        FROM todo_history WHERE todo_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, todoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.TodoHistory{}
	for rows.Next() {
		var (
			history   domain.TodoHistory
			oldStatus *string
		)
		if err := rows.Scan(
			&history.ID,
			&history.TodoID,
			&history.ChangedByID,
			&history.ChangeType,
			&oldStatus,
			&history.NewStatus,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		if oldStatus != nil {
			s := domain.TodoStatus(*oldStatus)
			history.OldStatus = &s
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
