package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/todo-service/internal/domain"
)

// CachedTodoRepository adds a Redis read-through cache for single todo lookups.
// Cache failures are logged and never fail the request.
type CachedTodoRepository struct {
	inner  TodoRepository
	redis  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedTodoRepository wraps inner. A nil client disables caching.
func NewCachedTodoRepository(inner TodoRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) TodoRepository {
	if client == nil {
		return inner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedTodoRepository{inner: inner, redis: client, ttl: ttl, logger: logger}
}

var errStaleFill = errors.New("todo changed during cache fill")

func todoCacheKey(id string) string {
	return fmt.Sprintf("todo:%s", id)
}

func todoGenKey(id string) string {
	return fmt.Sprintf("todo:%s:gen", id)
}

func (c *CachedTodoRepository) Create(ctx context.Context, todo *domain.Todo) error {
	return c.inner.Create(ctx, todo)
}

func (c *CachedTodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	defer c.invalidate(ctx, todo.ID)
	return c.inner.Update(ctx, todo)
}

func (c *CachedTodoRepository) UpdateStatus(ctx context.Context, id string, status domain.TodoStatus) (*domain.Todo, error) {
	defer c.invalidate(ctx, id)
	return c.inner.UpdateStatus(ctx, id, status)
}

func (c *CachedTodoRepository) SetFavorite(ctx context.Context, id, userID string, favorite bool) (*domain.Todo, error) {
	defer c.invalidate(ctx, id)
	return c.inner.SetFavorite(ctx, id, userID, favorite)
}

func (c *CachedTodoRepository) Delete(ctx context.Context, id string) error {
	defer c.invalidate(ctx, id)
	return c.inner.Delete(ctx, id)
}

func (c *CachedTodoRepository) GetByID(ctx context.Context, id string) (*domain.Todo, error) {
	key := todoCacheKey(id)

	cached, err := c.redis.Get(ctx, key).Bytes()
	if err == nil {
		var todo domain.Todo
		if err := json.Unmarshal(cached, &todo); err == nil {
			return &todo, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("todo cache read failed", zap.String("todo_id", id), zap.Error(err))
	}

	// The generation is read before the row so a write landing in between
	// is detected when filling.
	gen, genErr := c.generation(ctx, c.redis, id)

	todo, err := c.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		c.fill(ctx, id, gen, todo)
	}
	return todo, nil
}

// fill stores todo only if no write bumped the generation since gen was read.
func (c *CachedTodoRepository) fill(ctx context.Context, id string, gen int64, todo *domain.Todo) {
	data, err := json.Marshal(todo)
	if err != nil {
		return
	}
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, id)
		if err != nil {
			return err
		}
		if current != gen {
			return errStaleFill
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, todoCacheKey(id), data, c.ttl)
			return nil
		})
		return err
	}, todoGenKey(id))
	switch {
	case err == nil:
	case errors.Is(err, errStaleFill), errors.Is(err, redis.TxFailedErr):
		c.logger.Debug("todo cache fill skipped", zap.String("todo_id", id))
	default:
		c.logger.Warn("todo cache write failed", zap.String("todo_id", id), zap.Error(err))
	}
}

func (c *CachedTodoRepository) generation(ctx context.Context, r redis.Cmdable, id string) (int64, error) {
	gen, err := r.Get(ctx, todoGenKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *CachedTodoRepository) List(ctx context.Context, filter TodoFilter) ([]domain.Todo, error) {
	return c.inner.List(ctx, filter)
}

func (c *CachedTodoRepository) invalidate(ctx context.Context, id string) {
	genKey := todoGenKey(id)
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, c.ttl+time.Minute)
		pipe.Del(ctx, todoCacheKey(id))
		return nil
	})
	if err != nil {
		c.logger.Warn("todo cache invalidation failed", zap.String("todo_id", id), zap.Error(err))
	}
}
