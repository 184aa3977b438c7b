package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/todo-service/internal/config"
	"github.com/spec-kit/todo-service/internal/events"
	"github.com/spec-kit/todo-service/internal/observability"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTodoCreated, n.handleTodoCreated)
	n.dispatcher.Subscribe(events.EventTodoUpdated, n.handleTodoUpdated)
	n.dispatcher.Subscribe(events.EventTodoStatusChanged, n.handleTodoStatusChanged)
	n.dispatcher.Subscribe(events.EventTodoFavoriteChanged, n.handleTodoFavoriteChanged)
	n.dispatcher.Subscribe(events.EventTodoDeleted, n.handleTodoDeleted)
}

func (n *NotificationService) handleTodoCreated(ctx context.Context, event events.Event) error {
	n.observe("TodoCreated", event)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTodoUpdated(ctx context.Context, event events.Event) error {
	n.observe("TodoUpdated", event)
	return nil
}

func (n *NotificationService) handleTodoStatusChanged(ctx context.Context, event events.Event) error {
	n.observe("TodoStatusChanged", event)
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleTodoFavoriteChanged(ctx context.Context, event events.Event) error {
	n.observe("TodoFavoriteChanged", event)
	return nil
}

func (n *NotificationService) handleTodoDeleted(ctx context.Context, event events.Event) error {
	n.observe("TodoDeleted", event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) observe(name string, event events.Event) {
	n.metrics.RecordEvent(string(event.Type))
	n.logger.Info(name,
		zap.String("todo_id", event.TodoID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("todo_id", event.TodoID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("todo_id", event.TodoID),
		zap.String("event_type", string(event.Type)))
}
