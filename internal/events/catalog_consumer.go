package events

import (
	"context"
	"strings"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// CatalogHandler applies catalog changes to the local course read model.
type CatalogHandler interface {
	HandleCourseUpserted(ctx context.Context, event CourseUpsertedEvent) error
	HandleCourseDeleted(ctx context.Context, event CourseDeletedEvent) error
}

// CatalogEventConsumer listens to catalog events and keeps course prices current.
type CatalogEventConsumer struct {
	consumer *Consumer
	handler  CatalogHandler
	logger   *zap.Logger
}

// NewCatalogEventConsumer creates a new consumer for catalog events.
func NewCatalogEventConsumer(
	brokers []string,
	groupID, topic string,
	handler CatalogHandler,
	logger *zap.Logger,
) *CatalogEventConsumer {
	return &CatalogEventConsumer{
		consumer: NewConsumer(brokers, groupID, topic, logger),
		handler:  handler,
		logger:   logger,
	}
}

// Start begins consuming catalog events. It blocks until the context is cancelled.
func (c *CatalogEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

func (c *CatalogEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	ce, err := ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from catalog topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		// Skip: a malformed envelope never parses.
		return nil
	}
	return c.Dispatch(ctx, ce)
}

// Dispatch routes an envelope to the matching handler method.
func (c *CatalogEventConsumer) Dispatch(ctx context.Context, ce CloudEvent) error {
	c.logger.Info("received catalog event",
		zap.String("type", ce.Type),
		zap.String("id", ce.ID),
	)

	switch {
	case strings.EqualFold(ce.Type, CatalogCourseUpserted):
		var event CourseUpsertedEvent
		if err := ce.ParseData(&event); err != nil {
			c.logger.Error("failed to parse CourseUpsertedEvent data", zap.Error(err))
			return nil
		}
		return c.handler.HandleCourseUpserted(ctx, event)

	case strings.EqualFold(ce.Type, CatalogCourseDeleted):
		var event CourseDeletedEvent
		if err := ce.ParseData(&event); err != nil {
			c.logger.Error("failed to parse CourseDeletedEvent data", zap.Error(err))
			return nil
		}
		return c.handler.HandleCourseDeleted(ctx, event)

	default:
		c.logger.Debug("ignoring unhandled catalog event type", zap.String("type", ce.Type))
		return nil
	}
}

// Close closes the underlying Kafka consumer.
func (c *CatalogEventConsumer) Close() error {
	return c.consumer.Close()
}
