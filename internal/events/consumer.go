package events

import (
	"context"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	maxHandlerAttempts = 3
	fetchBackoff       = 500 * time.Millisecond
	maxFetchBackoff    = 10 * time.Second
)

// MessageHandler processes one fetched message.
type MessageHandler func(ctx context.Context, msg kafkago.Message) error

// messageReader is the part of *kafkago.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Config() kafkago.ReaderConfig
	Close() error
}

// Consumer reads a topic as part of a consumer group and commits each message
// after its handler returns.
type Consumer struct {
	reader  messageReader
	logger  *zap.Logger
	backoff time.Duration
}

// NewConsumer creates a group consumer for topic.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafkago.NewReader(kafkago.ReaderConfig{
			Brokers:  brokers,
			GroupID:  groupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		}),
		logger:  logger,
		backoff: fetchBackoff,
	}
}

// Consume blocks until ctx is cancelled. A message whose handler keeps
// failing is logged and committed so it cannot stall the partition.
func (c *Consumer) Consume(ctx context.Context, handle MessageHandler) error {
	cfg := c.reader.Config()
	c.logger.Info("consumer started", zap.String("topic", cfg.Topic), zap.String("group", cfg.GroupID))

	delay := c.backoff
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.logger.Error("failed to fetch message", zap.Duration("retry_in", delay), zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			delay = min(delay*2, maxFetchBackoff)
			continue
		}
		delay = c.backoff

		var lastErr error
		for attempt := 1; attempt <= maxHandlerAttempts; attempt++ {
			if lastErr = handle(ctx, msg); lastErr == nil {
				break
			}
			c.logger.Warn("handler failed",
				zap.String("topic", msg.Topic),
				zap.Int64("offset", msg.Offset),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			if attempt < maxHandlerAttempts {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
				}
			}
		}
		if lastErr != nil {
			c.logger.Error("skipping message after repeated failures",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(lastErr),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message", zap.Error(err))
		}
	}
}

// Close closes the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
