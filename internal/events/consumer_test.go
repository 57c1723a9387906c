package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// brokenReader fails every fetch.
type brokenReader struct {
	fetches atomic.Int32
}

func (r *brokenReader) FetchMessage(context.Context) (kafkago.Message, error) {
	r.fetches.Add(1)
	return kafkago.Message{}, errors.New("broker unreachable")
}

func (r *brokenReader) CommitMessages(context.Context, ...kafkago.Message) error { return nil }

func (r *brokenReader) Config() kafkago.ReaderConfig {
	return kafkago.ReaderConfig{Topic: "catalog.events", GroupID: "test"}
}

func (r *brokenReader) Close() error { return nil }

func TestConsume_BacksOffOnFetchErrors(t *testing.T) {
	reader := &brokenReader{}
	c := &Consumer{reader: reader, logger: zap.NewNop(), backoff: 20 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	handled := false
	err := c.Consume(ctx, func(context.Context, kafkago.Message) error {
		handled = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, handled)

	// 20 + 40 + 80 ms fit in the window; a loop without delay would fetch
	// thousands of times.
	fetches := reader.fetches.Load()
	assert.GreaterOrEqual(t, fetches, int32(2))
	assert.LessOrEqual(t, fetches, int32(5))
}
