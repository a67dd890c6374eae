// Package consumer wraps franz-go consumption behind a small handler-driven
// API so feed code never touches client plumbing directly.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Config captures what one consumer needs to start polling.
type Config struct {
	Brokers []string
	Group   string
	Topic   string
}

// Message is one consumed record.
type Message struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition int32
	Offset    int64
}

// Handler processes messages from a topic. A handler error stops the run
// loop; the caller decides whether that tears anything else down.
type Handler func(ctx context.Context, msg *Message) error

// Consumer polls one topic and dispatches records to a handler.
type Consumer struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// New creates a consumer joined to the given group, positioned at the end of
// the topic. Feeds are snapshot streams where the most recent record
// supersedes everything before it, so history replay is pointless.
func New(cfg Config, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client for %s: %w", cfg.Topic, err)
	}
	return &Consumer{client: client, topic: cfg.Topic, logger: logger}, nil
}

// Run polls until the context is cancelled, the client is closed, or a fetch
// or handler error occurs.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, fetchErr := range fetches.Errors() {
			return fmt.Errorf("fetch %s[%d]: %w", fetchErr.Topic, fetchErr.Partition, fetchErr.Err)
		}

		var handleErr error
		fetches.EachRecord(func(record *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = handler(ctx, &Message{
				Topic:     record.Topic,
				Key:       record.Key,
				Value:     record.Value,
				Partition: record.Partition,
				Offset:    record.Offset,
			})
		})
		if handleErr != nil {
			return handleErr
		}
	}
}

// Close shuts the underlying client down; a blocked Run returns nil.
func (c *Consumer) Close() {
	c.client.Close()
}
