package livesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"shiftledger/internal/platform/kafka/consumer"
)

// KafkaSource serves feeds in live mode: one topic per logical path, each
// record a full snapshot of that feed. The most recent record supersedes
// everything before it, matching the feed contract.
type KafkaSource struct {
	brokers []string
	group   string
	logger  *slog.Logger
	admin   *kadm.Client
}

// NewKafkaSource builds the live source and its admin client for topic
// provisioning.
func NewKafkaSource(brokers []string, group string, logger *slog.Logger) (*KafkaSource, error) {
	adminClient, err := kgo.NewClient(kgo.SeedBrokers(brokers...))
	if err != nil {
		return nil, fmt.Errorf("create kafka admin client: %w", err)
	}
	return &KafkaSource{
		brokers: brokers,
		group:   group,
		logger:  logger,
		admin:   kadm.NewClient(adminClient),
	}, nil
}

// Close releases the admin client. Individual subscriptions hold their own
// clients and are released by their cancel handles.
func (k *KafkaSource) Close() {
	k.admin.Close()
}

// Subscribe provisions the feed's topic if needed, then polls it on a
// background goroutine. Fetch failures surface through fail; they never stop
// sibling feeds.
func (k *KafkaSource) Subscribe(path Path, push func([]byte), fail func(error)) (Cancel, error) {
	topic := path.Topic()
	if err := k.ensureTopic(topic); err != nil {
		return nil, err
	}

	feed, err := consumer.New(consumer.Config{
		Brokers: k.brokers,
		Group:   k.group + "." + topic,
		Topic:   topic,
	}, k.logger)
	if err != nil {
		return nil, err
	}

	ctx, cancelPoll := context.WithCancel(context.Background())
	go func() {
		err := feed.Run(ctx, func(_ context.Context, msg *consumer.Message) error {
			push(msg.Value)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			fail(err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancelPoll()
			feed.Close()
		})
	}, nil
}

func (k *KafkaSource) ensureTopic(topic string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	responses, err := k.admin.CreateTopics(ctx, 1, 1, nil, topic)
	if err != nil {
		return fmt.Errorf("ensure topic %s: %w", topic, err)
	}
	for _, response := range responses {
		if response.Err != nil && !errors.Is(response.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("ensure topic %s: %w", topic, response.Err)
		}
	}
	return nil
}
