package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaPublisher produces KycCompleted records keyed by application ID so
// events for one application stay ordered.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaPublisher(client *kgo.Client, topic string) *KafkaPublisher {
	return &KafkaPublisher{client: client, topic: topic}
}

func (p *KafkaPublisher) PublishCompleted(ctx context.Context, event KycCompleted) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode kyc completed: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(event.ApplicationID, 10)),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "event-type", Value: []byte("KycCompleted")},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce kyc completed: %w", err)
	}
	return nil
}

// Consumer reads KycCompleted records and hands them to a Listener.
type Consumer struct {
	client   *kgo.Client
	listener *Listener
	logger   *slog.Logger
}

// NewConsumer expects client to be configured with ConsumeTopics and a
// consumer group.
func NewConsumer(client *kgo.Client, listener *Listener, logger *slog.Logger) *Consumer {
	return &Consumer{client: client, listener: listener, logger: logger}
}

// Run polls until ctx is cancelled or the client is closed.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch failed",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(r *kgo.Record) {
			var event KycCompleted
			if err := json.Unmarshal(r.Value, &event); err != nil {
				c.logger.WarnContext(ctx, "skipping malformed kyc completed record",
					"offset", r.Offset,
					"error", err,
				)
				return
			}
			c.listener.Handle(ctx, event)
		})
	}
}
