// Package kafka publishes ACS lifecycle events and consumes task notifications
// over Kafka using the confluent client.
package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/pkg/config"
)

// Client owns the Kafka producer and admin client.
type Client struct {
	cfg      config.KafkaConfig
	producer *kafka.Producer
	admin    *kafka.AdminClient
	log      zerolog.Logger
}

// NewClient creates a producer and an admin client for cfg.Brokers.
func NewClient(cfg config.KafkaConfig, log zerolog.Logger) (*Client, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": strings.Join(cfg.Brokers, ","),
		"acks":              "all",
		"compression.type":  "snappy",
		"retries":           3,
		"retry.backoff.ms":  100,
		"linger.ms":         10,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	admin, err := kafka.NewAdminClientFromProducer(producer)
	if err != nil {
		producer.Close()
		return nil, fmt.Errorf("failed to create admin client: %w", err)
	}

	c := &Client{cfg: cfg, producer: producer, admin: admin, log: log}
	go c.handleDeliveryReports()

	log.Info().Strs("brokers", cfg.Brokers).Msg("✅ Kafka client initialized")
	return c, nil
}

func (c *Client) handleDeliveryReports() {
	for e := range c.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				c.log.Error().Err(ev.TopicPartition.Error).Str("topic", *ev.TopicPartition.Topic).Msg("❌ Kafka delivery failed")
			}
		case kafka.Error:
			c.log.Warn().Err(ev).Msg("⚠️ Kafka error")
		}
	}
}

// Producer returns a Producer publishing through this client.
func (c *Client) Producer() *Producer {
	return NewProducer(c.producer, c.log)
}

// EnsureTopics creates the topics that do not exist yet.
func (c *Client) EnsureTopics(ctx context.Context, topics ...string) error {
	md, err := c.admin.GetMetadata(nil, true, 5000)
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}

	var missing []kafka.TopicSpecification
	for _, t := range topics {
		if t == "" {
			continue
		}
		if _, ok := md.Topics[t]; !ok {
			missing = append(missing, kafka.TopicSpecification{Topic: t, NumPartitions: 3, ReplicationFactor: 1})
		}
	}
	if len(missing) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	results, err := c.admin.CreateTopics(ctx, missing)
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}
	for _, r := range results {
		if code := r.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			c.log.Warn().Str("topic", r.Topic).Err(r.Error).Msg("⚠️ Failed to create topic")
			continue
		}
		c.log.Info().Str("topic", r.Topic).Msg("✅ Topic ready")
	}
	return nil
}

// Ping checks that a broker answers within ctx's deadline, capped at five seconds.
func (c *Client) Ping(ctx context.Context) error {
	timeout := 5 * time.Second
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	if _, err := c.admin.GetMetadata(nil, false, int(timeout.Milliseconds())); err != nil {
		return fmt.Errorf("kafka broker unreachable: %w", err)
	}
	return nil
}

// Close flushes pending messages and releases the client.
func (c *Client) Close() {
	if remaining := c.producer.Flush(5000); remaining > 0 {
		c.log.Warn().Int("remaining", remaining).Msg("⚠️ Kafka messages not delivered before close")
	}
	c.admin.Close()
	c.producer.Close()
	c.log.Info().Msg("✅ Kafka client closed")
}
