package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/pkg/config"
)

// MessageHandler handles one consumed message.
type MessageHandler func(ctx context.Context, msg *kafka.Message) error

// Consumer reads subscribed topics and dispatches each message to its topic handler.
type Consumer struct {
	consumer *kafka.Consumer
	handlers map[string]MessageHandler
	log      zerolog.Logger
}

// NewConsumer creates a consumer in cfg.GroupID.
func NewConsumer(cfg config.KafkaConfig, log zerolog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one Kafka broker is required")
	}
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = "evoacs"
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":       strings.Join(cfg.Brokers, ","),
		"group.id":                groupID,
		"auto.offset.reset":       "latest",
		"enable.auto.commit":      true,
		"auto.commit.interval.ms": 1000,
		"session.timeout.ms":      30000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	log.Info().Str("group", groupID).Msg("✅ Kafka consumer initialized")
	return &Consumer{consumer: consumer, handlers: make(map[string]MessageHandler), log: log}, nil
}

// Handle registers handler for topic. Call before Run.
func (c *Consumer) Handle(topic string, handler MessageHandler) {
	c.handlers[topic] = handler
}

// Run subscribes to every handled topic and consumes until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	topics := make([]string, 0, len(c.handlers))
	for t := range c.handlers {
		topics = append(topics, t)
	}
	if len(topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	if err := c.consumer.SubscribeTopics(topics, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topics: %w", err)
	}
	c.log.Info().Strs("topics", topics).Msg("🚀 Kafka consumer loop started")

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("🛑 Kafka consumer loop stopped")
			return nil
		default:
		}

		msg, err := c.consumer.ReadMessage(100 * time.Millisecond)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			c.log.Warn().Err(err).Msg("⚠️ Kafka consumer error")
			continue
		}
		c.dispatch(ctx, msg)
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg *kafka.Message) {
	topic := ""
	if msg.TopicPartition.Topic != nil {
		topic = *msg.TopicPartition.Topic
	}
	handler, ok := c.handlers[topic]
	if !ok {
		c.log.Warn().Str("topic", topic).Msg("⚠️ No handler registered for topic")
		return
	}
	c.log.Debug().Str("topic", topic).Int("bytes", len(msg.Value)).Msg("📥 Kafka message received")
	if err := handler(ctx, msg); err != nil {
		c.log.Error().Err(err).Str("topic", topic).Msg("❌ Kafka message handling failed")
	}
}

// Close releases the consumer.
func (c *Consumer) Close() {
	if err := c.consumer.Close(); err != nil {
		c.log.Warn().Err(err).Msg("⚠️ Error closing Kafka consumer")
		return
	}
	c.log.Info().Msg("✅ Kafka consumer closed")
}

// Waker prompts a device to pick up its queued tasks.
type Waker interface {
	Wake(ctx context.Context, deviceID uint) error
}

// TaskCreatedHandler wakes the device named by each TaskCreatedEvent.
func TaskCreatedHandler(w Waker, log zerolog.Logger) MessageHandler {
	return func(ctx context.Context, msg *kafka.Message) error {
		var ev TaskCreatedEvent
		if err := FromJSON(msg.Value, &ev); err != nil {
			return fmt.Errorf("failed to decode task created event: %w", err)
		}
		if ev.DeviceID == 0 {
			return fmt.Errorf("task created event %s has no device id", ev.TaskID)
		}
		log.Info().Str("task_id", ev.TaskID).Uint("device_id", ev.DeviceID).Msg("📣 Task created, waking device")
		return w.Wake(ctx, ev.DeviceID)
	}
}
