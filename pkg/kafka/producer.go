package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
)

const eventSource = "evoacs"

// MessageProducer is the part of the confluent producer used for publishing.
type MessageProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

// Producer publishes JSON events.
type Producer struct {
	producer MessageProducer
	log      zerolog.Logger
}

// NewProducer wraps p.
func NewProducer(p MessageProducer, log zerolog.Logger) *Producer {
	return &Producer{producer: p, log: log}
}

// PublishEvent marshals event and produces it to topic under key.
func (p *Producer) PublishEvent(topic, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return p.PublishRaw(topic, key, data)
}

// PublishRaw produces data to topic asynchronously; delivery is reported by the client.
func (p *Producer) PublishRaw(topic, key string, data []byte) error {
	if topic == "" {
		return fmt.Errorf("topic is required")
	}
	msg := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          data,
	}
	if key != "" {
		msg.Key = []byte(key)
	}
	if err := p.producer.Produce(msg, nil); err != nil {
		return fmt.Errorf("failed to produce message: %w", err)
	}
	p.log.Debug().Str("topic", topic).Int("bytes", len(data)).Msg("📤 Published Kafka event")
	return nil
}

// EventPublisher emits device and task lifecycle events to the configured topics.
type EventPublisher struct {
	producer    *Producer
	deviceTopic string
	taskTopic   string
	log         zerolog.Logger
}

// NewEventPublisher creates a publisher. An empty topic disables that event family.
func NewEventPublisher(producer *Producer, deviceTopic, taskTopic string, log zerolog.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, deviceTopic: deviceTopic, taskTopic: taskTopic, log: log}
}

// PublishTaskStatus announces a task transition, keyed by device so events stay ordered per device.
func (e *EventPublisher) PublishTaskStatus(_ context.Context, taskID string, deviceID uint, taskType, status string, result interface{}) error {
	if e.taskTopic == "" {
		return nil
	}
	return e.producer.PublishEvent(e.taskTopic, deviceKey(deviceID), TaskEvent{
		BaseEvent: NewBaseEvent(EventTaskStatus, eventSource),
		TaskID:    taskID,
		DeviceID:  deviceID,
		TaskType:  taskType,
		Status:    status,
		Result:    result,
	})
}

// DeviceInformed announces an accepted CWMP Inform.
func (e *EventPublisher) DeviceInformed(_ context.Context, dev *store.Device, created bool, events []string) {
	typ := EventDeviceInformed
	if created {
		typ = EventDeviceRegistered
	}
	e.publishDevice(typ, dev.ID, dev, events)
}

// DeviceRegistered announces a USP agent seen for the first time.
func (e *EventPublisher) DeviceRegistered(_ context.Context, deviceID uint, endpointID, mtp string) {
	e.publishDevice(EventDeviceRegistered, deviceID, &store.Device{
		EndpointID:   endpointID,
		ProtocolType: store.ProtocolTR369,
		MTPType:      mtp,
	}, nil)
}

func (e *EventPublisher) publishDevice(typ EventType, deviceID uint, dev *store.Device, events []string) {
	if e.deviceTopic == "" {
		return
	}
	err := e.producer.PublishEvent(e.deviceTopic, deviceKey(deviceID), DeviceEvent{
		BaseEvent:    NewBaseEvent(typ, eventSource),
		DeviceID:     deviceID,
		EndpointID:   dev.EndpointID,
		SerialNumber: dev.SerialNumber,
		ProductClass: dev.ProductClass,
		Manufacturer: dev.Manufacturer,
		Protocol:     dev.ProtocolType,
		MTP:          dev.MTPType,
		Events:       events,
	})
	if err != nil {
		e.log.Warn().Err(err).Uint("device_id", deviceID).Msg("⚠️ Failed to publish device event")
	}
}

func deviceKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
