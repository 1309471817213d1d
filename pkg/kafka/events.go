package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventDeviceRegistered EventType = "device.registered"
	EventDeviceInformed   EventType = "device.informed"
	EventTaskStatus       EventType = "task.status"
	EventTaskCreated      EventType = "task.created"
)

// BaseEvent is the common structure for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
}

// DeviceEvent announces a device contact.
type DeviceEvent struct {
	BaseEvent
	DeviceID     uint     `json:"device_id"`
	EndpointID   string   `json:"endpoint_id"`
	SerialNumber string   `json:"serial_number,omitempty"`
	ProductClass string   `json:"product_class,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Protocol     string   `json:"protocol"`
	MTP          string   `json:"mtp,omitempty"`
	Events       []string `json:"events,omitempty"`
}

// TaskEvent announces a task status transition.
type TaskEvent struct {
	BaseEvent
	TaskID   string      `json:"task_id"`
	DeviceID uint        `json:"device_id"`
	TaskType string      `json:"task_type"`
	Status   string      `json:"status"`
	Result   interface{} `json:"result,omitempty"`
}

// TaskCreatedEvent is produced by the task owner when work is queued for a device.
type TaskCreatedEvent struct {
	BaseEvent
	TaskID   string `json:"task_id"`
	DeviceID uint   `json:"device_id"`
	TaskType string `json:"task_type,omitempty"`
}

// NewBaseEvent creates a new base event with common fields
func NewBaseEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
	}
}

// FromJSON deserializes an event from JSON
func FromJSON(data []byte, event interface{}) error {
	return json.Unmarshal(data, event)
}
