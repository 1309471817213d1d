package mtp

import "errors"

var (
	// ErrNotConnected is returned when publishing on a disconnected MQTT client.
	ErrNotConnected = errors.New("mtp: client not connected")

	// ErrPublishFailed is returned when an outbound record could not be delivered.
	ErrPublishFailed = errors.New("mtp: publish failed")

	// ErrClientNotFound is returned when no WebSocket client is registered for an endpoint.
	ErrClientNotFound = errors.New("mtp: no client for endpoint")

	// ErrInvalidTopic is returned for MQTT topics that do not name an agent.
	ErrInvalidTopic = errors.New("mtp: invalid topic")
)
