// Package mtp provides the Message Transfer Protocol adapters that carry USP records
// between agents and the controller: MQTT, raw WebSocket and HTTP polling.
package mtp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/usp"
	"github.com/dexter939/EvoAcs-sub001/pkg/config"
	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
)

const (
	defaultSubscribeTopic = "usp/agent/+/request"
	defaultPublishTimeout = 5 * time.Second
)

// RecordProcessor handles one inbound USP record and returns the reply record, if any.
type RecordProcessor interface {
	Process(ctx context.Context, raw []byte, mtp string) ([]byte, error)
}

// MQTTClient is the subset of the paho client used by the adapter.
type MQTTClient interface {
	Connect() mqtt.Token
	IsConnected() bool
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// ControllerTopic is where records for agentID are published.
func ControllerTopic(controllerID, agentID string) string {
	return "usp/controller/" + controllerID + "/" + agentID
}

// AgentRequestTopic is where agentID publishes its records.
func AgentRequestTopic(agentID string) string {
	return "usp/agent/" + agentID + "/request"
}

// agentFromTopic extracts the agent id from usp/agent/{agentId}/...
func agentFromTopic(topic string) (string, bool) {
	parts := strings.SplitN(topic, "/", 4)
	if len(parts) < 3 || parts[0] != "usp" || parts[1] != "agent" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}

// MQTTAdapter subscribes to agent request topics, runs each record through the
// processor and publishes replies back to the agent.
type MQTTAdapter struct {
	client         MQTTClient
	processor      RecordProcessor
	controllerID   string
	subscribeTopic string
	publishTimeout time.Duration
	log            zerolog.Logger
	metrics        *metrics.ACSMetrics

	mu      sync.Mutex
	started bool
	wg      sync.WaitGroup
}

// MQTTAdapterConfig configures an MQTTAdapter.
type MQTTAdapterConfig struct {
	ControllerID   string
	SubscribeTopic string
	PublishTimeout time.Duration
	Logger         zerolog.Logger
	Metrics        *metrics.ACSMetrics
}

// NewMQTTAdapter wraps an existing client. Use NewPahoClient to build one from configuration.
func NewMQTTAdapter(client MQTTClient, processor RecordProcessor, cfg MQTTAdapterConfig) *MQTTAdapter {
	if cfg.SubscribeTopic == "" {
		cfg.SubscribeTopic = defaultSubscribeTopic
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	return &MQTTAdapter{
		client:         client,
		processor:      processor,
		controllerID:   cfg.ControllerID,
		subscribeTopic: cfg.SubscribeTopic,
		publishTimeout: cfg.PublishTimeout,
		log:            cfg.Logger,
		metrics:        cfg.Metrics,
	}
}

// NewPahoClient builds a paho client. onConnect runs after every (re)connect so
// subscriptions survive broker restarts.
func NewPahoClient(cfg config.MQTTConfig, log zerolog.Logger, onConnect func()) MQTTClient {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(5 * time.Second)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetOrderMatters(false)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info().Str("broker", cfg.BrokerURL).Msg("✅ MQTT broker connected")
		if onConnect != nil {
			onConnect()
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Str("broker", cfg.BrokerURL).Msg("⚠️ MQTT connection lost")
	})
	return mqtt.NewClient(opts)
}

// SetClient installs the client; used when the client's connect hook needs the adapter.
func (a *MQTTAdapter) SetClient(c MQTTClient) {
	a.client = c
}

// Start connects and subscribes. It returns once the subscription is active.
func (a *MQTTAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	a.started = true
	a.mu.Unlock()

	if !a.client.IsConnected() {
		token := a.client.Connect()
		if !token.WaitTimeout(a.publishTimeout * 2) {
			return fmt.Errorf("%w: connect timed out", ErrNotConnected)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
	}
	return a.subscribe()
}

// Resubscribe restores the subscription after a reconnect. It is a no-op before Start.
func (a *MQTTAdapter) Resubscribe() {
	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	if !started {
		return
	}
	if err := a.subscribe(); err != nil {
		a.log.Error().Err(err).Str("topic", a.subscribeTopic).Msg("❌ MQTT resubscribe failed")
	}
}

func (a *MQTTAdapter) subscribe() error {
	token := a.client.Subscribe(a.subscribeTopic, 0, a.onMessage)
	if !token.WaitTimeout(a.publishTimeout) {
		return fmt.Errorf("subscribe to %s timed out", a.subscribeTopic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", a.subscribeTopic, err)
	}
	a.log.Info().Str("topic", a.subscribeTopic).Msg("📡 Subscribed to MQTT topic")
	return nil
}

func (a *MQTTAdapter) onMessage(_ mqtt.Client, msg mqtt.Message) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.handle(context.Background(), msg.Topic(), msg.Payload())
	}()
}

// handle processes one inbound record and publishes the reply.
func (a *MQTTAdapter) handle(ctx context.Context, topic string, payload []byte) {
	a.log.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("📥 MQTT record received")

	resp, err := a.processor.Process(ctx, payload, usp.MTPMQTT)
	if err != nil {
		a.log.Warn().Err(err).Str("topic", topic).Msg("⚠️ Dropping MQTT record")
		return
	}
	if resp == nil {
		return
	}

	agentID, ok := agentFromTopic(topic)
	if !ok {
		rec, err := usp.UnmarshalRecord(resp)
		if err != nil || rec.ToID == "" {
			a.log.Warn().Str("topic", topic).Msg("⚠️ Cannot derive reply topic")
			a.metrics.RecordPublishError(usp.MTPMQTT)
			return
		}
		agentID = rec.ToID
	}
	if err := a.publish(ControllerTopic(a.controllerID, agentID), resp); err != nil {
		a.log.Error().Err(err).Str("endpoint_id", agentID).Msg("❌ MQTT reply publish failed")
		return
	}
	a.log.Debug().Str("endpoint_id", agentID).Msg("📤 MQTT reply published")
}

// SendToAgent publishes a controller-originated record to the agent.
func (a *MQTTAdapter) SendToAgent(_ context.Context, endpointID string, record []byte) error {
	if endpointID == "" {
		return ErrInvalidTopic
	}
	return a.publish(ControllerTopic(a.controllerID, endpointID), record)
}

// Send delivers a task request record; it satisfies the task dispatcher's sender contract.
func (a *MQTTAdapter) Send(ctx context.Context, endpointID, _ string, record []byte) error {
	return a.SendToAgent(ctx, endpointID, record)
}

func (a *MQTTAdapter) publish(topic string, payload []byte) error {
	if !a.client.IsConnected() {
		a.metrics.RecordPublishError(usp.MTPMQTT)
		return ErrNotConnected
	}
	token := a.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(a.publishTimeout) {
		a.metrics.RecordPublishError(usp.MTPMQTT)
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, a.publishTimeout)
	}
	if err := token.Error(); err != nil {
		a.metrics.RecordPublishError(usp.MTPMQTT)
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Wait blocks until in-flight message handlers return.
func (a *MQTTAdapter) Wait() {
	a.wg.Wait()
}

// Close waits for handlers and disconnects.
func (a *MQTTAdapter) Close() {
	a.wg.Wait()
	if a.client.IsConnected() {
		a.client.Disconnect(250)
		a.log.Info().Msg("✅ MQTT broker disconnected")
	}
}
