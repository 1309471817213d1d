package main

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/mtp"
	"github.com/dexter939/EvoAcs-sub001/pkg/config"
)

// Transport carries records between the agent and the controller.
type Transport interface {
	Connect() error
	Send(record []byte) error
	// Inbound delivers records from the controller until the transport closes.
	Inbound() <-chan []byte
	Close() error
	Name() string
}

// WebSocketTransport is the WebSocket MTP client.
type WebSocketTransport struct {
	url     string
	conn    *websocket.Conn
	inbound chan []byte
	writeMu sync.Mutex
	log     zerolog.Logger
}

// NewWebSocketTransport creates a client for url.
func NewWebSocketTransport(url string, log zerolog.Logger) *WebSocketTransport {
	return &WebSocketTransport{url: url, inbound: make(chan []byte, 16), log: log}
}

func (w *WebSocketTransport) Name() string { return "websocket" }

func (w *WebSocketTransport) Connect() error {
	headers := http.Header{}
	headers.Set("Sec-WebSocket-Protocol", "v1.usp")
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(w.url, headers)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", w.url, err)
	}
	w.conn = conn
	w.log.Info().Str("url", w.url).Msg("✅ WebSocket MTP connected")
	go w.readLoop()
	return nil
}

func (w *WebSocketTransport) readLoop() {
	defer close(w.inbound)
	for {
		typ, data, err := w.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				w.log.Warn().Err(err).Msg("⚠️ WebSocket read failed")
			}
			return
		}
		if typ == websocket.BinaryMessage {
			w.inbound <- data
		}
	}
}

func (w *WebSocketTransport) Send(record []byte) error {
	if w.conn == nil {
		return errors.New("websocket not connected")
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteMessage(websocket.BinaryMessage, record)
}

func (w *WebSocketTransport) Inbound() <-chan []byte { return w.inbound }

func (w *WebSocketTransport) Close() error {
	if w.conn == nil {
		return nil
	}
	w.writeMu.Lock()
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "agent shutdown"),
		time.Now().Add(time.Second))
	w.writeMu.Unlock()
	return w.conn.Close()
}

// MQTTTransport publishes to the agent request topic and listens on the controller topic.
type MQTTTransport struct {
	client       mqtt.Client
	requestTopic string
	replyTopic   string
	inbound      chan []byte
	closeOnce    sync.Once
	log          zerolog.Logger
}

// NewMQTTTransport creates a paho-backed transport for cfg.
func NewMQTTTransport(cfg *config.TR369Config, log zerolog.Logger) *MQTTTransport {
	t := &MQTTTransport{
		requestTopic: mtp.AgentRequestTopic(cfg.EndpointID),
		replyTopic:   mtp.ControllerTopic(cfg.ControllerID, cfg.EndpointID),
		inbound:      make(chan []byte, 16),
		log:          log,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBrokerURL)
	opts.SetClientID(cfg.MQTTClientID)
	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(t.replyTopic, 0, func(_ mqtt.Client, m mqtt.Message) {
			t.inbound <- m.Payload()
		})
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			log.Info().Str("topic", t.replyTopic).Msg("📡 Subscribed to controller topic")
		} else {
			log.Error().Err(token.Error()).Str("topic", t.replyTopic).Msg("❌ MQTT subscribe failed")
		}
	})
	t.client = mqtt.NewClient(opts)
	return t
}

func (t *MQTTTransport) Name() string { return "mqtt" }

func (t *MQTTTransport) Connect() error {
	token := t.client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return errors.New("mqtt connect timed out")
	}
	return token.Error()
}

func (t *MQTTTransport) Send(record []byte) error {
	token := t.client.Publish(t.requestTopic, 0, false, record)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timed out", t.requestTopic)
	}
	return token.Error()
}

func (t *MQTTTransport) Inbound() <-chan []byte { return t.inbound }

func (t *MQTTTransport) Close() error {
	t.closeOnce.Do(func() {
		t.client.Disconnect(250)
		close(t.inbound)
	})
	return nil
}
