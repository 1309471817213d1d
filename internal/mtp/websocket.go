package mtp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/internal/usp"
	"github.com/dexter939/EvoAcs-sub001/internal/websocket"
	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
)

const (
	defaultPollInterval = 200 * time.Millisecond
	defaultWriteTimeout = 5 * time.Second
	maxHandshakeBytes   = 8 << 10
	readChunk           = 32 << 10
)

// DeviceStatus marks devices offline when their transport goes away.
type DeviceStatus interface {
	MarkOffline(ctx context.Context, endpointID string) error
}

// ConnectionLog records agent connect and disconnect events.
type ConnectionLog interface {
	Record(ctx context.Context, ev *store.ConnectionEvent) error
}

// WSServerConfig configures a WSServer.
type WSServerConfig struct {
	Addr         string
	Path         string
	PollInterval time.Duration
	WriteTimeout time.Duration
	Queue        OutboundQueue
	Devices      DeviceStatus
	Connections  ConnectionLog
	// OnConnect runs in the server loop after the first record from an endpoint has been processed.
	OnConnect func(ctx context.Context, endpointID string)
	Logger    zerolog.Logger
	Metrics   *metrics.ACSMetrics
}

type wsEventKind int

const (
	wsAccepted wsEventKind = iota
	wsData
	wsClosed
)

type wsEvent struct {
	kind wsEventKind
	id   uint64
	conn net.Conn
	data []byte
	err  error
}

// wsClient is the loop-owned state of one connection.
type wsClient struct {
	id         uint64
	conn       net.Conn
	remote     string
	handshake  bool
	stuck      bool
	buf        []byte
	decoder    *websocket.Decoder
	endpointID string
}

// deadlineWriter bounds every write to the connection.
type deadlineWriter struct {
	conn    net.Conn
	timeout time.Duration
}

func (w deadlineWriter) Write(p []byte) (int, error) {
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
	return w.conn.Write(p)
}

// WSServer is the raw WebSocket MTP. A single loop goroutine owns every client;
// reader goroutines only forward bytes to it. Outbound records are pushed on each tick.
type WSServer struct {
	addr         string
	path         string
	pollInterval time.Duration
	writeTimeout time.Duration
	queue        OutboundQueue
	devices      DeviceStatus
	connections  ConnectionLog
	onConnect    func(ctx context.Context, endpointID string)
	processor    RecordProcessor
	log          zerolog.Logger
	metrics      *metrics.ACSMetrics

	events   chan wsEvent
	calls    chan func()
	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup

	// loop-owned
	nextID     uint64
	clients    map[uint64]*wsClient
	byEndpoint map[string]uint64
}

// NewWSServer creates a server. Queue defaults to an in-memory queue.
func NewWSServer(processor RecordProcessor, cfg WSServerConfig) *WSServer {
	if cfg.Path == "" {
		cfg.Path = "/usp"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Queue == nil {
		cfg.Queue = NewMemoryQueue()
	}
	return &WSServer{
		addr:         cfg.Addr,
		path:         cfg.Path,
		pollInterval: cfg.PollInterval,
		writeTimeout: cfg.WriteTimeout,
		queue:        cfg.Queue,
		devices:      cfg.Devices,
		connections:  cfg.Connections,
		onConnect:    cfg.OnConnect,
		processor:    processor,
		log:          cfg.Logger,
		metrics:      cfg.Metrics,
		events:       make(chan wsEvent, 64),
		calls:        make(chan func()),
		done:         make(chan struct{}),
		clients:      make(map[uint64]*wsClient),
		byEndpoint:   make(map[string]uint64),
	}
}

// ListenAndServe binds the configured address and runs the loop until ctx is done.
func (s *WSServer) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind WebSocket MTP on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the event loop on ln until ctx is done.
func (s *WSServer) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Str("path", s.path).Msg("🔌 USP WebSocket server listening")

	s.wg.Add(1)
	go s.acceptLoop(ln)

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	defer s.shutdown(ln)

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("🛑 USP WebSocket server shutting down")
			return nil
		case ev := <-s.events:
			s.handleEvent(ctx, ev)
		case fn := <-s.calls:
			fn()
		case <-ticker.C:
			s.drainQueues(ctx)
		}
	}
}

func (s *WSServer) shutdown(ln net.Listener) {
	s.doneOnce.Do(func() { close(s.done) })
	_ = ln.Close()
	for _, c := range s.clients {
		_ = c.conn.Close()
	}
	s.wg.Wait()
}

func (s *WSServer) emit(ev wsEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

func (s *WSServer) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			s.log.Error().Err(err).Msg("❌ WebSocket accept failed")
			return
		}
		if !s.emit(wsEvent{kind: wsAccepted, conn: conn}) {
			_ = conn.Close()
			return
		}
	}
}

func (s *WSServer) readLoop(id uint64, conn net.Conn) {
	defer s.wg.Done()
	buf := make([]byte, readChunk)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !s.emit(wsEvent{kind: wsData, id: id, data: chunk}) {
				return
			}
		}
		if err != nil {
			s.emit(wsEvent{kind: wsClosed, id: id, err: err})
			return
		}
	}
}

func (s *WSServer) handleEvent(ctx context.Context, ev wsEvent) {
	switch ev.kind {
	case wsAccepted:
		s.nextID++
		c := &wsClient{id: s.nextID, conn: ev.conn, remote: ev.conn.RemoteAddr().String()}
		c.decoder = websocket.NewDecoder(deadlineWriter{conn: ev.conn, timeout: s.writeTimeout}, s.log)
		s.clients[c.id] = c
		s.metrics.SetWebSocketClients(len(s.clients))
		s.log.Debug().Uint64("conn_id", c.id).Str("remote", c.remote).Msg("🆕 WebSocket connection accepted")

		s.wg.Add(1)
		go s.readLoop(c.id, ev.conn)

	case wsData:
		if c, ok := s.clients[ev.id]; ok {
			s.handleData(ctx, c, ev.data)
		}

	case wsClosed:
		if c, ok := s.clients[ev.id]; ok {
			s.disconnect(ctx, c, ev.err.Error())
		}
	}
}

func (s *WSServer) handleData(ctx context.Context, c *wsClient, data []byte) {
	if !c.handshake {
		if c.stuck {
			return
		}
		c.buf = append(c.buf, data...)
		hs, complete := websocket.ParseHandshake(c.buf)
		if !complete {
			if len(c.buf) > maxHandshakeBytes {
				s.disconnect(ctx, c, "handshake too large")
			}
			return
		}
		if hs.Key == "" {
			// No reply; the connection idles until the peer gives up.
			s.log.Warn().Uint64("conn_id", c.id).Str("remote", c.remote).Msg("⚠️ WebSocket handshake without Sec-WebSocket-Key")
			c.stuck = true
			c.buf = nil
			return
		}
		if path, _, _ := strings.Cut(hs.Path, "?"); path != s.path {
			s.log.Warn().Str("path", hs.Path).Str("remote", c.remote).Msg("⚠️ WebSocket handshake on unknown path")
			_ = s.write(c, []byte("HTTP/1.1 404 Not Found\r\nContent-Length: 0\r\nConnection: close\r\n\r\n"))
			s.disconnect(ctx, c, "unknown path")
			return
		}
		if err := s.write(c, websocket.HandshakeResponse(hs.Key, websocket.SelectProtocol(hs.Protocol))); err != nil {
			s.disconnect(ctx, c, "handshake write failed")
			return
		}
		c.handshake = true
		data = c.buf[hs.Length:]
		c.buf = nil
		s.log.Debug().Uint64("conn_id", c.id).Msg("✅ WebSocket handshake completed")
		if len(data) == 0 {
			return
		}
	}

	msgs, err := c.decoder.Feed(data)
	for _, m := range msgs {
		s.handleRecord(ctx, c, m)
		if _, ok := s.clients[c.id]; !ok {
			return
		}
	}
	if err != nil {
		s.log.Warn().Err(err).Uint64("conn_id", c.id).Msg("⚠️ WebSocket frame error")
		s.metrics.RecordUSPError(usp.MTPWebSocket, "frame")
		s.disconnect(ctx, c, err.Error())
		return
	}
	if c.decoder.Closed() {
		_ = s.write(c, websocket.EncodeControl(websocket.OpClose, nil))
		s.disconnect(ctx, c, "close frame")
	}
}

func (s *WSServer) handleRecord(ctx context.Context, c *wsClient, raw []byte) {
	var bound string
	if rec, err := usp.UnmarshalRecord(raw); err == nil && rec.FromID != "" {
		if s.bind(ctx, c, rec.FromID) {
			bound = rec.FromID
		}
	}

	resp, err := s.processor.Process(ctx, raw, usp.MTPWebSocket)
	if err != nil {
		s.log.Warn().Err(err).Uint64("conn_id", c.id).Msg("⚠️ Dropping WebSocket record")
	} else if resp != nil {
		if err := s.write(c, websocket.EncodeFrame(resp)); err != nil {
			s.disconnect(ctx, c, "write failed")
			return
		}
	}

	if bound != "" && s.onConnect != nil {
		s.onConnect(ctx, bound)
	}
}

// bind maps endpointID to c. It reports whether the mapping is new.
func (s *WSServer) bind(ctx context.Context, c *wsClient, endpointID string) bool {
	if c.endpointID == endpointID && s.byEndpoint[endpointID] == c.id {
		return false
	}
	if c.endpointID != "" && s.byEndpoint[c.endpointID] == c.id {
		delete(s.byEndpoint, c.endpointID)
	}
	c.endpointID = endpointID
	s.byEndpoint[endpointID] = c.id
	s.recordEvent(ctx, endpointID, c.remote, "connected")
	s.log.Info().Str("endpoint_id", endpointID).Uint64("conn_id", c.id).Msg("✅ USP agent connected over WebSocket")
	return true
}

func (s *WSServer) disconnect(ctx context.Context, c *wsClient, reason string) {
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	delete(s.clients, c.id)
	_ = c.conn.Close()
	s.metrics.SetWebSocketClients(len(s.clients))

	if c.endpointID != "" && s.byEndpoint[c.endpointID] == c.id {
		delete(s.byEndpoint, c.endpointID)
		if s.devices != nil {
			if err := s.devices.MarkOffline(ctx, c.endpointID); err != nil {
				s.log.Warn().Err(err).Str("endpoint_id", c.endpointID).Msg("⚠️ Failed to mark device offline")
			}
		}
		s.recordEvent(ctx, c.endpointID, c.remote, "disconnected")
	}
	s.log.Info().Uint64("conn_id", c.id).Str("endpoint_id", c.endpointID).Str("reason", reason).Msg("🔚 WebSocket client disconnected")
}

func (s *WSServer) recordEvent(ctx context.Context, endpointID, remote, kind string) {
	if s.connections == nil {
		return
	}
	ev := &store.ConnectionEvent{EndpointID: endpointID, MTPType: usp.MTPWebSocket, EventType: kind, RemoteAddr: remote}
	if err := s.connections.Record(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("endpoint_id", endpointID).Msg("⚠️ Failed to record connection event")
	}
}

func (s *WSServer) write(c *wsClient, b []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if _, err := c.conn.Write(b); err != nil {
		s.metrics.RecordPublishError(usp.MTPWebSocket)
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// drainQueues pushes queued records to every bound client.
func (s *WSServer) drainQueues(ctx context.Context) {
	for endpointID, id := range s.byEndpoint {
		c := s.clients[id]
		records, err := s.queue.Drain(ctx, endpointID)
		if err != nil {
			s.log.Warn().Err(err).Str("endpoint_id", endpointID).Msg("⚠️ Outbound queue drain failed")
			continue
		}
		for i, rec := range records {
			if err := s.write(c, websocket.EncodeFrame(rec)); err != nil {
				for _, rest := range records[i:] {
					_ = s.queue.Push(ctx, endpointID, rest)
				}
				s.disconnect(ctx, c, "write failed")
				break
			}
			s.log.Debug().Str("endpoint_id", endpointID).Int("bytes", len(rec)).Msg("📤 WebSocket record pushed")
		}
	}
}

// Send queues a record for endpointID; it is pushed on the next tick once the agent is connected.
func (s *WSServer) Send(ctx context.Context, endpointID, msgID string, record []byte) error {
	if err := s.queue.Push(ctx, endpointID, record); err != nil {
		return fmt.Errorf("failed to queue record %s: %w", msgID, err)
	}
	s.log.Debug().Str("endpoint_id", endpointID).Str("msg_id", msgID).Msg("📋 WebSocket record queued")
	return nil
}

// inLoop runs fn on the loop goroutine and waits for it.
func (s *WSServer) inLoop(ctx context.Context, fn func()) bool {
	finished := make(chan struct{})
	select {
	case s.calls <- func() { fn(); close(finished) }:
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
	<-finished
	return true
}

// Connected reports whether endpointID has a live connection.
func (s *WSServer) Connected(ctx context.Context, endpointID string) bool {
	var ok bool
	s.inLoop(ctx, func() { _, ok = s.byEndpoint[endpointID] })
	return ok
}

// ClientCount returns the number of open connections.
func (s *WSServer) ClientCount(ctx context.Context) int {
	var n int
	s.inLoop(ctx, func() { n = len(s.clients) })
	return n
}
