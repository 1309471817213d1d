package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
)

// DefaultTimeout is the session inactivity timeout.
const DefaultTimeout = 30 * time.Second

var (
	// ErrNotFound is returned for unknown session tokens.
	ErrNotFound = errors.New("session: not found")
	// ErrExpired is returned for sessions that are closed or timed out.
	ErrExpired = errors.New("session: expired")
)

// Snapshotter persists session snapshots. Failures are logged, never returned to the engine.
type Snapshotter interface {
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// Releaser takes back the command a session was still waiting on when it ended.
type Releaser interface {
	Release(ctx context.Context, cmd Command, status Status)
}

// Config configures a Manager.
type Config struct {
	Timeout     time.Duration
	Logger      zerolog.Logger
	Metrics     *metrics.ACSMetrics
	Snapshotter Snapshotter
	Releaser    Releaser
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Manager owns every live CWMP session.
type Manager struct {
	timeout  time.Duration
	log      zerolog.Logger
	metrics  *metrics.ACSMetrics
	snapshot Snapshotter
	release  Releaser
	now      func() time.Time

	mu       sync.Mutex
	byToken  map[string]*Session
	byDevice map[uint]*Session

	locksMu sync.Mutex
	locks   map[uint]*deviceLock
}

type deviceLock struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a session manager.
func NewManager(cfg Config) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{
		timeout:  cfg.Timeout,
		log:      cfg.Logger,
		metrics:  cfg.Metrics,
		snapshot: cfg.Snapshotter,
		release:  cfg.Releaser,
		now:      cfg.Now,
		byToken:  make(map[string]*Session),
		byDevice: make(map[uint]*Session),
		locks:    make(map[uint]*deviceLock),
	}
}

// Timeout returns the configured inactivity timeout.
func (m *Manager) Timeout() time.Duration { return m.timeout }

// LockDevice serializes session work for one device. Call the returned func to unlock.
func (m *Manager) LockDevice(deviceID uint) func() {
	m.locksMu.Lock()
	l, ok := m.locks[deviceID]
	if !ok {
		l = &deviceLock{}
		m.locks[deviceID] = l
	}
	l.refs++
	m.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, deviceID)
		}
		m.locksMu.Unlock()
	}
}

// Create opens a new active session for a device. Any session still bound to
// the device is closed first, so at most one session per device is active.
func (m *Manager) Create(deviceID uint, sourceIP string) *Session {
	now := m.now()
	s := &Session{
		token:        uuid.NewString(),
		deviceID:     deviceID,
		sourceIP:     sourceIP,
		createdAt:    now,
		status:       StatusActive,
		lastActivity: now,
		queue:        NewQueue(),
	}

	m.mu.Lock()
	prior := m.byDevice[deviceID]
	m.byToken[s.token] = s
	m.byDevice[deviceID] = s
	m.mu.Unlock()

	if prior != nil {
		status := StatusClosed
		if m.IsTimedOut(prior) {
			status = StatusTimeout
		}
		m.Close(prior, status)
	}

	m.metrics.RecordSessionOpened()
	m.log.Info().Str("session", s.token).Uint("device_id", deviceID).Str("source_ip", sourceIP).Msg("🆕 CWMP session created")
	m.persist(s)
	return s
}

// FindByCookie returns the active session for token.
// Sessions past their timeout are closed with status timeout and reported as ErrExpired.
func (m *Manager) FindByCookie(token string) (*Session, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	m.mu.Lock()
	s, ok := m.byToken[token]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.Status() != StatusActive {
		return nil, ErrExpired
	}
	if m.IsTimedOut(s) {
		m.Close(s, StatusTimeout)
		return nil, ErrExpired
	}
	return s, nil
}

// ActiveForDevice returns the active session bound to deviceID.
func (m *Manager) ActiveForDevice(deviceID uint) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.byDevice[deviceID]
	m.mu.Unlock()
	if !ok || s.Status() != StatusActive || m.IsTimedOut(s) {
		return nil, false
	}
	return s, true
}

// Touch records activity on s.
func (m *Manager) Touch(s *Session) {
	s.mu.Lock()
	s.lastActivity = m.now()
	s.mu.Unlock()
}

// IsTimedOut reports whether s has been idle longer than the timeout.
func (m *Manager) IsTimedOut(s *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return m.now().Sub(s.lastActivity) > m.timeout
}

// AddPendingCommand appends cmd to the session FIFO.
func (m *Manager) AddPendingCommand(s *Session, cmd Command) {
	s.mu.Lock()
	s.queue.Push(cmd)
	n := s.queue.Len()
	s.mu.Unlock()

	m.log.Debug().Str("session", s.token).Str("command", string(cmd.Type)).Int("pending", n).Msg("Command queued")
	m.persist(s)
}

// PopNextCommand removes the head of the FIFO and records it as last sent and in flight.
func (m *Manager) PopNextCommand(s *Session) (Command, bool) {
	s.mu.Lock()
	cmd, ok := s.queue.Pop()
	if ok {
		c := cmd
		s.lastSent = &c
		s.inFlight = &c
	}
	s.mu.Unlock()

	if ok {
		m.persist(s)
	}
	return cmd, ok
}

// Acknowledge clears the in-flight command and returns it.
func (m *Manager) Acknowledge(s *Session) (Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		return Command{}, false
	}
	cmd := *s.inFlight
	s.inFlight = nil
	return cmd, true
}

// NextMessageID returns the next CWMP message id of s, starting at 1.
func (m *Manager) NextMessageID(s *Session) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgCounter++
	return s.msgCounter
}

// Close ends s with status. Closing an already ended session is a no-op.
// A command still in flight is handed to the Releaser.
func (m *Manager) Close(s *Session, status Status) {
	s.mu.Lock()
	if s.status != StatusActive {
		s.mu.Unlock()
		return
	}
	now := m.now()
	s.status = status
	s.endedAt = &now
	unanswered := s.inFlight
	s.inFlight = nil
	s.mu.Unlock()

	m.mu.Lock()
	delete(m.byToken, s.token)
	if m.byDevice[s.deviceID] == s {
		delete(m.byDevice, s.deviceID)
	}
	m.mu.Unlock()

	m.metrics.RecordSessionClosed(string(status))
	m.log.Info().Str("session", s.token).Uint("device_id", s.deviceID).Str("status", string(status)).Msg("🔚 CWMP session ended")
	m.persist(s)

	if unanswered != nil {
		m.log.Warn().Str("session", s.token).Str("command", string(unanswered.Type)).Str("task_id", unanswered.TaskID).Msg("⚠️ Session ended with RPC unanswered")
		if m.release != nil {
			m.release.Release(context.Background(), *unanswered, status)
		}
	}
}

// Sweep closes every timed-out session and returns how many were closed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.byToken))
	for _, s := range m.byToken {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	closed := 0
	for _, s := range sessions {
		if m.IsTimedOut(s) {
			m.Close(s, StatusTimeout)
			closed++
		}
	}
	return closed
}

// Run sweeps timed-out sessions every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.log.Debug().Int("closed", n).Msg("Swept timed-out CWMP sessions")
			}
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byToken)
}

func (m *Manager) persist(s *Session) {
	if m.snapshot == nil {
		return
	}
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if err := m.snapshot.SaveSnapshot(context.Background(), snap); err != nil {
		m.log.Warn().Err(err).Str("session", s.token).Msg("⚠️ Session snapshot not saved")
	}
}
