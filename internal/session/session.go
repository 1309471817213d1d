// Package session manages TR-069 CWMP sessions: cookie binding, timeouts,
// the per-session pending-command FIFO and the per-session message id counter.
package session

import (
	"sync"
	"time"
)

// Status of a session.
type Status string

const (
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
	StatusTimeout Status = "timeout"
)

// CommandType names the CWMP RPC a command renders to.
type CommandType string

const (
	GetParameterValues CommandType = "GetParameterValues"
	SetParameterValues CommandType = "SetParameterValues"
	Reboot             CommandType = "Reboot"
	Download           CommandType = "Download"
)

// ParameterValue is a name/value pair with its xsd type.
type ParameterValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type,omitempty"`
}

// DownloadArgs are the arguments of a Download RPC.
type DownloadArgs struct {
	FileType       string `json:"file_type"`
	URL            string `json:"url"`
	Username       string `json:"username,omitempty"`
	Password       string `json:"password,omitempty"`
	FileSize       uint64 `json:"file_size,omitempty"`
	TargetFileName string `json:"target_file_name,omitempty"`
	DelaySeconds   uint32 `json:"delay_seconds,omitempty"`
	SuccessURL     string `json:"success_url,omitempty"`
	FailureURL     string `json:"failure_url,omitempty"`
}

// Command is one RPC waiting to be sent to the CPE.
type Command struct {
	Type CommandType `json:"type"`
	// Names for GetParameterValues.
	Names []string `json:"names,omitempty"`
	// Values and ParameterKey for SetParameterValues.
	Values       []ParameterValue `json:"values,omitempty"`
	ParameterKey string           `json:"parameter_key,omitempty"`
	// CommandKey for Reboot and Download.
	CommandKey string        `json:"command_key,omitempty"`
	Download   *DownloadArgs `json:"download,omitempty"`
	// TaskID correlates the command with its provisioning task.
	TaskID string `json:"task_id,omitempty"`
}

// Session is one CWMP session bound to a device through its cookie token.
// All mutation goes through the Manager.
type Session struct {
	mu sync.Mutex

	token     string
	deviceID  uint
	sourceIP  string
	createdAt time.Time

	status       Status
	lastActivity time.Time
	queue        *Queue
	lastSent     *Command
	inFlight     *Command
	msgCounter   uint64
	endedAt      *time.Time
}

// Token returns the cookie value identifying the session.
func (s *Session) Token() string { return s.token }

// DeviceID returns the bound device.
func (s *Session) DeviceID() uint { return s.deviceID }

// SourceIP returns the address the session was opened from.
func (s *Session) SourceIP() string { return s.sourceIP }

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Status returns the current status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastActivity returns the time of the last exchange.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// PendingCount returns the number of queued commands.
func (s *Session) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// LastSent returns the most recently popped command.
func (s *Session) LastSent() (Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSent == nil {
		return Command{}, false
	}
	return *s.lastSent, true
}

// InFlight returns the command whose response is awaited.
func (s *Session) InFlight() (Command, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight == nil {
		return Command{}, false
	}
	return *s.inFlight, true
}

// Snapshot is the persisted form of a session.
type Snapshot struct {
	Token          string
	DeviceID       uint
	SourceIP       string
	Status         Status
	Pending        []Command
	LastSent       *Command
	MessageCounter uint64
	CreatedAt      time.Time
	LastActivity   time.Time
	EndedAt        *time.Time
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Token:          s.token,
		DeviceID:       s.deviceID,
		SourceIP:       s.sourceIP,
		Status:         s.status,
		Pending:        s.queue.Items(),
		MessageCounter: s.msgCounter,
		CreatedAt:      s.createdAt,
		LastActivity:   s.lastActivity,
		EndedAt:        s.endedAt,
	}
	if s.lastSent != nil {
		c := *s.lastSent
		snap.LastSent = &c
	}
	return snap
}
