package store

import (
	"time"
)

// Protocol types
const (
	ProtocolTR069 = "tr069"
	ProtocolTR369 = "tr369"
)

// Device statuses
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Connection-request auth methods
const (
	AuthNone   = "none"
	AuthBasic  = "basic"
	AuthDigest = "digest"
)

// Task statuses
const (
	TaskPending    = "pending"
	TaskProcessing = "processing"
	TaskCompleted  = "completed"
	TaskFailed     = "failed"
)

// Pending request statuses
const (
	RequestPending   = "pending"
	RequestDelivered = "delivered"
	RequestExpired   = "expired"
)

// Device is a managed CPE or USP agent.
// TR-069 devices use EndpointID = OUI-ProductClass-SerialNumber.
type Device struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	EndpointID      string `gorm:"uniqueIndex;not null" json:"endpoint_id"`
	OUI             string `json:"oui"`
	ProductClass    string `json:"product_class"`
	SerialNumber    string `gorm:"index" json:"serial_number"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
	HardwareVersion string `json:"hardware_version"`
	ProtocolType    string `gorm:"not null" json:"protocol_type"` // tr069, tr369
	MTPType         string `json:"mtp_type"`                      // http, mqtt, websocket
	Status          string `gorm:"default:'offline'" json:"status"`
	IPAddress       string `json:"ip_address"`

	LastContact *time.Time `json:"last_contact"`
	LastInform  *time.Time `json:"last_inform"`

	ConnectionRequestURL      string `json:"connection_request_url"`
	ConnectionRequestUsername string `json:"connection_request_username"`
	ConnectionRequestPassword string `json:"-"`
	AuthMethod                string `gorm:"default:'none'" json:"auth_method"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Parameter is a data-model value for a device, unique per (device, path).
type Parameter struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DeviceID    uint      `gorm:"not null;uniqueIndex:idx_parameters_device_path" json:"device_id"`
	Path        string    `gorm:"not null;uniqueIndex:idx_parameters_device_path" json:"path"`
	Value       string    `json:"value"`
	Type        string    `json:"type"` // xsd:string, xsd:unsignedInt, xsd:boolean, ...
	Writable    bool      `gorm:"default:false" json:"writable"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProvisioningTask is a unit of work queued by the task collaborator.
// TaskData and ResultData hold JSON documents.
type ProvisioningTask struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	DeviceID    uint       `gorm:"not null;index" json:"device_id"`
	Type        string     `gorm:"not null" json:"type"`
	Status      string     `gorm:"not null;index;default:'pending'" json:"status"`
	TaskData    string     `gorm:"type:text" json:"task_data"`
	ResultData  string     `gorm:"type:text" json:"result_data"`
	CommandKey  string     `gorm:"index" json:"command_key"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// PendingRequest is a serialized USP record waiting for an HTTP-polling agent.
type PendingRequest struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	MessageID   string     `gorm:"uniqueIndex;not null" json:"message_id"`
	EndpointID  string     `gorm:"index;not null" json:"endpoint_id"`
	Payload     []byte     `json:"-"`
	Status      string     `gorm:"index;default:'pending'" json:"status"`
	ExpiresAt   time.Time  `gorm:"index" json:"expires_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SessionRecord is the persisted snapshot of a TR-069 session.
// PendingCommands holds the FIFO as an ordered JSON list.
type SessionRecord struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Token           string     `gorm:"uniqueIndex;not null" json:"token"`
	DeviceID        uint       `gorm:"not null;index" json:"device_id"`
	Status          string     `gorm:"not null" json:"status"` // active, closed, timeout
	SourceIP        string     `json:"source_ip"`
	PendingCommands string     `gorm:"type:text" json:"pending_commands"`
	LastCommand     string     `gorm:"type:text" json:"last_command"`
	MessageCounter  uint64     `json:"message_counter"`
	StartedAt       time.Time  `json:"started_at"`
	LastActivity    time.Time  `json:"last_activity"`
	EndedAt         *time.Time `json:"ended_at"`
}

// ConnectionEvent records MTP connects and disconnects of push-transport agents.
type ConnectionEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DeviceID   uint      `gorm:"index" json:"device_id"`
	EndpointID string    `gorm:"index;not null" json:"endpoint_id"`
	MTPType    string    `gorm:"not null" json:"mtp_type"`
	EventType  string    `gorm:"not null" json:"event_type"` // connected, disconnected
	RemoteAddr string    `json:"remote_addr"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Device) TableName() string {
	return "devices"
}

func (Parameter) TableName() string {
	return "parameters"
}

func (ProvisioningTask) TableName() string {
	return "provisioning_tasks"
}

func (PendingRequest) TableName() string {
	return "pending_requests"
}

func (SessionRecord) TableName() string {
	return "tr069_sessions"
}

func (ConnectionEvent) TableName() string {
	return "connection_events"
}
