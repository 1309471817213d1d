package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository persists TR-069 session snapshots.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Save inserts or replaces the snapshot identified by rec.Token.
func (r *SessionRepository) Save(ctx context.Context, rec *SessionRecord) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "pending_commands", "last_command", "message_counter", "last_activity", "ended_at",
		}),
	}).Create(rec).Error
}

// GetByToken retrieves a session snapshot by its cookie token.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*SessionRecord, error) {
	var rec SessionRecord
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&rec).Error; err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// Close sets the final status of a session.
func (r *SessionRepository) Close(ctx context.Context, token, status string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&SessionRecord{}).Where("token = ?", token).Updates(map[string]interface{}{
		"status":   status,
		"ended_at": now,
	}).Error
}

// ActiveForDevice returns the active session snapshots of a device.
func (r *SessionRepository) ActiveForDevice(ctx context.Context, deviceID uint) ([]SessionRecord, error) {
	var recs []SessionRecord
	err := r.db.WithContext(ctx).Where("device_id = ? AND status = ?", deviceID, "active").Find(&recs).Error
	return recs, err
}

// ConnectionEventRepository records MTP connection history.
type ConnectionEventRepository struct {
	db *gorm.DB
}

// NewConnectionEventRepository creates a new connection event repository
func NewConnectionEventRepository(db *gorm.DB) *ConnectionEventRepository {
	return &ConnectionEventRepository{db: db}
}

// Record stores one connect or disconnect event.
func (r *ConnectionEventRepository) Record(ctx context.Context, ev *ConnectionEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

// ListByEndpoint returns the events of an endpoint, oldest first.
func (r *ConnectionEventRepository) ListByEndpoint(ctx context.Context, endpointID string) ([]ConnectionEvent, error) {
	var evs []ConnectionEvent
	err := r.db.WithContext(ctx).Where("endpoint_id = ?", endpointID).Order("id").Find(&evs).Error
	return evs, err
}
