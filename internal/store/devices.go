package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dexter939/EvoAcs-sub001/internal/usp"
)

// DeviceIdentity is the TR-069 DeviceId structure carried by Inform.
type DeviceIdentity struct {
	Manufacturer string
	OUI          string
	ProductClass string
	SerialNumber string
}

// EndpointID returns the stable key OUI-ProductClass-SerialNumber.
func (id DeviceIdentity) EndpointID() string {
	return id.OUI + "-" + id.ProductClass + "-" + id.SerialNumber
}

// DeviceRepository handles device-related database operations
type DeviceRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *gorm.DB) *DeviceRepository {
	return &DeviceRepository{db: db, now: time.Now}
}

// FindOrCreateUSP resolves a USP endpoint to a device id, registering it when unknown.
// Concurrent first contacts from the same endpoint produce a single row.
func (r *DeviceRepository) FindOrCreateUSP(ctx context.Context, endpointID, mtp string) (uint, bool, error) {
	now := r.now()
	dev := &Device{
		EndpointID:   endpointID,
		SerialNumber: usp.DeriveSerial(endpointID, now),
		ProtocolType: ProtocolTR369,
		MTPType:      mtp,
		Status:       StatusOnline,
		AuthMethod:   AuthNone,
		LastContact:  &now,
	}
	created, err := r.insertOrRefresh(ctx, dev, map[string]interface{}{
		"status":       StatusOnline,
		"last_contact": now,
		"mtp_type":     mtp,
	})
	if err != nil {
		return 0, false, err
	}
	return dev.ID, created, nil
}

// FindOrCreateTR069 resolves an Inform DeviceId to a device, registering it when unknown.
// The device is marked online with fresh last-inform and last-contact times.
func (r *DeviceRepository) FindOrCreateTR069(ctx context.Context, id DeviceIdentity, remoteIP string) (*Device, bool, error) {
	now := r.now()
	dev := &Device{
		EndpointID:   id.EndpointID(),
		OUI:          id.OUI,
		ProductClass: id.ProductClass,
		SerialNumber: id.SerialNumber,
		Manufacturer: id.Manufacturer,
		ProtocolType: ProtocolTR069,
		MTPType:      usp.MTPHTTP,
		Status:       StatusOnline,
		IPAddress:    remoteIP,
		AuthMethod:   AuthNone,
		LastContact:  &now,
		LastInform:   &now,
	}
	updates := map[string]interface{}{
		"status":       StatusOnline,
		"last_contact": now,
		"last_inform":  now,
	}
	if remoteIP != "" {
		updates["ip_address"] = remoteIP
	}
	if id.Manufacturer != "" {
		updates["manufacturer"] = id.Manufacturer
	}
	created, err := r.insertOrRefresh(ctx, dev, updates)
	if err != nil {
		return nil, false, err
	}
	return dev, created, nil
}

// insertOrRefresh inserts dev unless its endpoint id exists, in which case the
// existing row gets updates applied and is loaded into dev.
func (r *DeviceRepository) insertOrRefresh(ctx context.Context, dev *Device, updates map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "endpoint_id"}}, DoNothing: true}).
		Create(dev)
	if res.Error != nil {
		return false, fmt.Errorf("failed to register device %s: %w", dev.EndpointID, res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	endpointID := dev.EndpointID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Device{}).Where("endpoint_id = ?", endpointID).Updates(updates).Error; err != nil {
			return err
		}
		*dev = Device{}
		return tx.Where("endpoint_id = ?", endpointID).First(dev).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to refresh device %s: %w", endpointID, notFound(err))
	}
	return false, nil
}

// GetByID retrieves a device by ID
func (r *DeviceRepository) GetByID(ctx context.Context, id uint) (*Device, error) {
	var device Device
	if err := r.db.WithContext(ctx).First(&device, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

// GetByEndpointID retrieves a device by endpoint ID
func (r *DeviceRepository) GetByEndpointID(ctx context.Context, endpointID string) (*Device, error) {
	var device Device
	if err := r.db.WithContext(ctx).Where("endpoint_id = ?", endpointID).First(&device).Error; err != nil {
		return nil, notFound(err)
	}
	return &device, nil
}

// List retrieves devices with pagination
func (r *DeviceRepository) List(ctx context.Context, offset, limit int) ([]Device, error) {
	var devices []Device
	err := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&devices).Error
	return devices, err
}

// Count returns the total number of devices
func (r *DeviceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Device{}).Count(&count).Error
	return count, err
}

// MarkOffline sets status offline for the device with endpointID.
func (r *DeviceRepository) MarkOffline(ctx context.Context, endpointID string) error {
	return r.db.WithContext(ctx).Model(&Device{}).
		Where("endpoint_id = ?", endpointID).
		Update("status", StatusOffline).Error
}

// UpdateConnectionRequest stores the connection-request URL advertised by the device.
// Empty credentials leave the stored ones untouched.
func (r *DeviceRepository) UpdateConnectionRequest(ctx context.Context, id uint, url, username, password string) error {
	updates := map[string]interface{}{"connection_request_url": url}
	if username != "" {
		updates["connection_request_username"] = username
		updates["connection_request_password"] = password
	}
	return r.db.WithContext(ctx).Model(&Device{}).Where("id = ?", id).Updates(updates).Error
}

// SetAuthMethod sets how connection requests authenticate to the device.
func (r *DeviceRepository) SetAuthMethod(ctx context.Context, id uint, method string) error {
	switch method {
	case AuthNone, AuthBasic, AuthDigest:
	default:
		return fmt.Errorf("invalid auth method %q", method)
	}
	return r.db.WithContext(ctx).Model(&Device{}).Where("id = ?", id).Update("auth_method", method).Error
}

// UpdateSoftwareVersion records the firmware version reported by the device.
func (r *DeviceRepository) UpdateSoftwareVersion(ctx context.Context, id uint, version string) error {
	return r.db.WithContext(ctx).Model(&Device{}).Where("id = ?", id).Update("software_version", version).Error
}
