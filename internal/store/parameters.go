package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ParameterRepository handles parameter-related database operations
type ParameterRepository struct {
	db *gorm.DB
}

// NewParameterRepository creates a new parameter repository
func NewParameterRepository(db *gorm.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

// Upsert creates or updates parameters keyed by (device, path).
func (r *ParameterRepository) Upsert(ctx context.Context, deviceID uint, params []Parameter) error {
	if len(params) == 0 {
		return nil
	}
	now := time.Now()
	rows := make([]Parameter, len(params))
	for i, p := range params {
		p.ID = 0
		p.DeviceID = deviceID
		p.LastUpdated = now
		rows[i] = p
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "last_updated", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert %d parameters for device %d: %w", len(rows), deviceID, err)
	}
	return nil
}

// SetParameters upserts path/value pairs, keeping any stored type.
func (r *ParameterRepository) SetParameters(ctx context.Context, deviceID uint, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	paths := make([]string, 0, len(values))
	for path := range values {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	now := time.Now()
	rows := make([]Parameter, len(paths))
	for i, path := range paths {
		rows[i] = Parameter{DeviceID: deviceID, Path: path, Value: values[path], LastUpdated: now}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}, {Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "last_updated", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to set %d parameters for device %d: %w", len(rows), deviceID, err)
	}
	return nil
}

// GetParameters returns values for exact paths and every parameter below partial paths ending in ".".
func (r *ParameterRepository) GetParameters(ctx context.Context, deviceID uint, paths []string) (map[string]string, error) {
	var exact []string
	query := r.db.WithContext(ctx).Model(&Parameter{}).Where("device_id = ?", deviceID)

	var cond *gorm.DB
	for _, p := range paths {
		if !strings.HasSuffix(p, ".") {
			exact = append(exact, p)
			continue
		}
		like := r.db.Where("path LIKE ? ESCAPE '\\'", escapeLike(p)+"%")
		if cond == nil {
			cond = like
		} else {
			cond = cond.Or(like)
		}
	}
	if len(exact) > 0 {
		in := r.db.Where("path IN ?", exact)
		if cond == nil {
			cond = in
		} else {
			cond = cond.Or(in)
		}
	}
	if cond == nil {
		return map[string]string{}, nil
	}

	var params []Parameter
	if err := query.Where(cond).Find(&params).Error; err != nil {
		return nil, fmt.Errorf("failed to read parameters for device %d: %w", deviceID, err)
	}
	out := make(map[string]string, len(params))
	for _, p := range params {
		out[p.Path] = p.Value
	}
	return out, nil
}

// GetByDeviceID retrieves all parameters for a device ordered by path
func (r *ParameterRepository) GetByDeviceID(ctx context.Context, deviceID uint) ([]Parameter, error) {
	var parameters []Parameter
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("path").Find(&parameters).Error
	return parameters, err
}

// Delete deletes a parameter
func (r *ParameterRepository) Delete(ctx context.Context, deviceID uint, path string) error {
	return r.db.WithContext(ctx).Where("device_id = ? AND path = ?", deviceID, path).Delete(&Parameter{}).Error
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
