package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTaskNotPending is returned when a task was claimed by someone else first.
var ErrTaskNotPending = errors.New("store: task is not pending")

// TaskRepository reads and transitions provisioning tasks.
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create queues a task. data is marshalled to JSON; a missing id is generated.
func (r *TaskRepository) Create(ctx context.Context, deviceID uint, taskType string, data interface{}) (*ProvisioningTask, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task data: %w", err)
	}
	task := &ProvisioningTask{
		ID:       uuid.NewString(),
		DeviceID: deviceID,
		Type:     taskType,
		Status:   TaskPending,
		TaskData: string(raw),
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// Get retrieves a task by id.
func (r *TaskRepository) Get(ctx context.Context, id string) (*ProvisioningTask, error) {
	var task ProvisioningTask
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// NextPending returns the oldest pending task of a device, or ErrNotFound.
func (r *TaskRepository) NextPending(ctx context.Context, deviceID uint) (*ProvisioningTask, error) {
	var task ProvisioningTask
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND status = ?", deviceID, TaskPending).
		Order("created_at, id").
		First(&task).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// MarkProcessing moves a pending task to processing and records its command key.
// It fails with ErrTaskNotPending if the task already left the pending state.
func (r *TaskRepository) MarkProcessing(ctx context.Context, id, commandKey string) error {
	res := r.db.WithContext(ctx).Model(&ProvisioningTask{}).
		Where("id = ? AND status = ?", id, TaskPending).
		Updates(map[string]interface{}{"status": TaskProcessing, "command_key": commandKey})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTaskNotPending
	}
	return nil
}

// Complete marks a task completed and stores result as JSON.
func (r *TaskRepository) Complete(ctx context.Context, id string, result interface{}) error {
	return r.finish(ctx, id, TaskCompleted, result)
}

// Fail marks a task failed and stores result as JSON.
func (r *TaskRepository) Fail(ctx context.Context, id string, result interface{}) error {
	return r.finish(ctx, id, TaskFailed, result)
}

func (r *TaskRepository) finish(ctx context.Context, id, status string, result interface{}) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode task result: %w", err)
	}
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&ProvisioningTask{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       status,
		"result_data":  string(raw),
		"completed_at": now,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindProcessing returns the oldest processing task of a device whose type is one of types.
// An empty types list matches any type.
func (r *TaskRepository) FindProcessing(ctx context.Context, deviceID uint, types ...string) (*ProvisioningTask, error) {
	q := r.db.WithContext(ctx).Where("device_id = ? AND status = ?", deviceID, TaskProcessing)
	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	var task ProvisioningTask
	if err := q.Order("updated_at, id").First(&task).Error; err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// FindByCommandKey returns the processing task of a device with the given command key.
func (r *TaskRepository) FindByCommandKey(ctx context.Context, deviceID uint, commandKey string) (*ProvisioningTask, error) {
	var task ProvisioningTask
	err := r.db.WithContext(ctx).
		Where("device_id = ? AND command_key = ? AND status = ?", deviceID, commandKey, TaskProcessing).
		First(&task).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &task, nil
}

// ListByDevice returns the tasks of a device, newest first.
func (r *TaskRepository) ListByDevice(ctx context.Context, deviceID uint) ([]ProvisioningTask, error) {
	var tasks []ProvisioningTask
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Order("created_at DESC").Find(&tasks).Error
	return tasks, err
}

// CountPending counts the pending tasks of a device.
func (r *TaskRepository) CountPending(ctx context.Context, deviceID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ProvisioningTask{}).
		Where("device_id = ? AND status = ?", deviceID, TaskPending).
		Count(&n).Error
	return n, err
}
