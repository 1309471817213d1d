package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PendingRequestRepository stores outbound USP records for HTTP-polling agents.
type PendingRequestRepository struct {
	db *gorm.DB
}

// NewPendingRequestRepository creates a new pending request repository
func NewPendingRequestRepository(db *gorm.DB) *PendingRequestRepository {
	return &PendingRequestRepository{db: db}
}

// Create stores a pending request.
func (r *PendingRequestRepository) Create(ctx context.Context, req *PendingRequest) error {
	if req.Status == "" {
		req.Status = RequestPending
	}
	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("failed to store pending request %s: %w", req.MessageID, err)
	}
	return nil
}

// TakePending returns the unexpired pending requests of an endpoint, oldest first,
// and marks them delivered. Requests past their expiry are marked expired and skipped.
func (r *PendingRequestRepository) TakePending(ctx context.Context, endpointID string, now time.Time) ([]PendingRequest, error) {
	var out []PendingRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&PendingRequest{}).
			Where("endpoint_id = ? AND status = ? AND expires_at <= ?", endpointID, RequestPending, now).
			Update("status", RequestExpired).Error
		if err != nil {
			return err
		}

		if err := tx.Where("endpoint_id = ? AND status = ?", endpointID, RequestPending).
			Order("created_at, id").Find(&out).Error; err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}

		ids := make([]uint, len(out))
		for i := range out {
			ids[i] = out[i].ID
			out[i].Status = RequestDelivered
			out[i].DeliveredAt = &now
		}
		return tx.Model(&PendingRequest{}).Where("id IN ?", ids).Updates(map[string]interface{}{
			"status":       RequestDelivered,
			"delivered_at": now,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take pending requests for %s: %w", endpointID, err)
	}
	return out, nil
}

// ExpireStale marks every pending request past its expiry as expired.
func (r *PendingRequestRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&PendingRequest{}).
		Where("status = ? AND expires_at <= ?", RequestPending, now).
		Update("status", RequestExpired)
	return res.RowsAffected, res.Error
}

// GetByMessageID retrieves a pending request by USP message id.
func (r *PendingRequestRepository) GetByMessageID(ctx context.Context, msgID string) (*PendingRequest, error) {
	var req PendingRequest
	if err := r.db.WithContext(ctx).Where("message_id = ?", msgID).First(&req).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}
