package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/internal/usp"
)

// ErrNoSender is returned when no transport is registered for a device's MTP.
var ErrNoSender = errors.New("tasks: no sender for MTP")

// Sender delivers a serialized USP record to an agent over one MTP.
type Sender interface {
	Send(ctx context.Context, endpointID, msgID string, record []byte) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, endpointID, msgID string, record []byte) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, endpointID, msgID string, record []byte) error {
	return f(ctx, endpointID, msgID, record)
}

// RegisterSender installs the transport used for devices on mtp.
func (d *Dispatcher) RegisterSender(mtp string, s Sender) {
	d.sendersMu.Lock()
	defer d.sendersMu.Unlock()
	if d.senders == nil {
		d.senders = make(map[string]Sender)
	}
	d.senders[mtp] = s
}

func (d *Dispatcher) sender(mtp string) (Sender, bool) {
	d.sendersMu.RLock()
	defer d.sendersMu.RUnlock()
	s, ok := d.senders[mtp]
	return s, ok
}

// PushPending sends every pending task of a USP device as a request record and
// returns how many were sent. Outcomes arrive later through HandleUSPResponse.
func (d *Dispatcher) PushPending(ctx context.Context, dev *store.Device) (int, error) {
	if dev.ProtocolType != store.ProtocolTR369 {
		return 0, fmt.Errorf("device %d is not a USP device", dev.ID)
	}
	s, ok := d.sender(dev.MTPType)
	if !ok {
		return 0, fmt.Errorf("%w %q", ErrNoSender, dev.MTPType)
	}

	sent := 0
	for {
		task, err := d.tasks.NextPending(ctx, dev.ID)
		if errors.Is(err, store.ErrNotFound) {
			return sent, nil
		}
		if err != nil {
			return sent, fmt.Errorf("failed to read pending tasks: %w", err)
		}

		msg, err := BuildUSPRequest(task)
		if err != nil {
			d.log.Warn().Err(err).Str("task_id", task.ID).Msg("⚠️ Task cannot be sent over USP")
			if ferr := d.fail(ctx, task, map[string]interface{}{"error": err.Error()}); ferr != nil {
				return sent, ferr
			}
			continue
		}
		record, err := usp.SerializeMsgInRecord(msg, dev.EndpointID, d.controllerID, d.version)
		if err != nil {
			return sent, err
		}

		if err := d.Claim(ctx, task); err != nil {
			if errors.Is(err, store.ErrTaskNotPending) {
				continue
			}
			return sent, err
		}
		if err := s.Send(ctx, dev.EndpointID, msg.Header.MsgID, record); err != nil {
			d.log.Error().Err(err).Str("task_id", task.ID).Str("endpoint_id", dev.EndpointID).Msg("❌ USP request not delivered")
			if ferr := d.fail(ctx, task, map[string]interface{}{"error": err.Error(), "mtp": dev.MTPType}); ferr != nil {
				return sent, ferr
			}
			continue
		}
		d.log.Info().Str("task_id", task.ID).Str("endpoint_id", dev.EndpointID).Str("msg_type", usp.MessageType(msg).String()).Msg("📤 USP request sent")
		sent++
	}
}
