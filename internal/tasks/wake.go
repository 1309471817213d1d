package tasks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/connreq"
	"github.com/dexter939/EvoAcs-sub001/internal/store"
)

// DeviceLookup loads devices.
type DeviceLookup interface {
	GetByID(ctx context.Context, id uint) (*store.Device, error)
	GetByEndpointID(ctx context.Context, endpointID string) (*store.Device, error)
}

// ConnectionRequester asks a CWMP device to open a session.
type ConnectionRequester interface {
	RequestDevice(ctx context.Context, deviceID uint) (*connreq.Result, error)
}

// Waker gets newly queued tasks moving: CWMP devices are sent a connection request,
// USP devices have their pending tasks pushed over their MTP.
type Waker struct {
	devices    DeviceLookup
	requester  ConnectionRequester
	dispatcher *Dispatcher
	log        zerolog.Logger
}

// NewWaker creates a Waker.
func NewWaker(devices DeviceLookup, requester ConnectionRequester, dispatcher *Dispatcher, log zerolog.Logger) *Waker {
	return &Waker{devices: devices, requester: requester, dispatcher: dispatcher, log: log}
}

// Wake prompts deviceID to pick up its pending tasks.
func (w *Waker) Wake(ctx context.Context, deviceID uint) error {
	dev, err := w.devices.GetByID(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("failed to load device %d: %w", deviceID, err)
	}

	switch dev.ProtocolType {
	case store.ProtocolTR069:
		if w.requester == nil {
			return fmt.Errorf("no connection requester configured")
		}
		res, err := w.requester.RequestDevice(ctx, dev.ID)
		if err != nil {
			return err
		}
		w.log.Info().Uint("device_id", dev.ID).Int("attempts", res.Attempts).Msg("🔄 Connection request sent")
		return nil

	case store.ProtocolTR369:
		n, err := w.dispatcher.PushPending(ctx, dev)
		if err != nil {
			return err
		}
		w.log.Info().Uint("device_id", dev.ID).Int("sent", n).Msg("🔄 Pending USP tasks pushed")
		return nil

	default:
		return fmt.Errorf("device %d has unknown protocol %q", dev.ID, dev.ProtocolType)
	}
}

// WakeEndpoint pushes pending tasks of the USP device behind endpointID. It suits MTP connect hooks.
func (w *Waker) WakeEndpoint(ctx context.Context, endpointID string) {
	dev, err := w.devices.GetByEndpointID(ctx, endpointID)
	if err != nil {
		w.log.Warn().Err(err).Str("endpoint_id", endpointID).Msg("⚠️ Cannot resolve connected agent")
		return
	}
	if _, err := w.dispatcher.PushPending(ctx, dev); err != nil {
		w.log.Warn().Err(err).Str("endpoint_id", endpointID).Msg("⚠️ Failed to push pending tasks")
	}
}
