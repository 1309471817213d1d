package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/session"
	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/internal/usp"
	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
)

// TaskStore is the task collaborator.
type TaskStore interface {
	Get(ctx context.Context, id string) (*store.ProvisioningTask, error)
	NextPending(ctx context.Context, deviceID uint) (*store.ProvisioningTask, error)
	MarkProcessing(ctx context.Context, id, commandKey string) error
	Complete(ctx context.Context, id string, result interface{}) error
	Fail(ctx context.Context, id string, result interface{}) error
	FindByCommandKey(ctx context.Context, deviceID uint, commandKey string) (*store.ProvisioningTask, error)
	FindProcessing(ctx context.Context, deviceID uint, types ...string) (*store.ProvisioningTask, error)
}

// EventPublisher announces task status transitions.
type EventPublisher interface {
	PublishTaskStatus(ctx context.Context, taskID string, deviceID uint, taskType, status string, result interface{}) error
}

// Config configures a Dispatcher.
type Config struct {
	// ControllerID and Version address USP request records.
	ControllerID string
	Version      string
	Events       EventPublisher
	Logger       zerolog.Logger
	Metrics      *metrics.ACSMetrics
}

// Dispatcher is the only component that touches task storage.
type Dispatcher struct {
	tasks        TaskStore
	events       EventPublisher
	controllerID string
	version      string
	log          zerolog.Logger
	metrics      *metrics.ACSMetrics

	sendersMu sync.RWMutex
	senders   map[string]Sender
}

// NewDispatcher creates a dispatcher over tasks.
func NewDispatcher(tasks TaskStore, cfg Config) *Dispatcher {
	if cfg.Version == "" {
		cfg.Version = usp.DefaultVersion
	}
	return &Dispatcher{
		tasks:        tasks,
		events:       cfg.Events,
		controllerID: cfg.ControllerID,
		version:      cfg.Version,
		log:          cfg.Logger,
		metrics:      cfg.Metrics,
	}
}

// Next claims the oldest pending task of a device and returns it as a CWMP command.
// Tasks that cannot be expressed as a command are failed and skipped.
func (d *Dispatcher) Next(ctx context.Context, deviceID uint) (session.Command, bool, error) {
	for {
		task, err := d.tasks.NextPending(ctx, deviceID)
		if errors.Is(err, store.ErrNotFound) {
			return session.Command{}, false, nil
		}
		if err != nil {
			return session.Command{}, false, fmt.Errorf("failed to read pending tasks: %w", err)
		}

		cmd, err := ToCommand(task)
		if err != nil {
			d.log.Warn().Err(err).Str("task_id", task.ID).Msg("⚠️ Task cannot be sent over CWMP")
			if ferr := d.fail(ctx, task, map[string]interface{}{"error": err.Error()}); ferr != nil {
				return session.Command{}, false, ferr
			}
			continue
		}

		if err := d.tasks.MarkProcessing(ctx, task.ID, cmd.CommandKey); err != nil {
			if errors.Is(err, store.ErrTaskNotPending) {
				continue
			}
			return session.Command{}, false, err
		}
		d.transition(ctx, task, store.TaskProcessing, nil)
		return cmd, true, nil
	}
}

// MarkSent marks the task behind a session-queued command as processing.
// A task that already left the pending state is left alone.
func (d *Dispatcher) MarkSent(ctx context.Context, cmd session.Command) error {
	if cmd.TaskID == "" {
		return nil
	}
	err := d.tasks.MarkProcessing(ctx, cmd.TaskID, cmd.CommandKey)
	if errors.Is(err, store.ErrTaskNotPending) {
		return nil
	}
	if err != nil {
		return err
	}
	if task, err := d.tasks.Get(ctx, cmd.TaskID); err == nil {
		d.transition(ctx, task, store.TaskProcessing, nil)
	}
	return nil
}

// Claim marks a task processing before it is pushed over a USP transport.
func (d *Dispatcher) Claim(ctx context.Context, task *store.ProvisioningTask) error {
	if err := d.tasks.MarkProcessing(ctx, task.ID, task.ID); err != nil {
		return err
	}
	d.transition(ctx, task, store.TaskProcessing, nil)
	return nil
}

// Complete records a successful outcome.
func (d *Dispatcher) Complete(ctx context.Context, taskID string, result interface{}) error {
	task, err := d.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if err := d.tasks.Complete(ctx, taskID, result); err != nil {
		return err
	}
	d.transition(ctx, task, store.TaskCompleted, result)
	return nil
}

// Fail records a failed outcome. Faults are stored verbatim and never retried here.
func (d *Dispatcher) Fail(ctx context.Context, taskID string, result interface{}) error {
	task, err := d.tasks.Get(ctx, taskID)
	if err != nil {
		return err
	}
	return d.fail(ctx, task, result)
}

func (d *Dispatcher) fail(ctx context.Context, task *store.ProvisioningTask, result interface{}) error {
	if err := d.tasks.Fail(ctx, task.ID, result); err != nil {
		return err
	}
	d.transition(ctx, task, store.TaskFailed, result)
	return nil
}

// FindTransfer correlates a TransferComplete with its download task.
// An empty command key falls back to the oldest processing download; an
// unknown one matches nothing.
func (d *Dispatcher) FindTransfer(ctx context.Context, deviceID uint, commandKey string) (string, error) {
	var (
		task *store.ProvisioningTask
		err  error
	)
	if commandKey != "" {
		task, err = d.tasks.FindByCommandKey(ctx, deviceID, commandKey)
	} else {
		task, err = d.tasks.FindProcessing(ctx, deviceID, TypeDownload, TypeFirmwareUpgrade)
	}
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return task.ID, nil
}

// Release fails the processing task behind a command its CWMP session never got an answer for.
func (d *Dispatcher) Release(ctx context.Context, cmd session.Command, status session.Status) {
	if cmd.TaskID == "" {
		return
	}
	task, err := d.tasks.Get(ctx, cmd.TaskID)
	if err != nil {
		d.log.Warn().Err(err).Str("task_id", cmd.TaskID).Msg("⚠️ Unanswered task not found")
		return
	}
	if task.Status != store.TaskProcessing {
		return
	}
	err = d.fail(ctx, task, map[string]interface{}{
		"rpc":   string(cmd.Type),
		"error": "session " + string(status) + " before response",
	})
	if err != nil {
		d.log.Error().Err(err).Str("task_id", cmd.TaskID).Msg("❌ Unanswered task not failed")
	}
}

// HandleUSPResponse records the outcome of a USP request sent for a task.
// The response message id is the task id.
func (d *Dispatcher) HandleUSPResponse(ctx context.Context, deviceID uint, endpointID string, msg *usp.Msg) {
	taskID := msg.Header.MsgID
	task, err := d.tasks.Get(ctx, taskID)
	if err != nil {
		d.log.Debug().Str("msg_id", taskID).Str("endpoint_id", endpointID).Msg("USP response without task")
		return
	}
	if task.DeviceID != deviceID || task.Status != store.TaskProcessing {
		d.log.Warn().Str("task_id", taskID).Str("endpoint_id", endpointID).Str("status", task.Status).Msg("⚠️ USP response does not match a processing task")
		return
	}

	result, failure := uspResult(msg)
	if failure != nil {
		err = d.fail(ctx, task, failure)
	} else {
		err = d.Complete(ctx, taskID, result)
	}
	if err != nil {
		d.log.Error().Err(err).Str("task_id", taskID).Msg("❌ USP task outcome not stored")
	}
}

// uspResult extracts the task result, or the failure document when the agent reported an error.
func uspResult(msg *usp.Msg) (result, failure map[string]interface{}) {
	switch b := msg.Body.(type) {
	case *usp.Error:
		return nil, map[string]interface{}{"err_code": b.ErrCode, "err_msg": b.ErrMsg}
	case *usp.GetResp:
		values := make(map[string]string)
		for _, rp := range b.ReqPathResults {
			if rp.ErrCode != 0 {
				return nil, map[string]interface{}{"err_code": rp.ErrCode, "err_msg": rp.ErrMsg, "path": rp.RequestedPath}
			}
			for _, res := range rp.ResolvedPathResults {
				for param, v := range res.ResultParams {
					values[res.ResolvedPath+param] = v
				}
			}
		}
		return map[string]interface{}{"parameters": values}, nil
	case *usp.SetResp:
		for _, r := range b.UpdatedObjResults {
			if r.Failure != nil {
				return nil, map[string]interface{}{"err_code": r.Failure.ErrCode, "err_msg": r.Failure.ErrMsg, "path": r.RequestedPath}
			}
		}
		return map[string]interface{}{"status": "updated"}, nil
	case *usp.OperateResp:
		for _, r := range b.OperationResults {
			if r.Failure != nil {
				return nil, map[string]interface{}{"err_code": r.Failure.ErrCode, "err_msg": r.Failure.ErrMsg, "command": r.ExecutedCommand}
			}
		}
		out := map[string]interface{}{}
		if len(b.OperationResults) > 0 {
			out["output_args"] = b.OperationResults[0].OutputArgs
		}
		return out, nil
	case *usp.AddResp:
		paths := []string{}
		for _, r := range b.CreatedObjResults {
			if r.Failure != nil {
				return nil, map[string]interface{}{"err_code": r.Failure.ErrCode, "err_msg": r.Failure.ErrMsg, "path": r.RequestedPath}
			}
			paths = append(paths, r.InstantiatedPath)
		}
		return map[string]interface{}{"instantiated_paths": paths}, nil
	case *usp.DeleteResp:
		for _, r := range b.DeletedObjResults {
			if r.Failure != nil {
				return nil, map[string]interface{}{"err_code": r.Failure.ErrCode, "err_msg": r.Failure.ErrMsg, "path": r.RequestedPath}
			}
		}
		return map[string]interface{}{"status": "deleted"}, nil
	}
	return map[string]interface{}{"msg_type": usp.MessageType(msg).String()}, nil
}

func (d *Dispatcher) transition(ctx context.Context, task *store.ProvisioningTask, status string, result interface{}) {
	d.metrics.RecordTaskTransition(status)
	d.log.Debug().Str("task_id", task.ID).Str("type", task.Type).Str("status", status).Msg("Task transition")
	if d.events == nil {
		return
	}
	if err := d.events.PublishTaskStatus(ctx, task.ID, task.DeviceID, task.Type, status, result); err != nil {
		d.log.Warn().Err(err).Str("task_id", task.ID).Msg("⚠️ Task event not published")
	}
}
