// Package api mounts the device-facing endpoints and the operator API on a gin router.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/connreq"
	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/internal/tasks"
	"github.com/dexter939/EvoAcs-sub001/internal/usp"
	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
	"github.com/dexter939/EvoAcs-sub001/pkg/redis"
	"github.com/dexter939/EvoAcs-sub001/pkg/version"
)

// MaxRecordSize bounds a USP record posted over HTTP.
const MaxRecordSize = 1 << 20

// RecordProcessor applies inbound USP records.
type RecordProcessor interface {
	Process(ctx context.Context, raw []byte, mtp string) ([]byte, error)
}

// PollFetcher hands out records waiting for HTTP-polling agents.
type PollFetcher interface {
	Fetch(ctx context.Context, endpointID string) ([]store.PendingRequest, error)
}

// DeviceStore is the device view of the operator API.
type DeviceStore interface {
	GetByID(ctx context.Context, id uint) (*store.Device, error)
	List(ctx context.Context, offset, limit int) ([]store.Device, error)
	Count(ctx context.Context) (int64, error)
}

// TaskStore creates and lists provisioning tasks.
type TaskStore interface {
	Create(ctx context.Context, deviceID uint, taskType string, data interface{}) (*store.ProvisioningTask, error)
	ListByDevice(ctx context.Context, deviceID uint) ([]store.ProvisioningTask, error)
}

// ConnectionRequester wakes CWMP devices.
type ConnectionRequester interface {
	RequestDevice(ctx context.Context, deviceID uint) (*connreq.Result, error)
}

// Waker prompts a device to pick up queued tasks.
type Waker interface {
	Wake(ctx context.Context, deviceID uint) error
}

// AgentRegistry lists agents attached to push MTPs.
type AgentRegistry interface {
	List(ctx context.Context, mtp string) ([]*redis.AgentConnection, error)
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires the router. Nil collaborators leave their routes unmounted.
type Config struct {
	ServiceName string
	CWMPPath    string
	CWMP        http.Handler
	USPPath     string
	Processor   RecordProcessor
	Poll        PollFetcher
	Devices     DeviceStore
	Tasks       TaskStore
	Requester   ConnectionRequester
	Waker       Waker
	Agents      AgentRegistry
	// Checks are pinged by /health, keyed by component name.
	Checks   map[string]Pinger
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
	Metrics  *metrics.ACSMetrics
}

// Server holds the handlers behind the router.
type Server struct {
	cfg Config
	log zerolog.Logger
}

// NewRouter builds the gin engine.
func NewRouter(cfg Config) *gin.Engine {
	if cfg.CWMPPath == "" {
		cfg.CWMPPath = "/acs"
	}
	if cfg.USPPath == "" {
		cfg.USPPath = "/usp"
	}
	s := &Server{cfg: cfg, log: cfg.Logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/health", s.healthCheck)
	router.GET("/version", s.getVersion)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(metrics.HandlerFor(cfg.Gatherer)))
	} else {
		router.GET("/metrics", gin.WrapH(metrics.HTTPHandler()))
	}

	if cfg.CWMP != nil {
		router.POST(cfg.CWMPPath, gin.WrapH(cfg.CWMP))
	}
	if cfg.Processor != nil {
		router.POST(cfg.USPPath, s.postRecord)
	}
	if cfg.Poll != nil {
		router.GET(cfg.USPPath+"/poll/:endpoint", s.pollRecords)
	}

	v1 := router.Group("/api")
	if cfg.Devices != nil {
		v1.GET("/devices", s.listDevices)
		v1.GET("/devices/:id", s.getDevice)
	}
	if cfg.Requester != nil {
		v1.POST("/devices/:id/connection-request", s.connectionRequest)
	}
	if cfg.Tasks != nil {
		v1.GET("/devices/:id/tasks", s.listTasks)
		v1.POST("/devices/:id/tasks", s.createTask)
	}
	if cfg.Agents != nil {
		v1.GET("/agents", s.listAgents)
	}

	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	components := gin.H{}
	for name, p := range s.cfg.Checks {
		if err := p.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			components[name] = err.Error()
			continue
		}
		components[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}
	c.JSON(status, gin.H{
		"status":     state,
		"service":    s.cfg.ServiceName,
		"version":    version.GetShortVersion(),
		"components": components,
	})
}

func (s *Server) getVersion(c *gin.Context) {
	c.JSON(http.StatusOK, version.GetBuildInfo(s.cfg.ServiceName))
}

// postRecord is the HTTP MTP: the body is a USP record and the reply record, if any, is the response body.
func (s *Server) postRecord(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, MaxRecordSize+1))
	if err != nil || len(body) > MaxRecordSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable record"})
		return
	}

	resp, err := s.cfg.Processor.Process(c.Request.Context(), body, usp.MTPHTTP)
	if err != nil {
		s.log.Warn().Err(err).Str("client_ip", c.ClientIP()).Msg("⚠️ USP record rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(resp) == 0 {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", resp)
}

type polledRecord struct {
	MessageID string    `json:"message_id"`
	Record    []byte    `json:"record"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) pollRecords(c *gin.Context) {
	endpointID := c.Param("endpoint")
	reqs, err := s.cfg.Poll.Fetch(c.Request.Context(), endpointID)
	if err != nil {
		s.log.Error().Err(err).Str("endpoint_id", endpointID).Msg("❌ Poll fetch failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch pending records"})
		return
	}
	out := make([]polledRecord, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, polledRecord{MessageID: r.MessageID, Record: r.Payload, ExpiresAt: r.ExpiresAt})
	}
	c.JSON(http.StatusOK, gin.H{"endpoint_id": endpointID, "records": out})
}

func (s *Server) listDevices(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	devices, err := s.cfg.Devices.List(c.Request.Context(), offset, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list devices"})
		return
	}
	total, err := s.cfg.Devices.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count devices"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices, "total": total, "offset": offset, "limit": limit})
}

func (s *Server) getDevice(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	dev, err := s.cfg.Devices.GetByID(c.Request.Context(), id)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, dev)
}

func (s *Server) connectionRequest(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	res, err := s.cfg.Requester.RequestDevice(c.Request.Context(), id)
	if err != nil {
		attempts := 0
		if res != nil {
			attempts = res.Attempts
		}
		c.JSON(connreqStatus(err), gin.H{"error": err.Error(), "attempts": attempts})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent", "attempts": res.Attempts, "device_status_code": res.StatusCode})
}

type createTaskRequest struct {
	Type string      `json:"type" binding:"required"`
	Data interface{} `json:"data"`
}

func (s *Server) createTask(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !tasks.KnownType(req.Type) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown task type " + strconv.Quote(req.Type)})
		return
	}
	if s.cfg.Devices != nil {
		if _, err := s.cfg.Devices.GetByID(c.Request.Context(), id); err != nil {
			writeStoreError(c, err)
			return
		}
	}

	task, err := s.cfg.Tasks.Create(c.Request.Context(), id, req.Type, req.Data)
	if err != nil {
		s.log.Error().Err(err).Uint("device_id", id).Msg("❌ Task creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task"})
		return
	}
	s.log.Info().Str("task_id", task.ID).Uint("device_id", id).Str("type", task.Type).Msg("📋 Task queued")

	resp := gin.H{"task": task, "woken": false}
	if s.cfg.Waker != nil {
		if err := s.cfg.Waker.Wake(c.Request.Context(), id); err != nil {
			s.log.Warn().Err(err).Uint("device_id", id).Msg("⚠️ Device wake failed; task stays queued")
			resp["wake_error"] = err.Error()
		} else {
			resp["woken"] = true
		}
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) listTasks(c *gin.Context) {
	id, ok := deviceID(c)
	if !ok {
		return
	}
	list, err := s.cfg.Tasks.ListByDevice(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": list, "count": len(list)})
}

func (s *Server) listAgents(c *gin.Context) {
	agents, err := s.cfg.Agents.List(c.Request.Context(), c.Query("mtp"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list agents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"agents": agents, "count": len(agents)})
}

func deviceID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device id"})
		return 0, false
	}
	return uint(id), true
}

func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func connreqStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, connreq.ErrNoURL), errors.Is(err, connreq.ErrDeviceOffline):
		return http.StatusConflict
	case errors.Is(err, connreq.ErrNetwork):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
