package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/pkg/config"
)

// Inform event codes.
const (
	EventBootstrap         = "0 BOOTSTRAP"
	EventBoot              = "1 BOOT"
	EventPeriodic          = "2 PERIODIC"
	EventConnectionRequest = "6 CONNECTION REQUEST"
	EventTransferComplete  = "7 TRANSFER COMPLETE"
	EventMReboot           = "M Reboot"
	EventMDownload         = "M Download"
)

// maxExchanges bounds the RPCs handled in one session.
const maxExchanges = 64

// informParams are always reported in the Inform ParameterList.
var informParams = []string{
	"Device.DeviceInfo.Manufacturer",
	"Device.DeviceInfo.ModelName",
	"Device.DeviceInfo.SoftwareVersion",
	"Device.DeviceInfo.HardwareVersion",
	"Device.ManagementServer.ConnectionRequestURL",
	"Device.ManagementServer.ParameterKey",
}

// CPE is a simulated TR-069 device.
type CPE struct {
	cfg  *config.TR069Config
	http *http.Client
	log  zerolog.Logger

	sessionMu sync.Mutex
	wake      chan struct{}

	mu      sync.Mutex
	params  map[string]string
	pending []event
	// transfer is the TransferComplete owed to the ACS after a Download.
	transfer *transferComplete
}

// NewCPE creates a simulated device from cfg.
func NewCPE(cfg *config.TR069Config, log zerolog.Logger) *CPE {
	jar, _ := cookiejar.New(nil)
	return &CPE{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second, Jar: jar},
		log:  log,
		wake: make(chan struct{}, 1),
		params: map[string]string{
			"Device.DeviceInfo.Manufacturer":                 cfg.Manufacturer,
			"Device.DeviceInfo.ManufacturerOUI":              cfg.OUI,
			"Device.DeviceInfo.ProductClass":                 cfg.ProductClass,
			"Device.DeviceInfo.SerialNumber":                 cfg.SerialNumber,
			"Device.DeviceInfo.ModelName":                    cfg.ProductClass,
			"Device.DeviceInfo.SoftwareVersion":              cfg.SoftwareVersion,
			"Device.DeviceInfo.HardwareVersion":              cfg.HardwareVersion,
			"Device.ManagementServer.URL":                    cfg.ACSURL,
			"Device.ManagementServer.ConnectionRequestURL":   cfg.ConnectionRequestURL,
			"Device.ManagementServer.PeriodicInformEnable":   fmt.Sprint(cfg.PeriodicInformEnabled),
			"Device.ManagementServer.PeriodicInformInterval": fmt.Sprint(int(cfg.PeriodicInformPeriod.Seconds())),
			"Device.ManagementServer.ParameterKey":           "",
			"Device.WiFi.SSID.1.SSID":                        "EvoACS-" + cfg.SerialNumber,
			"Device.WiFi.Radio.1.Channel":                    "6",
		},
	}
}

// Wake asks Run to open a session for a connection request.
func (c *CPE) Wake() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Run bootstraps the device and then opens sessions on the periodic timer and on connection requests.
func (c *CPE) Run(ctx context.Context) error {
	if err := c.Session(ctx, EventBootstrap, EventBoot); err != nil {
		return err
	}

	var tick <-chan time.Time
	if c.cfg.PeriodicInformEnabled && c.cfg.PeriodicInformPeriod > 0 {
		ticker := time.NewTicker(c.cfg.PeriodicInformPeriod)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		var err error
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			err = c.Session(ctx, EventPeriodic)
		case <-c.wake:
			err = c.Session(ctx, EventConnectionRequest)
		}
		if err != nil {
			c.log.Error().Err(err).Msg("❌ CWMP session failed")
		}
	}
}

// Session runs one CWMP session, then immediately another if the ACS left follow-up events.
func (c *CPE) Session(ctx context.Context, codes ...string) error {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()

	events := make([]event, 0, len(codes))
	for _, code := range codes {
		events = append(events, event{EventCode: code})
	}
	for len(events) > 0 {
		if err := c.session(ctx, events); err != nil {
			return err
		}
		c.mu.Lock()
		events, c.pending = c.pending, nil
		c.mu.Unlock()
	}
	return nil
}

func (c *CPE) session(ctx context.Context, events []event) error {
	log := c.log.With().Str("events", eventCodes(events)).Logger()
	log.Info().Msg("🔄 Opening CWMP session")

	raw, err := marshal("1", body{Inform: c.inform(events)})
	if err != nil {
		return err
	}
	reply, err := c.post(ctx, raw)
	if err != nil {
		return err
	}
	env, err := parseACS(reply)
	if err != nil {
		return err
	}
	if env.Body.InformResponse == nil {
		return fmt.Errorf("expected InformResponse, got %s", describe(env))
	}

	c.mu.Lock()
	tc := c.transfer
	c.transfer = nil
	c.mu.Unlock()
	if tc != nil && hasEvent(events, EventTransferComplete) {
		raw, err := marshal("2", body{TransferComplete: tc})
		if err != nil {
			return err
		}
		if reply, err = c.post(ctx, raw); err != nil {
			return err
		}
		if env, err = parseACS(reply); err != nil {
			return err
		}
		if env.Body.TransferCompleteResponse == nil {
			return fmt.Errorf("expected TransferCompleteResponse, got %s", describe(env))
		}
	}

	next := []byte(nil)
	for i := 0; i < maxExchanges; i++ {
		reply, err := c.post(ctx, next)
		if err != nil {
			return err
		}
		if len(bytes.TrimSpace(reply)) == 0 {
			log.Info().Int("rpcs", i).Msg("✅ CWMP session complete")
			return nil
		}
		env, err := parseACS(reply)
		if err != nil {
			return err
		}
		if next, err = c.handle(env); err != nil {
			return err
		}
	}
	return fmt.Errorf("session exceeded %d exchanges", maxExchanges)
}

func (c *CPE) inform(events []event) *inform {
	c.mu.Lock()
	defer c.mu.Unlock()

	params := make([]parameterValue, 0, len(informParams))
	for _, name := range informParams {
		params = append(params, parameterValue{Name: name, Value: typedValue{Type: "xsd:string", Value: c.params[name]}})
	}
	return &inform{
		DeviceId: deviceID{
			Manufacturer: c.cfg.Manufacturer,
			OUI:          c.cfg.OUI,
			ProductClass: c.cfg.ProductClass,
			SerialNumber: c.cfg.SerialNumber,
		},
		Event:         newEventList(events),
		MaxEnvelopes:  1,
		CurrentTime:   now(),
		ParameterList: newParameterList(params),
	}
}

// handle executes one ACS request and renders the reply.
func (c *CPE) handle(env *acsEnvelope) ([]byte, error) {
	id := env.Header.ID
	b := env.Body
	switch {
	case b.GetParameterValues != nil:
		c.log.Info().Strs("names", b.GetParameterValues.Names).Msg("📥 GetParameterValues")
		params, missing := c.get(b.GetParameterValues.Names)
		if missing != "" {
			return marshal(id, faultBody(faultInvalidName, "Invalid parameter name "+missing))
		}
		return marshal(id, body{GetParameterValuesResponse: &getParameterValuesResponse{ParameterList: newParameterList(params)}})

	case b.SetParameterValues != nil:
		spv := b.SetParameterValues
		c.mu.Lock()
		for _, p := range spv.Params {
			c.params[p.Name] = p.Value
		}
		c.params["Device.ManagementServer.ParameterKey"] = spv.ParameterKey
		c.mu.Unlock()
		c.log.Info().Int("count", len(spv.Params)).Msg("📝 SetParameterValues applied")
		return marshal(id, body{SetParameterValuesResponse: &setParameterValuesResponse{Status: 0}})

	case b.Reboot != nil:
		c.log.Info().Str("command_key", b.Reboot.CommandKey).Msg("🔄 Reboot requested")
		c.mu.Lock()
		c.queueLocked(event{EventCode: EventBoot}, event{EventCode: EventMReboot, CommandKey: b.Reboot.CommandKey})
		c.mu.Unlock()
		return marshal(id, body{RebootResponse: &struct{}{}})

	case b.Download != nil:
		d := b.Download
		c.log.Info().Str("url", d.URL).Str("file_type", d.FileType).Msg("📦 Download requested")
		start := now()
		c.mu.Lock()
		c.params["Device.DeviceInfo.X_EvoACS_LastDownloadURL"] = d.URL
		c.transfer = &transferComplete{CommandKey: d.CommandKey, StartTime: start, CompleteTime: now()}
		c.queueLocked(event{EventCode: EventTransferComplete}, event{EventCode: EventMDownload, CommandKey: d.CommandKey})
		c.mu.Unlock()
		return marshal(id, body{DownloadResponse: &downloadResponse{Status: 1, StartTime: unknownTime, CompleteTime: unknownTime}})

	case b.Fault != nil:
		return nil, fmt.Errorf("ACS fault %d: %s", b.Fault.Detail.CWMPFault.FaultCode, b.Fault.Detail.CWMPFault.FaultString)

	default:
		c.log.Warn().Str("rpc", describe(env)).Msg("⚠️ Unsupported RPC")
		return marshal(id, faultBody(faultMethodNotSupported, "Method not supported"))
	}
}

// get resolves names; a name ending in "." selects every parameter below it.
// It returns the first name that matched nothing.
func (c *CPE) get(names []string) ([]parameterValue, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []parameterValue
	for _, name := range names {
		if strings.HasSuffix(name, ".") {
			var keys []string
			for k := range c.params {
				if strings.HasPrefix(k, name) {
					keys = append(keys, k)
				}
			}
			if len(keys) == 0 {
				return nil, name
			}
			sort.Strings(keys)
			for _, k := range keys {
				out = append(out, parameterValue{Name: k, Value: typedValue{Type: "xsd:string", Value: c.params[k]}})
			}
			continue
		}
		v, ok := c.params[name]
		if !ok {
			return nil, name
		}
		out = append(out, parameterValue{Name: name, Value: typedValue{Type: "xsd:string", Value: v}})
	}
	return out, ""
}

func (c *CPE) queueLocked(events ...event) {
	for _, e := range events {
		if !hasEvent(c.pending, e.EventCode) {
			c.pending = append(c.pending, e)
		}
	}
}

// post sends body (empty for the empty POST) and returns the ACS reply, empty on 204.
func (c *CPE) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ACSURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "text/xml; charset=utf-8")
		req.Header.Set("SOAPAction", "")
	}
	if c.cfg.ACSUsername != "" && c.cfg.ACSPassword != "" {
		req.SetBasicAuth(c.cfg.ACSUsername, c.cfg.ACSPassword)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach ACS: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read ACS reply: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	case resp.StatusCode == http.StatusOK:
		return raw, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errors.New("ACS rejected credentials")
	default:
		if env, err := parseACS(raw); err == nil && env.Body.Fault != nil {
			return nil, fmt.Errorf("ACS returned %s: fault %d %s", resp.Status,
				env.Body.Fault.Detail.CWMPFault.FaultCode, env.Body.Fault.Detail.CWMPFault.FaultString)
		}
		return nil, fmt.Errorf("ACS returned %s", resp.Status)
	}
}

func hasEvent(events []event, code string) bool {
	for _, e := range events {
		if e.EventCode == code {
			return true
		}
	}
	return false
}

func eventCodes(events []event) string {
	codes := make([]string, len(events))
	for i, e := range events {
		codes[i] = e.EventCode
	}
	return strings.Join(codes, ",")
}

func describe(env *acsEnvelope) string {
	if len(env.Body.Other) > 0 {
		return env.Body.Other[0].XMLName.Local
	}
	return "empty body"
}
