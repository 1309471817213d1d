// Package connreq asks a CPE to open a new CWMP session by issuing an HTTP GET
// to its Connection Request URL, with Basic or Digest authentication.
package connreq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
)

// DefaultTimeout bounds each connection-request attempt.
const DefaultTimeout = 10 * time.Second

var (
	ErrNoURL            = errors.New("connreq: no connection request URL configured")
	ErrDeviceOffline    = errors.New("connreq: device is offline")
	ErrNetwork          = errors.New("connreq: network error")
	ErrUnauthorized     = errors.New("connreq: unauthorized")
	ErrUnexpectedStatus = errors.New("connreq: unexpected HTTP status")
	ErrAuthChallenge    = errors.New("connreq: unsupported authentication challenge")
)

// Target is where and how to reach a device.
type Target struct {
	URL        string
	Username   string
	Password   string
	AuthMethod string
	// Offline reflects the locally known device status.
	Offline bool
}

// TargetFromDevice builds a Target from a stored device.
func TargetFromDevice(dev *store.Device) Target {
	return Target{
		URL:        dev.ConnectionRequestURL,
		Username:   dev.ConnectionRequestUsername,
		Password:   dev.ConnectionRequestPassword,
		AuthMethod: dev.AuthMethod,
		Offline:    dev.Status == store.StatusOffline,
	}
}

// Result describes a finished connection request.
type Result struct {
	Attempts   int
	StatusCode int
}

// DeviceLookup loads devices for RequestDevice.
type DeviceLookup interface {
	GetByID(ctx context.Context, id uint) (*store.Device, error)
}

// Config configures a Client.
type Config struct {
	Timeout time.Duration
	// HTTPClient overrides the default client; its Timeout is left as is.
	HTTPClient *http.Client
	Devices    DeviceLookup
	Logger     zerolog.Logger
	Metrics    *metrics.ACSMetrics
}

// Client issues connection requests.
type Client struct {
	http    *http.Client
	devices DeviceLookup
	log     zerolog.Logger
	metrics *metrics.ACSMetrics
}

// NewClient creates a connection-request client.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{http: hc, devices: cfg.Devices, log: cfg.Logger, metrics: cfg.Metrics}
}

// RequestDevice resolves a device and sends it a connection request.
func (c *Client) RequestDevice(ctx context.Context, deviceID uint) (*Result, error) {
	if c.devices == nil {
		return nil, errors.New("connreq: no device lookup configured")
	}
	dev, err := c.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load device %d: %w", deviceID, err)
	}
	return c.Request(ctx, TargetFromDevice(dev))
}

// Request sends a connection request to t. A 401 carrying a Digest challenge, or a
// Basic challenge when no Basic header was sent, is retried exactly once.
func (c *Client) Request(ctx context.Context, t Target) (*Result, error) {
	res, err := c.request(ctx, t)
	outcome := "success"
	switch {
	case err == nil:
		c.log.Info().Str("url", t.URL).Int("attempts", res.Attempts).Msg("✅ Connection request accepted")
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrAuthChallenge):
		outcome = "unauthorized"
	case errors.Is(err, ErrNetwork):
		outcome = "network_error"
	case errors.Is(err, ErrNoURL), errors.Is(err, ErrDeviceOffline):
		outcome = "skipped"
	default:
		outcome = "failed"
	}
	if err != nil {
		c.log.Warn().Err(err).Str("url", t.URL).Int("attempts", res.Attempts).Msg("⚠️ Connection request failed")
	}
	c.metrics.RecordConnectionRequest(outcome)
	return res, err
}

func (c *Client) request(ctx context.Context, t Target) (*Result, error) {
	res := &Result{}
	if t.URL == "" {
		return res, ErrNoURL
	}
	if t.Offline {
		return res, ErrDeviceOffline
	}

	sentBasic := strings.EqualFold(t.AuthMethod, store.AuthBasic) && t.Username != ""
	resp, err := c.do(ctx, t.URL, func(r *http.Request) {
		if sentBasic {
			r.SetBasicAuth(t.Username, t.Password)
		}
	})
	res.Attempts++
	if err != nil {
		return res, err
	}
	res.StatusCode = resp.StatusCode
	if isSuccess(resp.StatusCode) {
		return res, nil
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return res, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	authorize, err := retryAuth(resp.Header.Values("WWW-Authenticate"), t, sentBasic)
	if err != nil {
		return res, err
	}
	c.log.Debug().Str("url", t.URL).Msg("🔄 Connection request challenged, retrying with credentials")

	resp, err = c.do(ctx, t.URL, authorize)
	res.Attempts++
	if err != nil {
		return res, err
	}
	res.StatusCode = resp.StatusCode
	switch {
	case isSuccess(resp.StatusCode):
		return res, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return res, fmt.Errorf("%w: credentials rejected", ErrUnauthorized)
	default:
		return res, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}

// retryAuth picks how to authenticate the single retry from the 401 challenges.
func retryAuth(challenges []string, t Target, sentBasic bool) (func(*http.Request), error) {
	var basicOffered bool
	var digestErr error
	for _, h := range challenges {
		scheme, _, _ := strings.Cut(strings.TrimSpace(h), " ")
		switch {
		case strings.EqualFold(scheme, "Digest"):
			ch, err := parseChallenge(h)
			if err != nil {
				digestErr = err
				continue
			}
			if t.Username == "" {
				return nil, fmt.Errorf("%w: digest challenge but no credentials", ErrUnauthorized)
			}
			authorization, err := digestAuthorization(ch, t.URL, t.Username, t.Password)
			if err != nil {
				digestErr = err
				continue
			}
			return func(r *http.Request) { r.Header.Set("Authorization", authorization) }, nil
		case strings.EqualFold(scheme, "Basic"):
			basicOffered = true
		}
	}
	if digestErr != nil {
		return nil, digestErr
	}
	if basicOffered && !sentBasic && t.Username != "" {
		return func(r *http.Request) { r.SetBasicAuth(t.Username, t.Password) }, nil
	}
	return nil, fmt.Errorf("%w: no usable challenge", ErrUnauthorized)
}

func (c *Client) do(ctx context.Context, url string, prepare func(*http.Request)) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoURL, err)
	}
	prepare(req)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
	return resp, nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
