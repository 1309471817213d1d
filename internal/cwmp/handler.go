package cwmp

import (
	"crypto/subtle"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/pkg/metrics"
)

// MaxBodySize bounds an inbound SOAP envelope.
const MaxBodySize = 4 << 20

// HandlerConfig configures the HTTP endpoint CPEs post to.
type HandlerConfig struct {
	CookieName string
	// Username and Password enable HTTP Basic auth of CPEs when AuthEnabled is set.
	AuthEnabled bool
	Username    string
	Password    string
	Logger      zerolog.Logger
	Metrics     *metrics.ACSMetrics
}

// Handler serves the ACS URL.
type Handler struct {
	engine *Engine
	cfg    HandlerConfig
}

// NewHandler wraps engine as an http.Handler.
func NewHandler(engine *Engine, cfg HandlerConfig) *Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = "TR069SessionID"
	}
	return &Handler{engine: engine, cfg: cfg}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.cfg.AuthEnabled && !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="EvoACS"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodySize+1))
	if err != nil || len(body) > MaxBodySize {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	req := Request{Body: body, RemoteIP: remoteIP(r)}
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		req.Cookie = c.Value
	}

	resp, err := h.engine.Handle(r.Context(), req)
	if err != nil {
		http.Error(w, "malformed SOAP envelope", http.StatusBadRequest)
		h.cfg.Metrics.RecordCWMPMessage("malformed", time.Since(start))
		return
	}

	if resp.SessionToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.CookieName,
			Value:    resp.SessionToken,
			Path:     "/",
			HttpOnly: true,
		})
	}
	if len(resp.Body) > 0 {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.Header().Set("SOAPAction", "")
	}
	w.WriteHeader(resp.Status)
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			h.cfg.Logger.Warn().Err(err).Str("remote_ip", req.RemoteIP).Msg("⚠️ CWMP response write failed")
		}
	}
	h.cfg.Metrics.RecordCWMPMessage(string(resp.Kind), time.Since(start))
}

func (h *Handler) authorized(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(h.cfg.Password)) == 1
	return userOK && passOK
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
