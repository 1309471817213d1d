package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dexter939/EvoAcs-sub001/internal/connreq"
)

// nonceTTL is how long an issued Digest nonce is accepted.
const nonceTTL = 5 * time.Minute

// ConnectionRequestHandler serves the Connection Request URL behind Digest auth.
type ConnectionRequestHandler struct {
	username string
	password string
	realm    string
	wake     func()
	log      zerolog.Logger

	mu     sync.Mutex
	nonces map[string]time.Time
}

// NewConnectionRequestHandler calls wake for every authenticated request.
func NewConnectionRequestHandler(username, password, realm string, wake func(), log zerolog.Logger) *ConnectionRequestHandler {
	return &ConnectionRequestHandler{
		username: username,
		password: password,
		realm:    realm,
		wake:     wake,
		log:      log,
		nonces:   make(map[string]time.Time),
	}
}

func (h *ConnectionRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	auth := r.Header.Get("Authorization")
	if h.username != "" && !connreq.VerifyDigest(r.Method, auth, h.username, h.password, h.realm, h.knownNonce) {
		if auth != "" {
			h.log.Warn().Str("remote", r.RemoteAddr).Msg("⚠️ Connection request rejected")
		}
		w.Header().Set("WWW-Authenticate", connreq.DigestChallenge(h.realm, h.issueNonce()))
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	h.log.Info().Str("remote", r.RemoteAddr).Msg("📞 Connection request accepted")
	w.WriteHeader(http.StatusOK)
	h.wake()
}

func (h *ConnectionRequestHandler) issueNonce() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	for n, issued := range h.nonces {
		if now.Sub(issued) > nonceTTL {
			delete(h.nonces, n)
		}
	}
	nonce := connreq.NewNonce()
	h.nonces[nonce] = now
	return nonce
}

func (h *ConnectionRequestHandler) knownNonce(nonce string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	issued, ok := h.nonces[nonce]
	if !ok || time.Since(issued) > nonceTTL {
		return false
	}
	delete(h.nonces, nonce)
	return true
}
