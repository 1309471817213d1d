package connreq

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"

	"github.com/icholy/digest"
)

// parseChallenge parses a Digest challenge that offers qop "auth" or no qop at all.
func parseChallenge(header string) (*digest.Challenge, error) {
	ch, err := digest.ParseChallenge(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthChallenge, err)
	}
	if ch.Nonce == "" {
		return nil, fmt.Errorf("%w: missing nonce", ErrAuthChallenge)
	}
	if len(ch.QOP) > 0 && !offersAuth(ch.QOP) {
		return nil, fmt.Errorf("%w: unsupported qop %v", ErrAuthChallenge, ch.QOP)
	}
	return ch, nil
}

func offersAuth(qops []string) bool {
	for _, q := range qops {
		if q == "auth" {
			return true
		}
	}
	return false
}

// digestAuthorization answers ch for a GET of rawURL with nonce count 1.
func digestAuthorization(ch *digest.Challenge, rawURL, username, password string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoURL, err)
	}
	cred, err := digest.Digest(ch, digest.Options{
		Method:   http.MethodGet,
		URI:      u.RequestURI(),
		Username: username,
		Password: password,
		Count:    1,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthChallenge, err)
	}
	return cred.String(), nil
}

// NewNonce returns a random hex nonce for a Digest challenge.
func NewNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// DigestChallenge renders a WWW-Authenticate value offering MD5 with qop "auth".
func DigestChallenge(realm, nonce string) string {
	ch := &digest.Challenge{Realm: realm, Nonce: nonce, Algorithm: "MD5", QOP: []string{"auth"}}
	return ch.String()
}

// VerifyDigest checks an Authorization header against the expected credentials.
// knownNonce reports whether the nonce was issued by the verifier.
func VerifyDigest(method, header, username, password, realm string, knownNonce func(string) bool) bool {
	cred, err := digest.ParseCredentials(header)
	if err != nil {
		return false
	}
	if cred.Username != username || cred.Realm != realm || cred.URI == "" {
		return false
	}
	if knownNonce != nil && !knownNonce(cred.Nonce) {
		return false
	}

	ch := &digest.Challenge{Realm: realm, Nonce: cred.Nonce, Opaque: cred.Opaque, Algorithm: cred.Algorithm}
	if cred.QOP != "" {
		if cred.QOP != "auth" {
			return false
		}
		ch.QOP = []string{"auth"}
	}
	want, err := digest.Digest(ch, digest.Options{
		Method:   method,
		URI:      cred.URI,
		Username: username,
		Password: password,
		Cnonce:   cred.Cnonce,
		Count:    cred.Nc,
	})
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cred.Response), []byte(want.Response)) == 1
}
