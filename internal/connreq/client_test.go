package connreq

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dexter939/EvoAcs-sub001/internal/store"
)

const (
	testRealm = "cpe@example"
	testNonce = "dcd98b7102dd2f0e8b11d0f600bfb0c093"
)

// digestCPE answers 401 with a Digest challenge until a valid Authorization arrives.
type digestCPE struct {
	user, pass string
	qop        string
	hits       int32
	lastAuth   atomic.Value
}

func (d *digestCPE) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&d.hits, 1)
	auth := r.Header.Get("Authorization")
	d.lastAuth.Store(auth)
	if d.valid(r.Method, auth) {
		w.WriteHeader(http.StatusOK)
		return
	}
	challenge := `Digest realm="` + testRealm + `", nonce="` + testNonce + `", opaque="5ccc069c403ebaf9f0171e9517f40e41"`
	if d.qop != "" {
		challenge += `, qop="` + d.qop + `"`
	}
	w.Header().Set("WWW-Authenticate", challenge)
	w.WriteHeader(http.StatusUnauthorized)
}

func (d *digestCPE) valid(method, auth string) bool {
	return VerifyDigest(method, auth, d.user, d.pass, testRealm, func(n string) bool { return n == testNonce })
}

func newTestClient() *Client {
	return NewClient(Config{Logger: zerolog.Nop()})
}

func TestDigestChallengeSucceedsOnSecondAttempt(t *testing.T) {
	for _, qop := range []string{"auth", ""} {
		cpe := &digestCPE{user: "cpe", pass: "s3cret", qop: qop}
		srv := httptest.NewServer(cpe)

		res, err := newTestClient().Request(context.Background(), Target{
			URL:        srv.URL + "/cr?x=1",
			Username:   "cpe",
			Password:   "s3cret",
			AuthMethod: store.AuthDigest,
		})
		srv.Close()

		require.NoError(t, err, "qop=%q", qop)
		assert.Equal(t, 2, res.Attempts)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, int32(2), atomic.LoadInt32(&cpe.hits))
		auth, _ := cpe.lastAuth.Load().(string)
		assert.True(t, strings.HasPrefix(auth, "Digest "))
		assert.Contains(t, auth, `uri="/cr?x=1"`)
	}
}

func TestDigestRejectedTwiceIsFinal(t *testing.T) {
	cpe := &digestCPE{user: "cpe", pass: "other", qop: "auth"}
	srv := httptest.NewServer(cpe)
	defer srv.Close()

	res, err := newTestClient().Request(context.Background(), Target{URL: srv.URL, Username: "cpe", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&cpe.hits))
}

func TestBasicAuthSentUpFront(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		user, pass, ok := r.BasicAuth()
		if !ok || user != "cpe" || pass != "pw" {
			w.Header().Set("WWW-Authenticate", `Basic realm="cpe"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res, err := newTestClient().Request(context.Background(), Target{URL: srv.URL, Username: "cpe", Password: "pw", AuthMethod: store.AuthBasic})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)

	// A wrong password under Basic is not retried.
	res, err = newTestClient().Request(context.Background(), Target{URL: srv.URL, Username: "cpe", Password: "bad", AuthMethod: store.AuthBasic})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestNoAuthHeaderWithoutMethod(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res, err := newTestClient().Request(context.Background(), Target{URL: srv.URL, Username: "cpe", Password: "pw", AuthMethod: store.AuthNone})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
}

func TestMalformedChallenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("WWW-Authenticate", `Digest realm="x", nonce="n", qop="auth-int"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	res, err := newTestClient().Request(context.Background(), Target{URL: srv.URL, Username: "u", Password: "p"})
	assert.ErrorIs(t, err, ErrAuthChallenge)
	assert.Equal(t, 1, res.Attempts)
}

func TestErrorKinds(t *testing.T) {
	c := newTestClient()
	ctx := context.Background()

	_, err := c.Request(ctx, Target{})
	assert.ErrorIs(t, err, ErrNoURL)

	_, err = c.Request(ctx, Target{URL: "http://127.0.0.1:1/cr", Offline: true})
	assert.ErrorIs(t, err, ErrDeviceOffline)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	_, err = c.Request(ctx, Target{URL: url})
	assert.ErrorIs(t, err, ErrNetwork)

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer bad.Close()
	res, err := c.Request(ctx, Target{URL: bad.URL})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

type fakeDevices map[uint]*store.Device

func (f fakeDevices) GetByID(_ context.Context, id uint) (*store.Device, error) {
	if d, ok := f[id]; ok {
		return d, nil
	}
	return nil, store.ErrNotFound
}

func TestRequestDevice(t *testing.T) {
	cpe := &digestCPE{user: "cpe", pass: "pw", qop: "auth"}
	srv := httptest.NewServer(cpe)
	defer srv.Close()

	c := NewClient(Config{Logger: zerolog.Nop(), Devices: fakeDevices{
		1: {ConnectionRequestURL: srv.URL, ConnectionRequestUsername: "cpe", ConnectionRequestPassword: "pw", AuthMethod: store.AuthDigest, Status: store.StatusOnline},
		2: {ConnectionRequestURL: srv.URL, Status: store.StatusOffline},
	}})

	res, err := c.RequestDevice(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)

	_, err = c.RequestDevice(context.Background(), 2)
	assert.ErrorIs(t, err, ErrDeviceOffline)

	_, err = c.RequestDevice(context.Background(), 3)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestParseChallenge(t *testing.T) {
	ch, err := parseChallenge(`Digest realm="a, b", nonce="abc", qop="auth,auth-int", opaque="o"`)
	require.NoError(t, err)
	assert.Equal(t, "a, b", ch.Realm)
	assert.Equal(t, "abc", ch.Nonce)
	assert.Contains(t, ch.QOP, "auth")
	assert.Equal(t, "o", ch.Opaque)

	_, err = parseChallenge(`Digest realm="a"`)
	assert.ErrorIs(t, err, ErrAuthChallenge)
	_, err = parseChallenge(`Digest nonce="n", qop="auth-int"`)
	assert.ErrorIs(t, err, ErrAuthChallenge)
	_, err = parseChallenge(`Basic realm="a"`)
	assert.ErrorIs(t, err, ErrAuthChallenge)
}

func TestVerifyDigestAcceptsOwnAuthorization(t *testing.T) {
	nonce := NewNonce()
	ch, err := parseChallenge(DigestChallenge("cpe realm", nonce))
	require.NoError(t, err)
	header, err := digestAuthorization(ch, "http://cpe.example:7547/cr", "acs", "pw")
	require.NoError(t, err)
	assert.Contains(t, header, `uri="/cr"`)

	known := func(n string) bool { return n == nonce }
	assert.True(t, VerifyDigest(http.MethodGet, header, "acs", "pw", "cpe realm", known))
	assert.False(t, VerifyDigest(http.MethodGet, header, "acs", "wrong", "cpe realm", known))
	assert.False(t, VerifyDigest(http.MethodPost, header, "acs", "pw", "cpe realm", known))
	assert.False(t, VerifyDigest(http.MethodGet, header, "acs", "pw", "cpe realm", func(string) bool { return false }))
	assert.False(t, VerifyDigest(http.MethodGet, "Basic YWNzOnB3", "acs", "pw", "cpe realm", known))
}

func TestVerifyDigestRFC2617Example(t *testing.T) {
	header := `Digest username="Mufasa", realm="testrealm@host.com", nonce="dcd98b7102dd2f0e8b11d0f600bfb0c093", ` +
		`uri="/dir/index.html", qop=auth, nc=00000001, cnonce="0a4f113b", ` +
		`response="6629fae49393a05397450978507c4ef1", opaque="5ccc069c403ebaf9f0171e9517f40e41"`

	assert.True(t, VerifyDigest(http.MethodGet, header, "Mufasa", "Circle Of Life", "testrealm@host.com", nil))
	assert.False(t, VerifyDigest(http.MethodGet, header, "Mufasa", "circle of life", "testrealm@host.com", nil))
}
