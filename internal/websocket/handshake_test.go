package websocket

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleRequest = "GET /usp HTTP/1.1\r\n" +
	"Host: acs.example.com:9000\r\n" +
	"Upgrade: websocket\r\n" +
	"Connection: Upgrade\r\n" +
	"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
	"Sec-WebSocket-Protocol: v1.usp\r\n" +
	"Sec-WebSocket-Version: 13\r\n\r\n"

func TestAcceptKeyRFCExample(t *testing.T) {
	assert.Equal(t, "s3pPLMBiTxaQ9kYGzzhZRbK+xOo=", AcceptKey("dGhlIHNhbXBsZSBub25jZQ=="))
}

func TestParseHandshake(t *testing.T) {
	hs, complete := ParseHandshake([]byte(sampleRequest + "trailing"))
	assert.True(t, complete)
	assert.Equal(t, "GET", hs.Method)
	assert.Equal(t, "/usp", hs.Path)
	assert.Equal(t, "dGhlIHNhbXBsZSBub25jZQ==", hs.Key)
	assert.Equal(t, "v1.usp", SelectProtocol(hs.Protocol))
	assert.Equal(t, len(sampleRequest), hs.Length)
}

func TestParseHandshakeIncomplete(t *testing.T) {
	_, complete := ParseHandshake([]byte(sampleRequest[:40]))
	assert.False(t, complete)
}

func TestParseHandshakeWithoutKey(t *testing.T) {
	req := strings.Replace(sampleRequest, "Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n", "", 1)
	hs, complete := ParseHandshake([]byte(req))
	assert.True(t, complete)
	assert.Empty(t, hs.Key)
}

func TestHandshakeResponse(t *testing.T) {
	resp := string(HandshakeResponse("dGhlIHNhbXBsZSBub25jZQ==", "v1.usp"))
	assert.True(t, strings.HasPrefix(resp, "HTTP/1.1 101 Switching Protocols\r\n"))
	assert.Contains(t, resp, "Sec-WebSocket-Accept: s3pPLMBiTxaQ9kYGzzhZRbK+xOo=\r\n")
	assert.Contains(t, resp, "Sec-WebSocket-Protocol: v1.usp\r\n")
	assert.True(t, strings.HasSuffix(resp, "\r\n\r\n"))
}
