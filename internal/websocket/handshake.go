package websocket

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"
	"strings"
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

var headerEnd = []byte("\r\n\r\n")

// Handshake is the parsed client opening request.
type Handshake struct {
	Method string
	Path   string
	Key    string
	// Protocol is the requested Sec-WebSocket-Protocol list, e.g. "v1.usp".
	Protocol string
	// Length of the request in bytes, including the terminating blank line.
	Length int
}

// ParseHandshake scans buf for a complete HTTP upgrade request.
// complete is false until the header block is terminated by a blank line.
func ParseHandshake(buf []byte) (hs Handshake, complete bool) {
	end := bytes.Index(buf, headerEnd)
	if end < 0 {
		return hs, false
	}
	hs.Length = end + len(headerEnd)

	lines := strings.Split(string(buf[:end]), "\r\n")
	if parts := strings.Fields(lines[0]); len(parts) >= 2 {
		hs.Method = parts[0]
		hs.Path = parts[1]
	}
	for _, line := range lines[1:] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "sec-websocket-key":
			hs.Key = strings.TrimSpace(value)
		case "sec-websocket-protocol":
			hs.Protocol = strings.TrimSpace(value)
		}
	}
	return hs, true
}

// AcceptKey computes the Sec-WebSocket-Accept value for a client key.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// HandshakeResponse renders the 101 Switching Protocols reply.
// protocol is echoed as Sec-WebSocket-Protocol when non-empty.
func HandshakeResponse(key, protocol string) []byte {
	var b strings.Builder
	b.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("Sec-WebSocket-Accept: ")
	b.WriteString(AcceptKey(key))
	b.WriteString("\r\n")
	if protocol != "" {
		b.WriteString("Sec-WebSocket-Protocol: ")
		b.WriteString(protocol)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// SelectProtocol picks "v1.usp" from a client's offered subprotocol list, if present.
func SelectProtocol(offered string) string {
	for _, p := range strings.Split(offered, ",") {
		if strings.TrimSpace(p) == "v1.usp" {
			return "v1.usp"
		}
	}
	return ""
}
