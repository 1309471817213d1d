// Package websocket implements the RFC 6455 subset used by the USP WebSocket MTP:
// the opening handshake and an incremental frame decoder/encoder for binary records.
package websocket

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame opcodes
const (
	OpContinuation byte = 0x0
	OpText         byte = 0x1
	OpBinary       byte = 0x2
	OpClose        byte = 0x8
	OpPing         byte = 0x9
	OpPong         byte = 0xA
)

// MaxFramePayload bounds a single frame and a reassembled fragmented message.
const MaxFramePayload = 16 << 20

var (
	// ErrFrameTooLarge is returned when a frame or reassembled message exceeds MaxFramePayload
	ErrFrameTooLarge = errors.New("websocket: frame payload exceeds maximum size")
	// ErrProtocol is returned for frames that violate RFC 6455 in ways the decoder cannot recover from
	ErrProtocol = errors.New("websocket: protocol error")
)

// header is the parsed fixed part of a frame.
type header struct {
	fin     bool
	opcode  byte
	masked  bool
	length  uint64
	maskKey [4]byte
	size    int
}

// parseHeader reads a frame header. ok is false when buf does not yet hold the whole header.
func parseHeader(buf []byte) (h header, ok bool, err error) {
	if len(buf) < 2 {
		return h, false, nil
	}
	h.fin = buf[0]&0x80 != 0
	h.opcode = buf[0] & 0x0F
	h.masked = buf[1]&0x80 != 0
	h.length = uint64(buf[1] & 0x7F)
	h.size = 2

	switch h.length {
	case 126:
		if len(buf) < h.size+2 {
			return h, false, nil
		}
		h.length = uint64(binary.BigEndian.Uint16(buf[h.size:]))
		h.size += 2
	case 127:
		if len(buf) < h.size+8 {
			return h, false, nil
		}
		h.length = binary.BigEndian.Uint64(buf[h.size:])
		h.size += 8
	}

	if h.length > MaxFramePayload {
		return h, false, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, h.length)
	}

	if h.masked {
		if len(buf) < h.size+4 {
			return h, false, nil
		}
		copy(h.maskKey[:], buf[h.size:h.size+4])
		h.size += 4
	}
	return h, true, nil
}

// EncodeFrame wraps payload in a single unmasked binary frame with FIN set.
func EncodeFrame(payload []byte) []byte {
	return encode(OpBinary, payload)
}

// EncodeControl builds an unmasked control frame (close, ping, pong).
func EncodeControl(opcode byte, payload []byte) []byte {
	return encode(opcode, payload)
}

func encode(opcode byte, payload []byte) []byte {
	b0 := byte(0x80) | (opcode & 0x0F)
	plen := len(payload)

	var hdr []byte
	switch {
	case plen <= 125:
		hdr = []byte{b0, byte(plen)}
	case plen <= 0xFFFF:
		hdr = make([]byte, 4)
		hdr[0] = b0
		hdr[1] = 126
		binary.BigEndian.PutUint16(hdr[2:], uint16(plen))
	default:
		hdr = make([]byte, 10)
		hdr[0] = b0
		hdr[1] = 127
		binary.BigEndian.PutUint64(hdr[2:], uint64(plen))
	}

	out := make([]byte, len(hdr)+plen)
	copy(out, hdr)
	copy(out[len(hdr):], payload)
	return out
}

// MaskFrame builds a masked frame as a client would send it.
func MaskFrame(opcode byte, fin bool, payload []byte, key [4]byte) []byte {
	b0 := opcode & 0x0F
	if fin {
		b0 |= 0x80
	}
	plen := len(payload)

	var hdr []byte
	switch {
	case plen <= 125:
		hdr = []byte{b0, 0x80 | byte(plen)}
	case plen <= 0xFFFF:
		hdr = make([]byte, 4)
		hdr[0] = b0
		hdr[1] = 0x80 | 126
		binary.BigEndian.PutUint16(hdr[2:], uint16(plen))
	default:
		hdr = make([]byte, 10)
		hdr[0] = b0
		hdr[1] = 0x80 | 127
		binary.BigEndian.PutUint64(hdr[2:], uint64(plen))
	}

	out := make([]byte, 0, len(hdr)+4+plen)
	out = append(out, hdr...)
	out = append(out, key[:]...)
	for i, b := range payload {
		out = append(out, b^key[i%4])
	}
	return out
}
