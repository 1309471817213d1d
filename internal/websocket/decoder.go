package websocket

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Status tells the caller what a Decode call produced.
type Status int

const (
	// NeedMoreData means the buffer holds an incomplete frame; nothing was consumed.
	NeedMoreData Status = iota
	// Delivered means Result.Payload holds a complete application message.
	Delivered
	// ControlHandled means a control frame (ping, pong, close) was consumed.
	ControlHandled
	// Buffered means a data frame was consumed without completing a message.
	Buffered
)

func (s Status) String() string {
	switch s {
	case NeedMoreData:
		return "need-more-data"
	case Delivered:
		return "delivered"
	case ControlHandled:
		return "control-handled"
	case Buffered:
		return "buffered"
	default:
		return "unknown"
	}
}

// Result is the outcome of decoding a single frame.
type Result struct {
	Status   Status
	Payload  []byte
	Consumed int
	Closed   bool
}

// Decoder turns a client byte stream into application messages.
// It keeps the fragmentation state of one connection and is not safe for concurrent use.
type Decoder struct {
	control io.Writer
	log     zerolog.Logger

	fragmenting bool
	fragOpcode  byte
	fragPayload []byte

	pending []byte
	closed  bool
}

// NewDecoder returns a decoder that writes pong replies to control.
func NewDecoder(control io.Writer, log zerolog.Logger) *Decoder {
	return &Decoder{control: control, log: log}
}

// Closed reports whether a close frame has been received.
func (d *Decoder) Closed() bool {
	return d.closed
}

// Decode parses at most one frame from the start of buf.
func (d *Decoder) Decode(buf []byte) (Result, error) {
	h, ok, err := parseHeader(buf)
	if err != nil {
		return Result{}, err
	}
	if !ok || uint64(len(buf)-h.size) < h.length {
		return Result{Status: NeedMoreData}, nil
	}

	consumed := h.size + int(h.length)
	payload := make([]byte, h.length)
	copy(payload, buf[h.size:consumed])
	if h.masked {
		for i := range payload {
			payload[i] ^= h.maskKey[i%4]
		}
	} else {
		d.log.Debug().Uint8("opcode", h.opcode).Msg("unmasked client frame")
	}

	switch h.opcode {
	case OpClose:
		d.closed = true
		return Result{Status: ControlHandled, Consumed: consumed, Closed: true}, nil

	case OpPing:
		if d.control != nil {
			if _, err := d.control.Write(EncodeControl(OpPong, payload)); err != nil {
				return Result{}, fmt.Errorf("write pong: %w", err)
			}
		}
		return Result{Status: ControlHandled, Consumed: consumed}, nil

	case OpPong:
		return Result{Status: ControlHandled, Consumed: consumed}, nil

	case OpText, OpBinary:
		if d.fragmenting {
			d.log.Warn().Int("dropped_bytes", len(d.fragPayload)).Msg("⚠️ new data frame while fragment in progress, dropping fragment")
			d.resetFragment()
		}
		if h.fin {
			return Result{Status: Delivered, Payload: payload, Consumed: consumed}, nil
		}
		d.fragmenting = true
		d.fragOpcode = h.opcode
		d.fragPayload = payload
		return Result{Status: Buffered, Consumed: consumed}, nil

	case OpContinuation:
		if !d.fragmenting {
			// Lenient: RFC 6455 would fail the connection here.
			d.log.Warn().Int("bytes", len(payload)).Msg("⚠️ continuation frame without initial fragment, dropped")
			return Result{Status: Buffered, Consumed: consumed}, nil
		}
		if len(d.fragPayload)+len(payload) > MaxFramePayload {
			d.resetFragment()
			return Result{}, fmt.Errorf("%w: fragmented message", ErrFrameTooLarge)
		}
		d.fragPayload = append(d.fragPayload, payload...)
		if !h.fin {
			return Result{Status: Buffered, Consumed: consumed}, nil
		}
		msg := d.fragPayload
		d.resetFragment()
		return Result{Status: Delivered, Payload: msg, Consumed: consumed}, nil

	default:
		return Result{}, fmt.Errorf("%w: reserved opcode 0x%x", ErrProtocol, h.opcode)
	}
}

// Feed appends chunk to the retained buffer and decodes every complete frame in it.
// It returns the delivered messages in order. Decoding stops after a close frame.
func (d *Decoder) Feed(chunk []byte) ([][]byte, error) {
	d.pending = append(d.pending, chunk...)

	var out [][]byte
	for len(d.pending) > 0 && !d.closed {
		res, err := d.Decode(d.pending)
		if err != nil {
			return out, err
		}
		if res.Status == NeedMoreData {
			break
		}
		d.pending = d.pending[res.Consumed:]
		if res.Status == Delivered {
			out = append(out, res.Payload)
		}
	}
	if len(d.pending) == 0 {
		d.pending = nil
	}
	return out, nil
}

// BufferedLen returns the number of retained bytes not yet forming a complete frame.
func (d *Decoder) BufferedLen() int {
	return len(d.pending)
}

func (d *Decoder) resetFragment() {
	d.fragmenting = false
	d.fragOpcode = 0
	d.fragPayload = nil
}
