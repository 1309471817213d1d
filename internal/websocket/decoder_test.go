package websocket

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = [4]byte{0x37, 0xfa, 0x21, 0x3d}

func newTestDecoder(w *bytes.Buffer) *Decoder {
	return NewDecoder(w, zerolog.Nop())
}

func TestDecodeMaskedBinaryFrame(t *testing.T) {
	frame := MaskFrame(OpBinary, true, []byte("hello usp"), testKey)

	res, err := newTestDecoder(nil).Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, Delivered, res.Status)
	assert.Equal(t, []byte("hello usp"), res.Payload)
	assert.Equal(t, len(frame), res.Consumed)
}

func TestDecodeIncompleteFrameConsumesNothing(t *testing.T) {
	frame := MaskFrame(OpBinary, true, bytes.Repeat([]byte{0xAB}, 300), testKey)
	d := newTestDecoder(nil)

	for _, cut := range []int{0, 1, 2, 3, 4, 7, len(frame) - 1} {
		res, err := d.Decode(frame[:cut])
		require.NoError(t, err)
		assert.Equal(t, NeedMoreData, res.Status, "cut=%d", cut)
		assert.Zero(t, res.Consumed)
	}
}

func TestDecodeExtendedLengths(t *testing.T) {
	for _, size := range []int{125, 126, 65535, 65536, 70000} {
		payload := bytes.Repeat([]byte{byte(size)}, size)
		res, err := newTestDecoder(nil).Decode(MaskFrame(OpBinary, true, payload, testKey))
		require.NoError(t, err)
		require.Equal(t, Delivered, res.Status)
		assert.Equal(t, payload, res.Payload, "size=%d", size)
	}
}

func TestPingProducesSinglePong(t *testing.T) {
	var out bytes.Buffer
	d := newTestDecoder(&out)

	delivered, err := d.Feed(MaskFrame(OpPing, true, []byte("keepalive"), testKey))
	require.NoError(t, err)
	assert.Empty(t, delivered)

	assert.Equal(t, EncodeControl(OpPong, []byte("keepalive")), out.Bytes())
	assert.False(t, d.Closed())
}

func TestCloseFrameMarksClosed(t *testing.T) {
	d := newTestDecoder(nil)
	stream := append(MaskFrame(OpClose, true, nil, testKey), MaskFrame(OpBinary, true, []byte("late"), testKey)...)

	delivered, err := d.Feed(stream)
	require.NoError(t, err)
	assert.Empty(t, delivered)
	assert.True(t, d.Closed())
}

func TestFragmentedMessageReassembly(t *testing.T) {
	d := newTestDecoder(nil)
	var stream []byte
	stream = append(stream, MaskFrame(OpBinary, false, []byte("abc"), testKey)...)
	stream = append(stream, MaskFrame(OpPing, true, []byte("p"), testKey)...)
	stream = append(stream, MaskFrame(OpContinuation, false, []byte("def"), testKey)...)
	stream = append(stream, MaskFrame(OpContinuation, true, []byte("ghi"), testKey)...)

	var pongs bytes.Buffer
	d.control = &pongs
	delivered, err := d.Feed(stream)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, []byte("abcdefghi"), delivered[0])
	assert.Equal(t, EncodeControl(OpPong, []byte("p")), pongs.Bytes())
}

func TestOrphanContinuationIsDropped(t *testing.T) {
	d := newTestDecoder(nil)
	stream := append(MaskFrame(OpContinuation, true, []byte("orphan"), testKey), MaskFrame(OpBinary, true, []byte("ok"), testKey)...)

	delivered, err := d.Feed(stream)
	require.NoError(t, err)
	require.Len(t, delivered, 1)
	assert.Equal(t, []byte("ok"), delivered[0])
	assert.False(t, d.Closed())
}

func TestSplitFeedMatchesContiguousFeed(t *testing.T) {
	var stream []byte
	stream = append(stream, MaskFrame(OpBinary, true, bytes.Repeat([]byte("x"), 200), testKey)...)
	stream = append(stream, MaskFrame(OpBinary, false, []byte("frag-1/"), testKey)...)
	stream = append(stream, MaskFrame(OpContinuation, true, bytes.Repeat([]byte("y"), 70000), testKey)...)
	stream = append(stream, MaskFrame(OpBinary, true, []byte("tail"), testKey)...)

	whole, err := newTestDecoder(nil).Feed(stream)
	require.NoError(t, err)
	require.Len(t, whole, 3)

	for _, step := range []int{1, 2, 3, 5, 13, 127, 4096} {
		d := newTestDecoder(nil)
		var got [][]byte
		for i := 0; i < len(stream); i += step {
			end := i + step
			if end > len(stream) {
				end = len(stream)
			}
			msgs, err := d.Feed(stream[i:end])
			require.NoError(t, err)
			got = append(got, msgs...)
		}
		assert.Equal(t, whole, got, "step=%d", step)
		assert.Zero(t, d.BufferedLen())
	}
}

func TestUnmaskedFrameAccepted(t *testing.T) {
	res, err := newTestDecoder(nil).Decode(EncodeFrame([]byte("server-style")))
	require.NoError(t, err)
	assert.Equal(t, Delivered, res.Status)
	assert.Equal(t, []byte("server-style"), res.Payload)
}

func TestReservedOpcodeIsProtocolError(t *testing.T) {
	_, err := newTestDecoder(nil).Decode(MaskFrame(0x3, true, []byte("x"), testKey))
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestOversizedFrameRejected(t *testing.T) {
	hdr := []byte{0x82, 0x80 | 127, 0, 0, 0, 0, 0x10, 0, 0, 0}
	_, err := newTestDecoder(nil).Decode(hdr)
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestEncodeFrameHeaderSizes(t *testing.T) {
	cases := []struct {
		size   int
		header int
		b1     byte
	}{
		{size: 0, header: 2, b1: 0},
		{size: 125, header: 2, b1: 125},
		{size: 126, header: 4, b1: 126},
		{size: 65535, header: 4, b1: 126},
		{size: 65536, header: 10, b1: 127},
	}
	for _, tc := range cases {
		frame := EncodeFrame(make([]byte, tc.size))
		assert.Equal(t, byte(0x82), frame[0], "size=%d", tc.size)
		assert.Equal(t, tc.b1, frame[1], "size=%d", tc.size)
		assert.Len(t, frame, tc.header+tc.size)
	}
}
