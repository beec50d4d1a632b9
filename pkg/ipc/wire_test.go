package ipc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeFrameHeader(t *testing.T) {
	frame, err := encodeFrame(byte(ReqPing), []byte("hello"))
	require.NoError(t, err)

	remaining, err := decodeFrameHeader(frame[:4])
	require.NoError(t, err)
	assert.Equal(t, len("hello")+1, remaining)
	assert.Equal(t, byte(ReqPing), frame[4])
	assert.Equal(t, "hello", string(frame[5:]))
}

func TestEncodeFrameRejectsOversizePayload(t *testing.T) {
	_, err := encodeFrame(0, make([]byte, maxFrameLength+1))
	assert.ErrorIs(t, err, errFrameTooLarge)
}

func TestFieldRoundTrip(t *testing.T) {
	w := &fieldWriter{}
	w.putString(1, "hello")
	w.putUint32(2, 42)
	w.putFloat64(3, 3.5)
	w.putBool(4, true)
	w.putStrings(5, []string{"a", "b", "c"})

	f, err := parseFields(w.bytes())
	require.NoError(t, err)

	assert.Equal(t, "hello", f.string(1))
	assert.Equal(t, uint32(42), f.uint32(2))
	assert.InDelta(t, 3.5, f.float64(3), 1e-9)
	assert.True(t, f.bool(4))
	assert.Equal(t, []string{"a", "b", "c"}, f.strings(5))
}

func TestParseFieldsRejectsTruncatedValue(t *testing.T) {
	w := &fieldWriter{}
	w.putString(1, "hello")
	buf := w.bytes()[:len(w.bytes())-1] // chop the last byte of the value
	_, err := parseFields(buf)
	assert.Error(t, err)
}

func TestImgRequestRoundTrip(t *testing.T) {
	req := ImgRequest{
		Outputs:     []string{"eDP-1", "HDMI-A-1"},
		FPSOverride: 30,
		Path:        "/tmp/wall.png",
		ContentHash: "abc123",
	}
	decoded, err := decodeImgRequest(req.encode())
	require.NoError(t, err)
	assert.Equal(t, req.Outputs, decoded.Outputs)
	assert.Equal(t, req.FPSOverride, decoded.FPSOverride)
	assert.Equal(t, req.Path, decoded.Path)
	assert.Equal(t, req.ContentHash, decoded.ContentHash)
	assert.False(t, decoded.HasFD)
}

func TestInfoReplyRoundTrip(t *testing.T) {
	reply := InfoReply{Outputs: []OutputInfo{
		{Name: "eDP-1", Width: 1920, Height: 1080, Scale: 1.5, Content: "img:wall.png"},
		{Name: "HDMI-A-1", Width: 2560, Height: 1440, Scale: 1.0, Content: "clear:#000000"},
	}}
	decoded, err := decodeInfoReply(reply.encode())
	require.NoError(t, err)
	require.Len(t, decoded.Outputs, 2)
	assert.Equal(t, reply.Outputs[0], decoded.Outputs[0])
	assert.Equal(t, reply.Outputs[1], decoded.Outputs[1])
}
