package waylandclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := newEncoder()
	e.putUint32(42)
	e.putString("zwlr_layer_shell_v1")
	e.putObject(7)

	msg, err := e.build(3, 5)
	require.NoError(t, err)

	data, err := encode(msg)
	require.NoError(t, err)

	obj, op, size, err := decodeHeader(data)
	require.NoError(t, err)
	assert.Equal(t, objectID(3), obj)
	assert.Equal(t, opcode(5), op)
	assert.Equal(t, len(data), size)

	d := newDecoder(data[wireHeaderSize:], nil)
	n, err := d.uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), n)

	s, err := d.string()
	require.NoError(t, err)
	assert.Equal(t, "zwlr_layer_shell_v1", s)

	obj2, err := d.object()
	require.NoError(t, err)
	assert.Equal(t, objectID(7), obj2)
}

func TestStringPaddingAlignsTo4Bytes(t *testing.T) {
	for _, s := range []string{"", "a", "ab", "abc", "abcd", "abcde"} {
		e := newEncoder()
		e.putString(s)
		assert.Equal(t, 0, len(e.buf)%4, "padded length must be a multiple of 4 for %q", s)
	}
}

func TestOversizeMessageRejected(t *testing.T) {
	e := newEncoder()
	e.buf = make([]byte, maxWireMessage)
	_, err := e.build(1, 0)
	assert.ErrorIs(t, err, errMessageTooLarge)
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	_, _, _, err := decodeHeader([]byte{1, 2, 3})
	assert.ErrorIs(t, err, errShortMessage)
}

func TestScaleFromFixed120(t *testing.T) {
	assert.Equal(t, 1.5, ScaleFromFixed120(180))
	assert.Equal(t, 1.0, ScaleFromFixed120(120))
}
