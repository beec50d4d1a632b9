package pixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBytesPerPixel(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		expected int
	}{
		{"xrgb", XRGB, 4},
		{"xbgr", XBGR, 4},
		{"rgb", RGB, 3},
		{"bgr", BGR, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.format.BytesPerPixel())
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("xbgr")
	require.NoError(t, err)
	assert.Equal(t, XBGR, f)

	_, err = ParseFormat("nope")
	assert.Error(t, err)
}

func TestFrameStrideRoundsUpToFour(t *testing.T) {
	f := NewFrame(3, 2, RGB) // 3*3=9 bytes/row, rounds up to 12
	assert.Equal(t, 12, f.Stride())
}

func TestFrameFillWritesZeroPadding(t *testing.T) {
	f := NewFrame(2, 2, XRGB)
	f.Fill(0x10, 0x20, 0x30)
	for i := 0; i < len(f.Pix); i += 4 {
		px := f.Pix[i : i+4]
		assert.Equal(t, byte(0), px[0])
		assert.Equal(t, byte(0x10), px[1])
		assert.Equal(t, byte(0x20), px[2])
		assert.Equal(t, byte(0x30), px[3])
	}
}

func TestFrameCloneIsIndependent(t *testing.T) {
	f := NewFrame(1, 1, RGB)
	f.Fill(1, 2, 3)
	cp := f.Clone()
	cp.Pix[0] = 0xff
	assert.NotEqual(t, f.Pix[0], cp.Pix[0])
}
