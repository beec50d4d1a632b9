package codec

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randFrame(n int, seed int64) []byte {
	r := rand.New(rand.NewSource(seed))
	buf := make([]byte, n)
	r.Read(buf)
	return buf
}

func TestRoundTripEqualFrames(t *testing.T) {
	for _, ch := range []Channels{Channels3, Channels4} {
		prev := randFrame(300*int(ch), 1)
		delta := Compress(prev, prev, ch)
		next, err := Decompress(prev, delta, ch)
		require.NoError(t, err)
		assert.Equal(t, prev, next)
	}
}

func TestRoundTripRandomFrames(t *testing.T) {
	for _, ch := range []Channels{Channels3, Channels4} {
		for seed := int64(0); seed < 20; seed++ {
			prev := randFrame(513*int(ch), seed)
			next := randFrame(513*int(ch), seed+1000)
			if ch == Channels4 {
				zeroPadding(next, ch)
				zeroPadding(prev, ch)
			}
			delta := Compress(prev, next, ch)
			got, err := Decompress(prev, delta, ch)
			require.NoError(t, err)
			assert.Equal(t, next, got)
		}
	}
}

func zeroPadding(buf []byte, ch Channels) {
	bpp := ch.bpp()
	for i := 0; i < len(buf); i += bpp {
		buf[i] = 0
	}
}

func TestCompressEqualFramesIsMinimal(t *testing.T) {
	prev := randFrame(10000*3, 7)
	delta := Compress(prev, prev, Channels3)
	// skip-count encoding only: floor(pixelCount/255) 0xFF-run bytes + 1
	// residual byte + 1 terminator diff byte, plus one byte of slack.
	pixels := 10000
	expectMax := (pixels/255 + 2) + 1
	assert.LessOrEqual(t, len(delta), expectMax)
}

func TestVectorizationParity(t *testing.T) {
	prev := randFrame(777*3, 3)
	next := randFrame(777*3, 4)
	variants := []Variant{VariantScalar, VariantChunk8, VariantChunk32}
	var want []byte
	for i, v := range variants {
		got := CompressWith(prev, next, Channels3, v)
		if i == 0 {
			want = got
		} else {
			assert.Equal(t, want, got, "variant %s diverged", v)
		}
	}
}

func TestDecompressCorruptStream(t *testing.T) {
	prev := randFrame(10*3, 1)
	_, err := Decompress(prev, []byte{0xFF}, Channels3) // truncated skip count
	assert.Error(t, err)

	// skip count overruns the frame
	bad := appendCount(nil, 999)
	bad = appendCount(bad, 0)
	_, err = Decompress(prev, bad, Channels3)
	assert.Error(t, err)
}

func TestAppendReadCountRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 254, 255, 256, 510, 1000, 1 << 20} {
		buf := appendCount(nil, n)
		got, off, ok := readCount(buf, 0)
		require.True(t, ok)
		assert.Equal(t, n, got)
		assert.Equal(t, len(buf), off)
	}
}
