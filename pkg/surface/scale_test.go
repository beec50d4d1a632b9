package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferSizeRoundsUpAtOneToOne(t *testing.T) {
	w, h := bufferSize(1920, 1080, 120)
	assert.Equal(t, int32(1920), w)
	assert.Equal(t, int32(1080), h)
}

func TestBufferSizeRoundsUpAtFractionalScale(t *testing.T) {
	// 1.5x on an odd logical width must round up, never truncate.
	w, h := bufferSize(1, 1, 180)
	assert.Equal(t, int32(2), w)
	assert.Equal(t, int32(2), h)
}

func TestBufferSizeHandlesExactDivision(t *testing.T) {
	w, _ := bufferSize(100, 100, 240) // 2.0x
	assert.Equal(t, int32(200), w)
}

func TestStrideRoundsUpToFour(t *testing.T) {
	assert.Equal(t, int32(12), strideFor(3, 4))
	assert.Equal(t, int32(0), strideFor(0, 3))
	assert.Equal(t, int32(12), strideFor(3, 3)) // 9 raw bytes rounds up to 12
}
