package transition

import (
	"math/rand"
	"testing"

	"github.com/driftwall/driftwall/pkg/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrames() (*pixel.Frame, *pixel.Frame) {
	old := pixel.NewFrame(20, 20, pixel.RGB)
	old.Fill(10, 10, 10)
	new_ := pixel.NewFrame(20, 20, pixel.RGB)
	new_.Fill(250, 250, 250)
	return old, new_
}

func TestSequenceEndsExactlyAtTarget(t *testing.T) {
	types := []Type{None, Simple, Fade, Wipe, Wave, Grow, Outer, Center, Left, Right, Top, Bottom}
	old, new_ := sampleFrames()
	for _, ty := range types {
		d := Descriptor{Type: ty, Step: 16, FPS: 30, DurationMS: 500, Bezier: DefaultBezier, WaveSize: WaveSize{Width: 10, Height: 5}}
		seq := NewSequence(old, new_, d, rand.New(rand.NewSource(1)))
		frames := Drain(seq)
		require.NotEmpty(t, frames, ty.String())
		assert.Equal(t, new_.Pix, frames[len(frames)-1].Pix, "last frame must equal target for %s", ty)
	}
}

func TestSequenceRespectsFrameBound(t *testing.T) {
	d := Descriptor{Type: Wipe, FPS: 30, DurationMS: 1000, Bezier: DefaultBezier}
	old, new_ := sampleFrames()
	seq := NewSequence(old, new_, d, nil)
	assert.LessOrEqual(t, seq.Len(), 30)
}

func TestSimpleStepOf255IsOneFrame(t *testing.T) {
	d := Descriptor{Type: Simple, Step: 255, FPS: 30, DurationMS: 1000}
	old, new_ := sampleFrames()
	seq := NewSequence(old, new_, d, nil)
	frames := Drain(seq)
	assert.Len(t, frames, 1)
	assert.Equal(t, new_.Pix, frames[0].Pix)
}

func TestResolveRandomNeverPicksAnyOrRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		ty := Resolve(Random, rnd)
		assert.NotEqual(t, Any, ty)
		assert.NotEqual(t, Random, ty)
		assert.NotEqual(t, None, ty)
	}
}

func TestResolveAnyPicksCenterOrOuter(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		ty := Resolve(Any, rnd)
		assert.Contains(t, []Type{Center, Outer}, ty)
	}
}

func TestCancellationStopsBeforeExhaustion(t *testing.T) {
	old, new_ := sampleFrames()
	d := Descriptor{Type: Fade, FPS: 60, DurationMS: 1000, Bezier: DefaultBezier}
	seq := NewSequence(old, new_, d, nil)
	f, ok := seq.Next()
	require.True(t, ok)
	assert.NotNil(t, f)
	// Caller simply stops calling Next(); no separate teardown required.
}
