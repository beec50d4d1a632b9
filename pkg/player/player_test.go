package player

import (
	"testing"
	"time"

	"github.com/driftwall/driftwall/pkg/codec"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/pixel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAnim(t *testing.T, colors [][3]byte, frameDuration time.Duration) *imaging.Animation {
	t.Helper()
	anchor := pixel.NewFrame(4, 4, pixel.RGB)
	anchor.Fill(colors[0][0], colors[0][1], colors[0][2])

	anim := &imaging.Animation{Anchor: anchor, AnchorDuration: frameDuration, Channels: codec.Channels3}
	prev := anchor
	for _, c := range colors[1:] {
		next := pixel.NewFrame(4, 4, pixel.RGB)
		next.Fill(c[0], c[1], c[2])
		delta := codec.Compress(prev.Pix, next.Pix, codec.Channels3)
		anim.Frames = append(anim.Frames, imaging.AnimFrame{Duration: frameDuration, Delta: delta})
		prev = next
	}
	return anim
}

func TestPlayerAdvancesOnSchedule(t *testing.T) {
	anim := buildAnim(t, [][3]byte{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}}, 100*time.Millisecond)
	start := time.Now()
	p := New(anim, start)

	f, err := p.Advance(start)
	require.NoError(t, err)
	assert.Equal(t, byte(1), f.Pix[0]) // not due yet (anchor duration is 100ms)

	f, err = p.Advance(start.Add(150 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, byte(2), f.Pix[0])
}

func TestPlayerLoopsAndTracksCount(t *testing.T) {
	anim := buildAnim(t, [][3]byte{{1, 1, 1}, {2, 2, 2}}, 10*time.Millisecond)
	start := time.Now()
	p := New(anim, start)

	_, err := p.Advance(start.Add(1 * time.Second))
	require.NoError(t, err)
	assert.Greater(t, p.Loops(), uint64(0))
}

func TestPlayerNeverStallsOnLongGap(t *testing.T) {
	anim := buildAnim(t, [][3]byte{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}}, 10*time.Millisecond)
	start := time.Now()
	p := New(anim, start)

	f, err := p.Advance(start.Add(10 * time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, f) // completes promptly instead of looping ~3.6M times
}

func TestCacheSharesAnimationAndStartTime(t *testing.T) {
	cache, err := NewCache(1 << 20)
	require.NoError(t, err)
	defer cache.Close()

	anim := buildAnim(t, [][3]byte{{1, 1, 1}, {2, 2, 2}}, 10*time.Millisecond)
	now := time.Now()

	gotAnim, gotStart := cache.GetOrStart("key", anim, now)
	assert.Same(t, anim, gotAnim)
	assert.Equal(t, now, gotStart)

	later := now.Add(time.Second)
	otherAnim, start2 := cache.GetOrStart("key", buildAnim(t, [][3]byte{{9, 9, 9}}, time.Millisecond), later)
	assert.Same(t, anim, otherAnim, "second output must reuse the first decode")
	assert.Equal(t, now, start2, "second output must share the first start time")
}
