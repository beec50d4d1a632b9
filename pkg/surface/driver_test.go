package surface

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwall/driftwall/pkg/codec"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/pixel"
	"github.com/driftwall/driftwall/pkg/player"
	"github.com/driftwall/driftwall/pkg/transition"
)

func solidFrame(c byte) *pixel.Frame {
	f := pixel.NewFrame(2, 2, pixel.XRGB)
	f.Fill(c, c, c)
	return f
}

func TestTransitionDriverPacesAtDescriptorFPS(t *testing.T) {
	old, new_ := solidFrame(0), solidFrame(255)
	desc := transition.Descriptor{Type: transition.Fade, FPS: 10, DurationMS: 300}
	seq := transition.NewSequence(old, new_, desc, nil)

	start := time.Unix(1000, 0)
	d := newTransitionDriver(seq, desc.FPS, start)

	assert.True(t, d.due(start), "driver should be due at its own start time")
	assert.False(t, d.due(start.Add(-time.Millisecond)))

	_, done, err := d.step(start)
	require.NoError(t, err)
	assert.False(t, done)

	want := start.Add(100 * time.Millisecond) // 1/10s tick at 10fps
	assert.Equal(t, want, d.next)
}

func TestTransitionDriverReportsDoneAfterSequenceExhausted(t *testing.T) {
	old, new_ := solidFrame(0), solidFrame(255)
	desc := transition.Descriptor{Type: transition.None, FPS: 30, DurationMS: 0}
	seq := transition.NewSequence(old, new_, desc, nil)
	d := newTransitionDriver(seq, desc.FPS, time.Unix(0, 0))

	frame, done, err := d.step(time.Unix(0, 0))
	require.NoError(t, err)
	assert.False(t, done)
	assert.NotNil(t, frame)

	_, done, err = d.step(time.Unix(1, 0))
	require.NoError(t, err)
	assert.True(t, done, "a one-frame (None) sequence is exhausted after its single frame")
}

func TestTransitionDriverDefaultsZeroFPSToOne(t *testing.T) {
	seq := transition.NewSequence(solidFrame(0), solidFrame(1), transition.Descriptor{Type: transition.None}, nil)
	d := newTransitionDriver(seq, 0, time.Unix(0, 0))
	assert.Equal(t, time.Second, d.interval)
}

func buildTestAnimation(t *testing.T, frameDuration time.Duration) *imaging.Animation {
	t.Helper()
	anchor := solidFrame(10)
	next := solidFrame(20)
	delta := codec.Compress(anchor.Pix, next.Pix, codec.Channels4)
	return &imaging.Animation{
		Anchor:         anchor,
		AnchorDuration: frameDuration,
		Channels:       codec.Channels4,
		Frames:         []imaging.AnimFrame{{Duration: frameDuration, Delta: delta}},
	}
}

func TestPlayerDriverNeverReportsDone(t *testing.T) {
	anim := buildTestAnimation(t, 40*time.Millisecond)
	start := time.Unix(2000, 0)
	pd := newPlayerDriver(player.New(anim, start))
	defer pd.close()

	assert.False(t, pd.due(start.Add(-time.Millisecond)))
	assert.True(t, pd.due(start.Add(40*time.Millisecond)))

	_, done, err := pd.step(start.Add(40 * time.Millisecond))
	require.NoError(t, err)
	assert.False(t, done, "animations loop indefinitely, they never report done")
}

func TestStateStringCoversAllValues(t *testing.T) {
	cases := map[State]string{
		StateUnconfigured:  "unconfigured",
		StateConfigured:    "configured",
		StateTransitioning: "transitioning",
		StateAnimating:     "animating",
		State(99):          "unknown",
	}
	for state, want := range cases {
		assert.Equal(t, want, state.String())
	}
}
