package bufferpool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAllocatesUpToMax(t *testing.T) {
	p := New(4096)
	defer p.Drain()

	var got []*Buffer
	for i := 0; i < maxBuffers; i++ {
		b, err := p.Acquire()
		require.NoError(t, err)
		assert.Equal(t, 4096, len(b.Data))
		got = append(got, b)
	}

	_, err := p.Acquire()
	require.ErrorIs(t, err, ErrBusy, "fifth acquire must fail while all four are busy")

	got[0].Release()
	b, err := p.Acquire()
	require.NoError(t, err)
	assert.Same(t, got[0], b, "a released buffer must be reused before allocating")
}

func TestInUseTracksBusyCount(t *testing.T) {
	p := New(64)
	defer p.Drain()

	assert.Equal(t, 0, p.InUse())
	b, err := p.Acquire()
	require.NoError(t, err)
	assert.Equal(t, 1, p.InUse())
	b.Release()
	assert.Equal(t, 0, p.InUse())
}

func TestDrainClosesEverything(t *testing.T) {
	p := New(64)
	_, err := p.Acquire()
	require.NoError(t, err)
	p.Drain()
	assert.Empty(t, p.buffers)
}
