package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwall/driftwall/pkg/codec"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/pixel"
)

func buildTestAnim(t *testing.T) *imaging.Animation {
	t.Helper()
	anchor := pixel.NewFrame(2, 2, pixel.XRGB)
	anchor.Fill(10, 20, 30)
	next := pixel.NewFrame(2, 2, pixel.XRGB)
	next.Fill(40, 50, 60)
	delta := codec.Compress(anchor.Pix, next.Pix, codec.Channels4)
	return &imaging.Animation{
		Anchor:   anchor,
		Channels: codec.Channels4,
		Frames: []imaging.AnimFrame{
			{Duration: 40 * time.Millisecond, Delta: delta},
		},
	}
}

func TestWriteReadAnimationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eDP-1.cache")
	anim := buildTestAnim(t)

	require.NoError(t, WriteAnimation(path, anim, pixel.XRGB))

	got, format, err := ReadAnimation(path)
	require.NoError(t, err)
	assert.Equal(t, pixel.XRGB, format)
	assert.Equal(t, anim.Anchor.Pix, got.Anchor.Pix)
	require.Len(t, got.Frames, 1)
	assert.Equal(t, anim.Frames[0].Duration, got.Frames[0].Duration)
	assert.Equal(t, anim.Frames[0].Delta, got.Frames[0].Delta)
}

func TestReadAnimationRejectsBadMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cache")
	require.NoError(t, os.WriteFile(path, []byte("SWWW\x01\x00\x00\x00\x00"), 0o644))

	_, _, err := ReadAnimation(path)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestWriteAnimationIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "eDP-1.cache")
	anim := buildTestAnim(t)

	require.NoError(t, WriteAnimation(path, anim, pixel.XRGB))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must not survive a successful write")
}

func TestClearRemovesAllCacheFiles(t *testing.T) {
	dir := t.TempDir()
	anim := buildTestAnim(t)
	require.NoError(t, WriteAnimation(Path(dir, "eDP-1"), anim, pixel.XRGB))
	require.NoError(t, WriteAnimation(Path(dir, "HDMI-A-1"), anim, pixel.XRGB))

	require.NoError(t, Clear(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestClearOnMissingDirIsNotAnError(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	assert.NoError(t, Clear(dir))
}

func TestDirCreatesNamespacedSubdirectory(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir, err := Dir("laptop")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, "laptop", filepath.Base(dir))
}
