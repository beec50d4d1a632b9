package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftwall/driftwall/pkg/transition"
)

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantR   byte
		wantG   byte
		wantB   byte
		wantErr bool
	}{
		{"black", "000000", 0, 0, 0, false},
		{"white", "ffffff", 255, 255, 255, false},
		{"mixed case", "FF00aa", 255, 0, 0xaa, false},
		{"too short", "fff", 0, 0, 0, true},
		{"not hex", "zzzzzz", 0, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := parseHexColor(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantR, c.R)
			assert.Equal(t, tt.wantG, c.G)
			assert.Equal(t, tt.wantB, c.B)
		})
	}
}

func TestContentHashDiffersByInputKind(t *testing.T) {
	pathHash := contentHash("/tmp/wall.png", nil)
	stdinHash := contentHash("-", []byte("same bytes"))

	assert.NotEmpty(t, pathHash)
	assert.NotEmpty(t, stdinHash)
	assert.NotEqual(t, pathHash, stdinHash)

	// Path hashing is stable across calls and doesn't depend on stdinData.
	assert.Equal(t, pathHash, contentHash("/tmp/wall.png", []byte("ignored")))

	// Stdin hashing tracks the bytes, not the literal path string.
	assert.NotEqual(t, stdinHash, contentHash("-", []byte("different bytes")))
}

func TestParseBezier(t *testing.T) {
	b, err := parseBezier("0.1,0.2,0.3,0.4")
	require.NoError(t, err)
	assert.Equal(t, transition.Bezier{X1: 0.1, Y1: 0.2, X2: 0.3, Y2: 0.4}, b)

	_, err = parseBezier("0.1,0.2,0.3")
	assert.Error(t, err)

	_, err = parseBezier("a,b,c,d")
	assert.Error(t, err)
}

func TestParseWave(t *testing.T) {
	w, err := parseWave("20,30")
	require.NoError(t, err)
	assert.Equal(t, transition.WaveSize{Width: 20, Height: 30}, w)

	_, err = parseWave("20")
	assert.Error(t, err)
}

func TestParsePos(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want transition.Point
	}{
		{"center", "center", transition.Point{X: 50, Y: 50, Percent: true}},
		{"top", "top", transition.Point{X: 50, Y: 100, Percent: true}},
		{"bottom", "bottom", transition.Point{X: 50, Y: 0, Percent: true}},
		{"left", "left", transition.Point{X: 0, Y: 50, Percent: true}},
		{"right", "right", transition.Point{X: 100, Y: 50, Percent: true}},
		{"percent pair", "25%,75%", transition.Point{X: 25, Y: 75, Percent: true}},
		{"pixel pair", "100,200", transition.Point{X: 100, Y: 200, Percent: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parsePos(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}

	_, err := parsePos("nonsense")
	assert.Error(t, err)
}

func TestBuildTransitionDescriptor(t *testing.T) {
	opts := &imgOptions{
		transitionType:     "wipe",
		transitionStep:     45,
		transitionFPS:      30,
		transitionDuration: 2,
		transitionBezier:   "0,0,1,1",
		transitionAngle:    90,
		transitionPos:      "center",
		transitionWave:     "10,10",
		invertY:            true,
	}
	desc, err := buildTransitionDescriptor(opts)
	require.NoError(t, err)
	assert.Equal(t, transition.Wipe, desc.Type)
	assert.Equal(t, uint8(45), desc.Step)
	assert.Equal(t, uint8(30), desc.FPS)
	assert.Equal(t, uint32(2000), desc.DurationMS)
	assert.Equal(t, 90.0, desc.AngleDeg)
	assert.True(t, desc.InvertY)

	opts.transitionType = "bogus"
	_, err = buildTransitionDescriptor(opts)
	assert.Error(t, err)
}
