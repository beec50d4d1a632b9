package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/ipc"
	"github.com/driftwall/driftwall/pkg/pixel"
)

func TestFingerprintStableForSameInputs(t *testing.T) {
	fill := imaging.Color{R: 1, G: 2, B: 3}
	a := fingerprint("abc123", 1920, 1080, imaging.FitCrop, fill, pixel.XRGB)
	b := fingerprint("abc123", 1920, 1080, imaging.FitCrop, fill, pixel.XRGB)
	assert.Equal(t, a, b)
}

func TestFingerprintDiffersWhenAnyFieldChanges(t *testing.T) {
	base := fingerprint("abc123", 1920, 1080, imaging.FitCrop, imaging.Color{}, pixel.XRGB)

	cases := map[string]string{
		"content hash":  fingerprint("xyz789", 1920, 1080, imaging.FitCrop, imaging.Color{}, pixel.XRGB),
		"width":         fingerprint("abc123", 1280, 1080, imaging.FitCrop, imaging.Color{}, pixel.XRGB),
		"height":        fingerprint("abc123", 1920, 720, imaging.FitCrop, imaging.Color{}, pixel.XRGB),
		"fit mode":      fingerprint("abc123", 1920, 1080, imaging.FitFit, imaging.Color{}, pixel.XRGB),
		"fill color":    fingerprint("abc123", 1920, 1080, imaging.FitCrop, imaging.Color{R: 9}, pixel.XRGB),
		"pixel format":  fingerprint("abc123", 1920, 1080, imaging.FitCrop, imaging.Color{}, pixel.RGB),
	}
	for name, other := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotEqual(t, base, other)
		})
	}
}

func TestDescribeContent(t *testing.T) {
	assert.Equal(t, "image: /tmp/wall.png", describeContent(ipc.ImgRequest{Path: "/tmp/wall.png"}))
	assert.Equal(t, "image: <stdin>", describeContent(ipc.ImgRequest{HasFD: true}))
}
