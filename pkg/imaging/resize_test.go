package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestFitStretchProducesExactTargetSize(t *testing.T) {
	src := solidImage(100, 50, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	out := FitTo(src, 40, 40, FitStretch, Color{}, Lanczos3)
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 40, out.Bounds().Dy())
}

func TestFitFitPadsWithFillColor(t *testing.T) {
	src := solidImage(100, 50, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	fill := Color{R: 0, G: 0, B: 0}
	out := FitTo(src, 100, 100, FitFit, fill, Nearest)
	// Top-left corner should be padding (source is 2:1, target is square).
	c := out.NRGBAAt(0, 0)
	assert.Equal(t, byte(0), c.R)
	assert.Equal(t, byte(0), c.G)
	assert.Equal(t, byte(0), c.B)
}

func TestFitCropFillsEntireTarget(t *testing.T) {
	src := solidImage(100, 50, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	out := FitTo(src, 60, 60, FitCrop, Color{}, Bilinear)
	assert.Equal(t, 60, out.Bounds().Dx())
	assert.Equal(t, 60, out.Bounds().Dy())
}

func TestFitNoNeverScales(t *testing.T) {
	src := solidImage(10, 10, color.NRGBA{R: 9, G: 9, B: 9, A: 255})
	out := FitTo(src, 100, 100, FitNo, Color{R: 5, G: 5, B: 5}, Nearest)
	center := out.NRGBAAt(50, 50)
	assert.Equal(t, byte(9), center.R)
	corner := out.NRGBAAt(0, 0)
	assert.Equal(t, byte(5), corner.R)
}

func TestParseFitModeAndFilter(t *testing.T) {
	m, err := ParseFitMode("crop")
	require.NoError(t, err)
	assert.Equal(t, FitCrop, m)

	_, err = ParseFitMode("bogus")
	assert.Error(t, err)

	f, err := ParseFilter("Mitchell")
	require.NoError(t, err)
	assert.Equal(t, Mitchell, f)
}
