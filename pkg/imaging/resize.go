package imaging

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// FitTo resizes src to exactly (dstW, dstH) per mode, padding with fill
// where the aspect ratio doesn't exactly match (spec.md §4.C). The
// result is always a straight-alpha *image.NRGBA of the requested
// size, ready for pixel.PackNRGBA.
func FitTo(src image.Image, dstW, dstH int, mode FitMode, fill Color, filter Filter) *image.NRGBA {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()

	canvas := image.NewNRGBA(image.Rect(0, 0, dstW, dstH))
	fillCanvas(canvas, fill)

	switch mode {
	case FitNo:
		// No resize: center the original, cropping whatever overflows.
		ox := (dstW - sw) / 2
		oy := (dstH - sh) / 2
		draw.Draw(canvas, image.Rect(ox, oy, ox+sw, oy+sh), src, sb.Min, draw.Src)

	case FitStretch:
		scaleInto(canvas, canvas.Bounds(), src, sb, filter)

	case FitCrop:
		scale := maxF(float64(dstW)/float64(sw), float64(dstH)/float64(sh))
		rw, rh := ceilInt(float64(sw)*scale), ceilInt(float64(sh)*scale)
		resized := image.NewNRGBA(image.Rect(0, 0, rw, rh))
		scaleInto(resized, resized.Bounds(), src, sb, filter)
		ox := (rw - dstW) / 2
		oy := (rh - dstH) / 2
		draw.Draw(canvas, canvas.Bounds(), resized, image.Pt(ox, oy), draw.Src)

	case FitFit:
		scale := minF(float64(dstW)/float64(sw), float64(dstH)/float64(sh))
		if scale > 1 {
			scale = 1 // "for images larger than target in fit, scale down; never upscale past 1:1 padding"
		}
		rw, rh := floorInt(float64(sw)*scale), floorInt(float64(sh)*scale)
		if rw < 1 {
			rw = 1
		}
		if rh < 1 {
			rh = 1
		}
		resized := image.NewNRGBA(image.Rect(0, 0, rw, rh))
		scaleInto(resized, resized.Bounds(), src, sb, filter)
		ox := (dstW - rw) / 2
		oy := (dstH - rh) / 2
		draw.Draw(canvas, image.Rect(ox, oy, ox+rw, oy+rh), resized, image.Point{}, draw.Src)
	}

	return canvas
}

func scaleInto(dst *image.NRGBA, dr image.Rectangle, src image.Image, sr image.Rectangle, filter Filter) {
	filter.scaler().Scale(dst, dr, src, sr, xdraw.Src, nil)
}

func fillCanvas(dst *image.NRGBA, c Color) {
	col := color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: col}, image.Point{}, draw.Src)
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func ceilInt(f float64) int {
	i := int(f)
	if float64(i) < f {
		i++
	}
	return i
}

func floorInt(f float64) int {
	return int(f)
}
