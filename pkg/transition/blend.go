package transition

import "github.com/driftwall/driftwall/pkg/pixel"

// blendUniform linearly interpolates every channel of old and new by
// a single scalar t (Simple/Fade; spec.md §4.D).
func blendUniform(old, new_ *pixel.Frame, t float64) *pixel.Frame {
	out := pixel.NewFrame(old.W, old.H, old.Format)
	for i := range out.Pix {
		out.Pix[i] = lerpByte(old.Pix[i], new_.Pix[i], t)
	}
	return out
}

// blendGeometric blends per pixel using a spatial mask (Wipe/Wave/
// Grow/Outer/Center/Left/Right/Top/Bottom).
func blendGeometric(old, new_ *pixel.Frame, d Descriptor, resolved Type, t float64) *pixel.Frame {
	out := pixel.NewFrame(old.W, old.H, old.Format)
	bpp := old.Format.BytesPerPixel()
	for y := 0; y < old.H; y++ {
		for x := 0; x < old.W; x++ {
			m := mask(d, resolved, t, x, y, old.W, old.H)
			off := (y*old.W + x) * bpp
			for c := 0; c < bpp; c++ {
				out.Pix[off+c] = lerpByte(old.Pix[off+c], new_.Pix[off+c], m)
			}
		}
	}
	return out
}

func lerpByte(a, b byte, t float64) byte {
	v := float64(a) + t*(float64(b)-float64(a))
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v + 0.5)
}
