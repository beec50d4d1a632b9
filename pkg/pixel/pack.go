package pixel

import "image"

// PackNRGBA converts a decoded, already-resized *image.NRGBA into a
// Frame in the given target format. The padding channel of 4-byte
// formats is always written as zero (spec.md §4.C "Channel packing").
func PackNRGBA(src *image.NRGBA, format Format) *Frame {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := NewFrame(w, h, format)
	bpp := format.BytesPerPixel()
	ro, go_, bo := format.channelOrder()

	for y := 0; y < h; y++ {
		srcRow := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dstRow := out.Pix[y*w*bpp : (y+1)*w*bpp]
		for x := 0; x < w; x++ {
			sp := srcRow[x*4 : x*4+4]
			dp := dstRow[x*bpp : x*bpp+bpp]
			if format.HasPadding() {
				dp[0] = 0
			}
			dp[ro] = sp[0]
			dp[go_] = sp[1]
			dp[bo] = sp[2]
			// sp[3] (alpha) is dropped: the surface is opaque background content.
		}
	}
	return out
}
