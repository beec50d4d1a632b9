package surface

// oneToOneScale120 is wp_fractional_scale_v1's encoding of a 1.0x
// scale (120ths of an integer), the default before any scale event
// has arrived.
const oneToOneScale120 = 120

// bufferSize converts a logical surface size and a scale expressed in
// 120ths to the physical pixel size the attached buffer must be,
// rounding up on both axes per spec.md §9's resolved rounding rule
// ("fractional scale rounds via ceil on both axes").
func bufferSize(logicalW, logicalH int32, scale120 uint32) (w, h int32) {
	return ceilScale(logicalW, scale120), ceilScale(logicalH, scale120)
}

func ceilScale(logical int32, scale120 uint32) int32 {
	if logical <= 0 {
		return 0
	}
	num := int64(logical) * int64(scale120)
	den := int64(oneToOneScale120)
	return int32((num + den - 1) / den)
}

// strideFor rounds a packed row's byte width up to a 4-byte boundary,
// matching pixel.Frame.Stride (spec.md §3 "Pixel frame").
func strideFor(w int32, bytesPerPixel int) int32 {
	raw := w * int32(bytesPerPixel)
	return (raw + 3) &^ 3
}
