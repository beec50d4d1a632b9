package codec

// Decompress reverses Compress: next[i] = prev[i] on skip,
// next[i] = prev[i] ^ delta on diff. A corrupt stream (truncated, or
// whose skip/diff counts overrun the frame) yields an *ErrCorrupt,
// never a silently clamped result (spec.md §4.A "Errors").
func Decompress(prev, delta []byte, ch Channels) ([]byte, error) {
	n, err := pixelCount(len(prev), ch)
	if err != nil {
		return nil, err
	}
	bpp := ch.bpp()
	start := 0
	if ch == Channels4 {
		start = 1
	}
	cmpBytes := bpp - start

	next := make([]byte, len(prev))
	pos := 0
	off := 0
	for {
		skip, newOff, ok := readCount(delta, off)
		if !ok {
			return nil, &ErrCorrupt{Reason: "truncated skip count"}
		}
		off = newOff
		if pos+skip > n {
			return nil, &ErrCorrupt{Reason: "skip count overruns frame"}
		}
		copy(next[pos*bpp:(pos+skip)*bpp], prev[pos*bpp:(pos+skip)*bpp])
		pos += skip

		diffCount, newOff2, ok := readCount(delta, off)
		if !ok {
			return nil, &ErrCorrupt{Reason: "truncated diff count"}
		}
		off = newOff2

		if diffCount == 0 {
			if pos != n {
				return nil, &ErrCorrupt{Reason: "terminator before end of frame"}
			}
			if off != len(delta) {
				return nil, &ErrCorrupt{Reason: "trailing bytes after terminator"}
			}
			break
		}
		if pos+diffCount > n {
			return nil, &ErrCorrupt{Reason: "diff count overruns frame"}
		}
		need := diffCount * cmpBytes
		if off+need > len(delta) {
			return nil, &ErrCorrupt{Reason: "truncated diff payload"}
		}
		for i := 0; i < diffCount; i++ {
			pi := pos + i
			pPix := prev[pi*bpp : pi*bpp+bpp]
			nPix := next[pi*bpp : pi*bpp+bpp]
			if ch == Channels4 {
				nPix[0] = pPix[0]
			}
			for c := 0; c < cmpBytes; c++ {
				nPix[start+c] = pPix[start+c] ^ delta[off]
				off++
			}
		}
		pos += diffCount
	}
	return next, nil
}
