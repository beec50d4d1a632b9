// Package codec implements the run-length XOR-delta pixel codec
// described in spec.md §4.A: a byte sequence encoding the delta from
// one equal-sized pixel frame to another, with a portable scalar
// reference and runtime-selected widened-chunk variants that must all
// produce byte-identical output.
package codec

import "fmt"

// Channels is the number of bytes compared/XORed per pixel. Padding
// channels (the first byte of each XRGB/XBGR pixel) are ignored during
// comparison and omitted from diff payloads, but preserved verbatim
// from prev on decompress.
type Channels int

const (
	Channels3 Channels = 3
	Channels4 Channels = 4 // one padding byte, ignored in comparisons/diffs
)

// bpp is the full per-pixel byte width including any padding channel.
func (c Channels) bpp() int {
	return int(c)
}

// cmpChannels is the number of bytes actually compared/XORed per
// pixel (padding excluded).
func (c Channels) cmpChannels() int {
	if c == Channels4 {
		return 3
	}
	return 3
}

// ErrCorrupt is returned by Decompress when a stream is truncated or
// its skip/diff counts overrun the destination length. Corrupt
// streams are a decode failure, never silently clamped (spec.md §4.A
// "Errors").
type ErrCorrupt struct {
	Reason string
}

func (e *ErrCorrupt) Error() string {
	return fmt.Sprintf("codec: corrupt delta stream: %s", e.Reason)
}

func pixelCount(byteLen int, ch Channels) (int, error) {
	bpp := ch.bpp()
	if bpp == 0 || byteLen%bpp != 0 {
		return 0, fmt.Errorf("codec: buffer length %d is not a multiple of %d bytes/pixel", byteLen, bpp)
	}
	return byteLen / bpp, nil
}
