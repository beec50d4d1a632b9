package codec

// Counts in the wire format are encoded base-255: emit 0xFF while the
// remaining count is >= 255, then the residual byte. This keeps
// compress(x, x) to O(log|x|) bytes (spec.md §4.A, §8).

func appendCount(buf []byte, n int) []byte {
	for n >= 255 {
		buf = append(buf, 0xFF)
		n -= 255
	}
	return append(buf, byte(n))
}

// readCount decodes one base-255 count starting at offset off. It
// returns the decoded value and the offset just past it, or ok=false
// if the stream ends before a non-0xFF byte is found.
func readCount(data []byte, off int) (n, next int, ok bool) {
	for {
		if off >= len(data) {
			return 0, off, false
		}
		b := data[off]
		off++
		n += int(b)
		if b != 0xFF {
			return n, off, true
		}
	}
}
