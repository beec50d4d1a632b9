// Package ipc implements the client/daemon request/response protocol
// of spec.md §4.G: a length-prefixed frame carrying a kind byte and a
// field-tagged metadata payload, with large pixel payloads handed
// across as a memfd passed via SCM_RIGHTS instead of being copied
// inline.
package ipc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// maxFrameLength bounds the metadata portion of one message; actual
// pixel data never goes through it; it travels by fd.
const maxFrameLength = 8 << 20

const frameHeaderSize = 5 // u32 length LE + u8 kind

var errFrameTooLarge = fmt.Errorf("ipc: frame exceeds %d bytes", maxFrameLength)

// encodeFrame lays out [u32 length LE][u8 kind][payload]; length
// covers the kind byte plus payload, matching spec.md §4.G's framing.
func encodeFrame(kind byte, payload []byte) ([]byte, error) {
	if len(payload) > maxFrameLength {
		return nil, errFrameTooLarge
	}
	buf := make([]byte, frameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)+1))
	buf[4] = kind
	copy(buf[frameHeaderSize:], payload)
	return buf, nil
}

// decodeFrameHeader reads the length prefix, returning the number of
// remaining bytes (kind byte + payload) still to be read.
func decodeFrameHeader(buf []byte) (remaining int, err error) {
	if len(buf) < 4 {
		return 0, fmt.Errorf("ipc: short frame header")
	}
	n := binary.LittleEndian.Uint32(buf)
	if n == 0 || int(n) > maxFrameLength+1 {
		return 0, errFrameTooLarge
	}
	return int(n), nil
}

// fieldWriter builds a field-tagged, length-prefixed record: each
// field is [u8 tag][u32 length LE][bytes], so future fields can be
// added without breaking older readers (spec.md §4.G "field-tagged,
// length-prefixed variable-length records").
type fieldWriter struct {
	buf []byte
}

func (w *fieldWriter) putBytes(tag byte, v []byte) {
	w.buf = append(w.buf, tag)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(v)))
	w.buf = append(w.buf, lenBuf[:]...)
	w.buf = append(w.buf, v...)
}

func (w *fieldWriter) putString(tag byte, s string) { w.putBytes(tag, []byte(s)) }

func (w *fieldWriter) putUint32(tag byte, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.putBytes(tag, b[:])
}

func (w *fieldWriter) putFloat64(tag byte, v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.putBytes(tag, b[:])
}

func (w *fieldWriter) putBool(tag byte, v bool) {
	if v {
		w.putBytes(tag, []byte{1})
	} else {
		w.putBytes(tag, []byte{0})
	}
}

// putStrings encodes a repeated string field as one field per
// element, all sharing tag, with no separate count field; readers
// collect every occurrence of a tag into a slice (spec.md §4.G
// "outputs" is exactly such a list).
func (w *fieldWriter) putStrings(tag byte, vs []string) {
	for _, v := range vs {
		w.putString(tag, v)
	}
}

func (w *fieldWriter) bytes() []byte { return w.buf }

// fieldReader parses a fieldWriter-encoded record into tag -> all
// occurrences, preserving encounter order within each tag.
type fieldReader struct {
	fields map[byte][][]byte
}

func parseFields(buf []byte) (*fieldReader, error) {
	fr := &fieldReader{fields: make(map[byte][][]byte)}
	for len(buf) > 0 {
		if len(buf) < 5 {
			return nil, fmt.Errorf("ipc: truncated field header")
		}
		tag := buf[0]
		n := binary.LittleEndian.Uint32(buf[1:5])
		buf = buf[5:]
		if uint32(len(buf)) < n {
			return nil, fmt.Errorf("ipc: truncated field value")
		}
		fr.fields[tag] = append(fr.fields[tag], buf[:n])
		buf = buf[n:]
	}
	return fr, nil
}

func (r *fieldReader) string(tag byte) string {
	if vs := r.fields[tag]; len(vs) > 0 {
		return string(vs[0])
	}
	return ""
}

func (r *fieldReader) strings(tag byte) []string {
	vs := r.fields[tag]
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

func (r *fieldReader) uint32(tag byte) uint32 {
	vs := r.fields[tag]
	if len(vs) == 0 || len(vs[0]) < 4 {
		return 0
	}
	return binary.LittleEndian.Uint32(vs[0])
}

func (r *fieldReader) float64(tag byte) float64 {
	vs := r.fields[tag]
	if len(vs) == 0 || len(vs[0]) < 8 {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(vs[0]))
}

func (r *fieldReader) bool(tag byte) bool {
	vs := r.fields[tag]
	return len(vs) > 0 && len(vs[0]) > 0 && vs[0][0] != 0
}

func (r *fieldReader) bytesField(tag byte) []byte {
	if vs := r.fields[tag]; len(vs) > 0 {
		return vs[0]
	}
	return nil
}
