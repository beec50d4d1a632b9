// Package waylandclient is a minimal, pure-Go Wayland wire client. It
// implements only the requests and events driftwall needs: wl_display,
// wl_registry, wl_compositor, wl_surface, wl_callback, wl_shm(+pool,
// +buffer), wl_output, zwlr_layer_shell_v1(+layer_surface),
// wp_viewporter(+viewport) and wp_fractional_scale_manager_v1(+scale).
// It speaks the protocol directly over the Unix socket rather than
// wrapping a cgo libwayland, so the daemon has no runtime dependency
// beyond a compositor socket.
package waylandclient

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// objectID identifies a server-side Wayland object. 0 is null/invalid,
// 1 is always wl_display.
type objectID uint32

// opcode is a per-interface request or event index.
type opcode uint16

const wireHeaderSize = 8
const maxWireMessage = 64 * 1024

var (
	errMessageTooLarge = errors.New("waylandclient: message exceeds 64KiB wire limit")
	errShortMessage    = errors.New("waylandclient: message shorter than header")
	errTruncated       = errors.New("waylandclient: truncated while decoding argument")
	errUnterminated    = errors.New("waylandclient: string argument not NUL-terminated")
)

// wireMessage is one decoded request or event, the same shape on the
// wire for both directions.
type wireMessage struct {
	Object objectID
	Op     opcode
	Args   []byte
	FDs    []int
}

func padTo4(n int) int { return (4 - (n % 4)) % 4 }

// encoder builds one message's argument bytes.
type encoder struct {
	buf []byte
	fds []int
}

func newEncoder() *encoder { return &encoder{buf: make([]byte, 0, 64)} }

func (e *encoder) putUint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *encoder) putInt32(v int32)   { e.putUint32(uint32(v)) }
func (e *encoder) putObject(id objectID) { e.putUint32(uint32(id)) }
func (e *encoder) putFixed(v int32)   { e.putUint32(uint32(v)) } // 24.8 fixed-point, unused fraction

func (e *encoder) putString(s string) {
	n := uint32(len(s) + 1)
	e.putUint32(n)
	e.buf = append(e.buf, s...)
	e.buf = append(e.buf, 0)
	for i := 0; i < padTo4(int(n)); i++ {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) putNewIDBound(iface string, version uint32, id objectID) {
	e.putString(iface)
	e.putUint32(version)
	e.putObject(id)
}

func (e *encoder) putFD(fd int) { e.fds = append(e.fds, fd) }

func (e *encoder) build(obj objectID, op opcode) (*wireMessage, error) {
	total := wireHeaderSize + len(e.buf)
	if total > maxWireMessage {
		return nil, errMessageTooLarge
	}
	return &wireMessage{Object: obj, Op: op, Args: e.buf, FDs: e.fds}, nil
}

// encode serializes a wireMessage's header+args for the socket. FDs
// travel out-of-band via SCM_RIGHTS and are not part of this buffer.
func encode(m *wireMessage) ([]byte, error) {
	total := wireHeaderSize + len(m.Args)
	if total > maxWireMessage {
		return nil, errMessageTooLarge
	}
	out := make([]byte, total)
	binary.LittleEndian.PutUint32(out[0:4], uint32(m.Object))
	binary.LittleEndian.PutUint32(out[4:8], uint32(total)<<16|uint32(m.Op))
	copy(out[8:], m.Args)
	return out, nil
}

// decoder walks one message's argument bytes.
type decoder struct {
	buf   []byte
	off   int
	fds   []int
	fdOff int
}

func newDecoder(buf []byte, fds []int) *decoder { return &decoder{buf: buf, fds: fds} }

func (d *decoder) uint32() (uint32, error) {
	if d.off+4 > len(d.buf) {
		return 0, errTruncated
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) int32() (int32, error) {
	v, err := d.uint32()
	return int32(v), err
}

func (d *decoder) object() (objectID, error) {
	v, err := d.uint32()
	return objectID(v), err
}

func (d *decoder) string() (string, error) {
	n, err := d.uint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	padded := int(n) + padTo4(int(n))
	if d.off+padded > len(d.buf) {
		return "", errTruncated
	}
	if d.buf[d.off+int(n)-1] != 0 {
		return "", errUnterminated
	}
	s := string(d.buf[d.off : d.off+int(n)-1])
	d.off += padded
	return s, nil
}

func (d *decoder) fd() (int, error) {
	if d.fdOff >= len(d.fds) {
		return -1, fmt.Errorf("waylandclient: expected a file descriptor, none pending")
	}
	fd := d.fds[d.fdOff]
	d.fdOff++
	return fd, nil
}

// decodeHeader reads object/opcode/size from the front of buf.
func decodeHeader(buf []byte) (objectID, opcode, int, error) {
	if len(buf) < wireHeaderSize {
		return 0, 0, 0, errShortMessage
	}
	obj := objectID(binary.LittleEndian.Uint32(buf[0:4]))
	sizeOp := binary.LittleEndian.Uint32(buf[4:8])
	size := int(sizeOp >> 16)
	op := opcode(sizeOp & 0xFFFF)
	if size < wireHeaderSize || size > maxWireMessage {
		return 0, 0, 0, errShortMessage
	}
	return obj, op, size, nil
}
