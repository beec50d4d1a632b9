package ipc

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Conn wraps one accepted or dialed Unix stream connection, framing
// messages per spec.md §4.G and passing the one memfd an Img request
// carries as SCM_RIGHTS ancillary data rather than copying pixels
// inline (grounded on the same Recvmsg/Sendmsg pattern
// pkg/waylandclient uses for the compositor socket).
type Conn struct {
	uc *net.UnixConn
	f  *os.File
}

// NewConn takes ownership of uc.
func NewConn(uc *net.UnixConn) (*Conn, error) {
	f, err := uc.File()
	if err != nil {
		return nil, fmt.Errorf("ipc: duplicate socket fd: %w", err)
	}
	return &Conn{uc: uc, f: f}, nil
}

// Dial connects to a daemon's socket at path.
func Dial(path string) (*Conn, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ipc: dial %s: %w", path, err)
	}
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("ipc: %s is not a unix socket", path)
	}
	return NewConn(uc)
}

// Close closes the underlying connection. Safe to call once.
func (c *Conn) Close() error {
	c.f.Close()
	return c.uc.Close()
}

// writeFrame sends one framed message, attaching fd via SCM_RIGHTS
// when fd >= 0.
func (c *Conn) writeFrame(kind byte, payload []byte, fd int) error {
	data, err := encodeFrame(kind, payload)
	if err != nil {
		return err
	}
	if fd < 0 {
		_, err = c.uc.Write(data)
		return err
	}
	rights := unix.UnixRights(fd)
	return unix.Sendmsg(int(c.f.Fd()), data, rights, nil, 0)
}

// readFrame blocks until one full message has arrived, returning its
// kind byte, metadata payload, and an attached fd (-1 if none).
func (c *Conn) readFrame() (kind byte, payload []byte, fd int, err error) {
	peek := make([]byte, 4)
	oob := make([]byte, unix.CmsgSpace(4))

	n, _, _, _, err := unix.Recvmsg(int(c.f.Fd()), peek, oob, unix.MSG_PEEK)
	if err != nil {
		return 0, nil, -1, fmt.Errorf("ipc: peek frame header: %w", err)
	}
	if n == 0 {
		return 0, nil, -1, io.EOF
	}
	if n < 4 {
		return 0, nil, -1, fmt.Errorf("ipc: short frame header")
	}
	remaining, err := decodeFrameHeader(peek)
	if err != nil {
		return 0, nil, -1, err
	}

	full := make([]byte, 4+remaining)
	n, oobn, _, _, err := unix.Recvmsg(int(c.f.Fd()), full, oob, 0)
	if err != nil {
		return 0, nil, -1, fmt.Errorf("ipc: read frame: %w", err)
	}
	if n < len(full) {
		return 0, nil, -1, fmt.Errorf("ipc: truncated frame (got %d of %d bytes)", n, len(full))
	}

	fds, err := parseRights(oob[:oobn])
	if err != nil {
		return 0, nil, -1, err
	}
	fd = -1
	if len(fds) > 0 {
		fd = fds[0]
	}
	return full[4], full[5:n], fd, nil
}

func parseRights(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("ipc: parse control message: %w", err)
	}
	var fds []int
	for _, s := range scms {
		if s.Header.Level != unix.SOL_SOCKET || s.Header.Type != unix.SCM_RIGHTS {
			continue
		}
		got, err := unix.ParseUnixRights(&s)
		if err != nil {
			return nil, fmt.Errorf("ipc: parse SCM_RIGHTS: %w", err)
		}
		fds = append(fds, got...)
	}
	return fds, nil
}

// --- client-side request writers ---

func (c *Conn) SendPing() error { return c.writeFrame(byte(ReqPing), nil, -1) }

func (c *Conn) SendQuery(outputs []string) error {
	return c.writeFrame(byte(ReqQuery), OutputsRequest{Outputs: outputs}.encode(), -1)
}

// SendImg sends an img request. fd is the memfd holding the encoded
// image bytes when req.HasFD is set, or -1 when Path names a file
// the daemon should open itself.
func (c *Conn) SendImg(req ImgRequest, fd int) error {
	return c.writeFrame(byte(ReqImg), req.encode(), fd)
}

func (c *Conn) SendClear(req ClearRequest) error {
	return c.writeFrame(byte(ReqClear), req.encode(), -1)
}

func (c *Conn) SendRestore(outputs []string) error {
	return c.writeFrame(byte(ReqRestore), OutputsRequest{Outputs: outputs}.encode(), -1)
}

func (c *Conn) SendClearCache() error { return c.writeFrame(byte(ReqClearCache), nil, -1) }

func (c *Conn) SendKill() error { return c.writeFrame(byte(ReqKill), nil, -1) }

// ReadRequest reads one request frame and decodes its payload
// according to its kind. The returned payload is one of ImgRequest,
// ClearRequest, OutputsRequest, or nil (Ping/ClearCache/Kill carry
// none). fd is the attached memfd, if any (-1 otherwise); callers
// must close it once done.
func (c *Conn) ReadRequest() (kind RequestKind, payload any, fd int, err error) {
	k, buf, fd, err := c.readFrame()
	if err != nil {
		return 0, nil, -1, err
	}
	kind = RequestKind(k)
	switch kind {
	case ReqPing, ReqClearCache, ReqKill:
		return kind, nil, fd, nil
	case ReqQuery, ReqRestore:
		req, err := decodeOutputsRequest(buf)
		return kind, req, fd, err
	case ReqImg:
		req, err := decodeImgRequest(buf)
		return kind, req, fd, err
	case ReqClear:
		req, err := decodeClearRequest(buf)
		return kind, req, fd, err
	default:
		return kind, nil, fd, fmt.Errorf("ipc: unknown request kind %d", k)
	}
}

// --- daemon-side reply writers ---

func (c *Conn) SendOk() error { return c.writeFrame(byte(ReplyOk), nil, -1) }

func (c *Conn) SendErr(message string) error {
	return c.writeFrame(byte(ReplyErr), ErrReply{Message: message}.encode(), -1)
}

func (c *Conn) SendInfo(info InfoReply) error {
	return c.writeFrame(byte(ReplyInfo), info.encode(), -1)
}

func (c *Conn) SendPong() error { return c.writeFrame(byte(ReplyPong), nil, -1) }

// ReadReply reads one reply frame and decodes it according to its
// kind. The returned payload is one of ErrReply, InfoReply, or nil.
func (c *Conn) ReadReply() (kind ReplyKind, payload any, err error) {
	k, buf, _, err := c.readFrame()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, fmt.Errorf("ipc: daemon closed connection without replying: %w", err)
		}
		return 0, nil, err
	}
	kind = ReplyKind(k)
	switch kind {
	case ReplyOk, ReplyPong:
		return kind, nil, nil
	case ReplyErr:
		reply, err := decodeErrReply(buf)
		return kind, reply, err
	case ReplyInfo:
		reply, err := decodeInfoReply(buf)
		return kind, reply, err
	default:
		return kind, nil, fmt.Errorf("ipc: unknown reply kind %d", k)
	}
}
