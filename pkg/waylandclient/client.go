package waylandclient

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ErrCompositorLost is returned once the connection to the compositor
// has closed or faulted; callers surface it as apperror.CompositorLost
// (spec.md §7).
var ErrCompositorLost = errors.New("waylandclient: connection to compositor lost")

// Client owns the Unix socket connection to the compositor and the
// object-ID/dispatch bookkeeping every bound proxy shares. It is not
// safe for concurrent use from multiple goroutines except where noted
// (Fd is safe to read concurrently for poll integration).
type Client struct {
	conn     *net.UnixConn
	connFile *os.File

	nextID atomic.Uint32

	mu        sync.Mutex
	handlers  map[objectID]func(*wireMessage) error
	callbacks map[objectID]chan uint32
	closed    bool
	faultErr  error

	registry *Registry
}

// Dial connects to the compositor named by WAYLAND_DISPLAY (relative
// to XDG_RUNTIME_DIR, or absolute), mirroring libwayland's own socket
// resolution rules.
func Dial() (*Client, error) {
	path, err := socketPath()
	if err != nil {
		return nil, err
	}
	return DialSocket(path)
}

func socketPath() (string, error) {
	runtime := os.Getenv("XDG_RUNTIME_DIR")
	if runtime == "" {
		return "", fmt.Errorf("waylandclient: XDG_RUNTIME_DIR not set")
	}
	name := os.Getenv("WAYLAND_DISPLAY")
	if name == "" {
		name = "wayland-0"
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	return filepath.Join(runtime, name), nil
}

// DialSocket connects to an explicit socket path, bypassing env
// resolution (used by tests against a fake compositor).
func DialSocket(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("waylandclient: dial %s: %w", path, err)
	}
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("waylandclient: %s is not a unix socket", path)
	}
	f, err := uc.File()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("waylandclient: duplicate socket fd: %w", err)
	}
	// File() hands back a blocking-mode duplicate; flip it back to
	// non-blocking so DispatchPending can poll without stalling the
	// event loop (spec.md §5 "never stalls the event loop").
	if err := unix.SetNonblock(int(f.Fd()), true); err != nil {
		f.Close()
		conn.Close()
		return nil, fmt.Errorf("waylandclient: set non-blocking: %w", err)
	}

	c := &Client{
		conn:      uc,
		connFile:  f,
		handlers:  make(map[objectID]func(*wireMessage) error),
		callbacks: make(map[objectID]chan uint32),
	}
	c.nextID.Store(2) // 1 is wl_display
	c.handlers[1] = c.dispatchDisplay
	return c, nil
}

// allocID hands out the next unused client-side object ID.
func (c *Client) allocID() objectID { return objectID(c.nextID.Add(1) - 1) }

// register associates a dispatch handler with an object ID, called
// whenever an event for that object arrives.
func (c *Client) register(id objectID, h func(*wireMessage) error) {
	c.mu.Lock()
	c.handlers[id] = h
	c.mu.Unlock()
}

func (c *Client) unregister(id objectID) {
	c.mu.Lock()
	delete(c.handlers, id)
	c.mu.Unlock()
}

// send writes one request to the compositor, passing FDs via
// SCM_RIGHTS when present.
func (c *Client) send(m *wireMessage) error {
	c.mu.Lock()
	closed, faultErr := c.closed, c.faultErr
	c.mu.Unlock()
	if closed {
		return ErrCompositorLost
	}
	if faultErr != nil {
		return faultErr
	}

	data, err := encode(m)
	if err != nil {
		return err
	}
	if len(m.FDs) == 0 {
		_, err = c.conn.Write(data)
		return err
	}
	rights := unix.UnixRights(m.FDs...)
	return unix.Sendmsg(int(c.connFile.Fd()), data, rights, nil, 0)
}

// Fd returns the socket file descriptor, for an event loop's poll set
// (spec.md §5 "daemon event loop").
func (c *Client) Fd() int { return int(c.connFile.Fd()) }

// DispatchPending reads and dispatches every message already queued on
// the socket, without blocking once the queue drains. Call this after
// poll reports Fd() readable.
func (c *Client) DispatchPending() error {
	for {
		msg, err := c.recvOne()
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
				return nil
			}
			return err
		}
		if msg == nil {
			return nil
		}
		if err := c.route(msg); err != nil {
			return err
		}
	}
}

// Roundtrip blocks until the compositor has processed every request
// sent so far, via the standard wl_display.sync dance.
func (c *Client) Roundtrip() error {
	done := make(chan uint32, 1)
	cbID := c.allocID()
	c.mu.Lock()
	c.callbacks[cbID] = done
	c.mu.Unlock()

	e := newEncoder()
	e.putObject(cbID)
	msg, err := e.build(1, displaySync)
	if err != nil {
		return err
	}
	if err := c.send(msg); err != nil {
		return err
	}

	for {
		select {
		case <-done:
			return nil
		default:
		}
		m, err := c.recvBlocking()
		if err != nil {
			return err
		}
		if err := c.route(m); err != nil {
			return err
		}
	}
}

// recvOne returns the next fully-buffered message, or (nil, nil) if
// none is queued right now.
func (c *Client) recvOne() (*wireMessage, error) {
	msg, err := c.recv()
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
		return nil, nil
	}
	return msg, err
}

// recvBlocking waits (via poll) for the socket to become readable and
// returns the next message. Used only inside Roundtrip, which is the
// one place this client does a synchronous wait.
func (c *Client) recvBlocking() (*wireMessage, error) {
	for {
		msg, err := c.recv()
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			fds := []unix.PollFd{{Fd: int32(c.connFile.Fd()), Events: unix.POLLIN}}
			if _, perr := unix.Poll(fds, -1); perr != nil && !errors.Is(perr, unix.EINTR) {
				return nil, c.fault(perr)
			}
			continue
		}
		return msg, err
	}
}

func (c *Client) recv() (*wireMessage, error) {
	hdr := make([]byte, wireHeaderSize)
	oob := make([]byte, 256)
	n, _, _, _, err := unix.Recvmsg(int(c.connFile.Fd()), hdr, oob, unix.MSG_PEEK)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return nil, err
		}
		return nil, c.fault(err)
	}
	if n == 0 {
		return nil, c.fault(ErrCompositorLost)
	}
	_, _, size, err := decodeHeader(hdr)
	if err != nil {
		return nil, c.fault(err)
	}

	full := make([]byte, size)
	n, oobn, _, _, err := unix.Recvmsg(int(c.connFile.Fd()), full, oob, 0)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return nil, err
		}
		return nil, c.fault(err)
	}
	fds, err := parseRights(oob[:oobn])
	if err != nil {
		return nil, err
	}

	obj, opc, _, err := decodeHeader(full[:n])
	if err != nil {
		return nil, c.fault(err)
	}
	return &wireMessage{Object: obj, Op: opc, Args: full[wireHeaderSize:n], FDs: fds}, nil
}

func (c *Client) fault(err error) error {
	c.mu.Lock()
	if c.faultErr == nil {
		c.faultErr = fmt.Errorf("%w: %v", ErrCompositorLost, err)
	}
	fe := c.faultErr
	c.mu.Unlock()
	return fe
}

func (c *Client) route(m *wireMessage) error {
	if m.Object == 1 && m.Op == callbackDone {
		// Never reached: wl_display itself has no "done" opcode; kept
		// only for symmetry with per-callback routing below.
	}
	c.mu.Lock()
	if ch, ok := c.callbacks[m.Object]; ok && m.Op == callbackDone {
		delete(c.callbacks, m.Object)
		c.mu.Unlock()
		d := newDecoder(m.Args, nil)
		data, _ := d.uint32()
		ch <- data
		close(ch)
		return nil
	}
	h, ok := c.handlers[m.Object]
	c.mu.Unlock()
	if !ok {
		return nil // object created by us but not yet registered, or already destroyed
	}
	return h(m)
}

func parseRights(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("waylandclient: parse control message: %w", err)
	}
	var fds []int
	for _, s := range scms {
		if s.Header.Level != unix.SOL_SOCKET || s.Header.Type != unix.SCM_RIGHTS {
			continue
		}
		got, err := unix.ParseUnixRights(&s)
		if err != nil {
			return nil, fmt.Errorf("waylandclient: parse SCM_RIGHTS: %w", err)
		}
		fds = append(fds, got...)
	}
	return fds, nil
}

// GetRegistry binds the global registry, the entry point for
// discovering every other interface (spec.md §4.L).
func (c *Client) GetRegistry() (*Registry, error) {
	if c.registry != nil {
		return c.registry, nil
	}
	id := c.allocID()
	e := newEncoder()
	e.putObject(id)
	msg, err := e.build(1, displayGetRegistry)
	if err != nil {
		return nil, err
	}
	if err := c.send(msg); err != nil {
		return nil, err
	}
	r := newRegistry(c, id)
	c.registry = r
	c.register(id, r.dispatch)
	return r, nil
}

func (c *Client) dispatchDisplay(m *wireMessage) error {
	switch m.Op {
	case displayEventError:
		d := newDecoder(m.Args, nil)
		obj, _ := d.object()
		code, _ := d.uint32()
		msg, _ := d.string()
		return c.fault(fmt.Errorf("compositor protocol error on object %d code %d: %s", obj, code, msg))
	case displayEventDeleteID:
		d := newDecoder(m.Args, nil)
		id, _ := d.object()
		c.unregister(id)
		return nil
	default:
		return nil
	}
}

// Close shuts down the connection. Safe to call once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, ch := range c.callbacks {
		close(ch)
	}
	c.callbacks = nil
	c.mu.Unlock()

	c.connFile.Close()
	return c.conn.Close()
}

const (
	displaySync        opcode = 0
	displayGetRegistry opcode = 1

	displayEventError    opcode = 0
	displayEventDeleteID opcode = 1

	callbackDone opcode = 0
)
