// Package bufferpool manages the memfd-backed shared-memory slabs a
// surface hands to the compositor via wl_shm (spec.md §4.B "Buffer
// pool"). Each slab is sized for one output's current geometry; the
// pool keeps a small number of them alive so the compositor can still
// be reading a previous buffer while the next frame is drawn into a
// free one.
package bufferpool

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ErrBusy is wrapped into Acquire's error once every slab is in
// flight and the pool is at cap, so callers can classify it as
// spec.md §7's internal, never-surfaced `Busy` kind via errors.Is.
var ErrBusy = errors.New("bufferpool: all buffers busy")

// maxBuffers caps how many slabs a pool will hold for one geometry
// before Acquire starts returning ErrBusy; double buffering needs 2, triple-buffering
// compositors occasionally hold a 3rd, so 4 is headroom without
// letting a stuck compositor leak the whole wl_shm pool unbounded.
const maxBuffers = 4

// Buffer is one memfd-backed mmap'd slab plus the bookkeeping a
// surface needs to hand it to wl_shm and know when it's safe to reuse.
type Buffer struct {
	Fd   int
	Data []byte
	Size int

	pool *Pool
	busy bool
}

// Release marks the buffer free for reuse. Safe to call once the
// compositor has released the corresponding wl_buffer (spec.md §4.B
// "a buffer is returned to the free list only after the compositor's
// release event").
func (b *Buffer) Release() {
	b.pool.mu.Lock()
	defer b.pool.mu.Unlock()
	b.busy = false
}

// Pool owns every slab allocated for one output's current geometry.
// A geometry change (resize, scale change) drains the pool and starts
// a fresh one rather than trying to grow slabs in place, matching
// spec.md §4.B "a geometry change invalidates the whole pool".
type Pool struct {
	mu      sync.Mutex
	size    int
	buffers []*Buffer
}

// New creates an empty pool for slabs of byteSize bytes each.
func New(byteSize int) *Pool {
	return &Pool{size: byteSize}
}

// Acquire returns a free buffer, creating a new memfd-backed slab if
// none is free and the pool hasn't hit maxBuffers. It returns an error
// rather than blocking: callers treat "no buffer available" as "skip
// this frame, try again next callback" (spec.md §5 "never stalls the
// event loop").
func (p *Pool) Acquire() (*Buffer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, b := range p.buffers {
		if !b.busy {
			b.busy = true
			return b, nil
		}
	}

	if len(p.buffers) >= maxBuffers {
		return nil, fmt.Errorf("%w: all %d slabs busy, compositor not releasing", ErrBusy, maxBuffers)
	}

	b, err := p.allocate()
	if err != nil {
		return nil, err
	}
	b.busy = true
	p.buffers = append(p.buffers, b)
	return b, nil
}

func (p *Pool) allocate() (*Buffer, error) {
	fd, err := unix.MemfdCreate("driftwall-shm", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("bufferpool: memfd_create: %w", err)
	}
	if err := unix.Ftruncate(fd, int64(p.size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bufferpool: ftruncate: %w", err)
	}
	data, err := unix.Mmap(fd, 0, p.size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bufferpool: mmap: %w", err)
	}
	return &Buffer{Fd: fd, Data: data, Size: p.size, pool: p}, nil
}

// Drain releases every slab's mmap and fd. Called when geometry
// changes or the surface tears down (spec.md §4.B).
func (p *Pool) Drain() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, b := range p.buffers {
		if b.Data != nil {
			unix.Munmap(b.Data)
		}
		unix.Close(b.Fd)
	}
	p.buffers = nil
}

// Size reports the slab size this pool was built for, so a surface
// can decide whether a new geometry requires a fresh Pool.
func (p *Pool) Size() int { return p.size }

// InUse reports how many of the pool's buffers are currently busy,
// for diagnostics and the `query` IPC reply (spec.md §4.B, §4.D).
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.buffers {
		if b.busy {
			n++
		}
	}
	return n
}
