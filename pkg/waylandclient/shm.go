package waylandclient

const (
	shmCreatePool opcode = 0

	shmPoolCreateBuffer opcode = 0
	shmPoolDestroy      opcode = 1
	shmPoolResize       opcode = 2

	bufferDestroy opcode = 0

	bufferEventRelease opcode = 0
)

// ShmFormat mirrors the wl_shm.format enum; driftwall only ever needs
// the four 32/24-bit layouts pkg/pixel.Format maps onto.
type ShmFormat uint32

const (
	ShmFormatARGB8888 ShmFormat = 0
	ShmFormatXRGB8888 ShmFormat = 1
	ShmFormatXBGR8888 ShmFormat = 0x34324258
	ShmFormatBGR888   ShmFormat = 0x34324742
	ShmFormatRGB888   ShmFormat = 0x34324752
)

// Shm binds wl_shm, the pool factory backing every buffer driftwall
// attaches to a surface (spec.md §4.B, §4.L).
type Shm struct {
	c  *Client
	id objectID
}

// BindShm binds the wl_shm global.
func BindShm(c *Client, r *Registry) (*Shm, error) {
	g, ok := r.Find(ifaceShm)
	if !ok {
		return nil, errMissingGlobals([]string{ifaceShm})
	}
	id, err := r.bind(g, 1)
	if err != nil {
		return nil, err
	}
	return &Shm{c: c, id: id}, nil
}

// CreatePool wraps a memfd (from pkg/bufferpool) in a wl_shm_pool. The
// fd is passed via SCM_RIGHTS and is not closed by this call; the
// caller (bufferpool.Pool) owns its lifetime.
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	id := s.c.allocID()
	e := newEncoder()
	e.putObject(id)
	e.putFD(fd)
	e.putInt32(size)
	msg, err := e.build(s.id, shmCreatePool)
	if err != nil {
		return nil, err
	}
	if err := s.c.send(msg); err != nil {
		return nil, err
	}
	return &ShmPool{c: s.c, id: id, size: size}, nil
}

// ShmPool is a wl_shm_pool: a window into one memfd slab from which
// wl_buffer objects are carved at fixed offsets.
type ShmPool struct {
	c    *Client
	id   objectID
	size int32
}

// CreateBuffer creates a buffer view at offset into the pool.
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format ShmFormat) (*Buffer, error) {
	id := p.c.allocID()
	e := newEncoder()
	e.putObject(id)
	e.putInt32(offset)
	e.putInt32(width)
	e.putInt32(height)
	e.putInt32(stride)
	e.putUint32(uint32(format))
	msg, err := e.build(p.id, shmPoolCreateBuffer)
	if err != nil {
		return nil, err
	}
	if err := p.c.send(msg); err != nil {
		return nil, err
	}
	b := &Buffer{c: p.c, id: id}
	p.c.register(id, b.dispatch)
	return b, nil
}

// Destroy destroys the pool object; buffers already created from it
// remain valid.
func (p *ShmPool) Destroy() error {
	e := newEncoder()
	msg, err := e.build(p.id, shmPoolDestroy)
	if err != nil {
		return err
	}
	return p.c.send(msg)
}

// Buffer is a wl_buffer: one attachable view into a shm pool.
type Buffer struct {
	c         *Client
	id        objectID
	onRelease func()
}

// OnRelease installs the handler fired when the compositor is done
// reading this buffer, the signal bufferpool.Buffer.Release answers
// to (spec.md §4.B).
func (b *Buffer) OnRelease(fn func()) { b.onRelease = fn }

// Destroy destroys the buffer proxy.
func (b *Buffer) Destroy() error {
	e := newEncoder()
	msg, err := e.build(b.id, bufferDestroy)
	if err != nil {
		return err
	}
	return b.c.send(msg)
}

func (b *Buffer) dispatch(m *wireMessage) error {
	if m.Op == bufferEventRelease && b.onRelease != nil {
		b.onRelease()
	}
	return nil
}
