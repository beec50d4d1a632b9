package waylandclient

const (
	compositorCreateSurface opcode = 0
)

// Compositor binds wl_compositor, the factory for wl_surface objects.
type Compositor struct {
	c  *Client
	id objectID
}

// BindCompositor binds the compositor global at the highest version
// this client speaks.
func BindCompositor(c *Client, r *Registry) (*Compositor, error) {
	g, ok := r.Find(ifaceCompositor)
	if !ok {
		return nil, errMissingGlobals([]string{ifaceCompositor})
	}
	id, err := r.bind(g, 4)
	if err != nil {
		return nil, err
	}
	return &Compositor{c: c, id: id}, nil
}

// CreateSurface requests a new wl_surface, the canvas a layer surface
// or subsurface is built on top of.
func (co *Compositor) CreateSurface() (*Surface, error) {
	id := co.c.allocID()
	e := newEncoder()
	e.putObject(id)
	msg, err := e.build(co.id, compositorCreateSurface)
	if err != nil {
		return nil, err
	}
	if err := co.c.send(msg); err != nil {
		return nil, err
	}
	s := &Surface{c: co.c, id: id}
	co.c.register(id, s.dispatch)
	return s, nil
}

const (
	surfaceAttach       opcode = 1
	surfaceDamage       opcode = 2
	surfaceFrame        opcode = 3
	surfaceCommit       opcode = 6
	surfaceSetBufferScale opcode = 8
	surfaceDamageBuffer opcode = 9

	surfaceEventEnter                   opcode = 0
	surfaceEventLeave                   opcode = 1
	surfaceEventPreferredBufferScale    opcode = 2
)

// Surface is a wl_surface: the target of Attach/Damage/Commit that a
// layer surface, subsurface, or cursor is ultimately built from.
type Surface struct {
	c  *Client
	id objectID

	onPreferredScale func(int32)
}

// Attach binds a buffer to be presented on the next Commit.
func (s *Surface) Attach(buf *Buffer, x, y int32) error {
	e := newEncoder()
	e.putObject(buf.id)
	e.putInt32(x)
	e.putInt32(y)
	msg, err := e.build(s.id, surfaceAttach)
	if err != nil {
		return err
	}
	return s.c.send(msg)
}

// DamageBuffer marks the whole buffer dirty in buffer-local
// coordinates (the modern replacement for the surface-local Damage
// request, correct under fractional scaling).
func (s *Surface) DamageBuffer(x, y, w, h int32) error {
	e := newEncoder()
	e.putInt32(x)
	e.putInt32(y)
	e.putInt32(w)
	e.putInt32(h)
	msg, err := e.build(s.id, surfaceDamageBuffer)
	if err != nil {
		return err
	}
	return s.c.send(msg)
}

// SetBufferScale declares the integer scale the attached buffer was
// rendered at, used when wp_fractional_scale_manager_v1 is absent
// (spec.md §4.L "falls back to integer wl_output scale").
func (s *Surface) SetBufferScale(scale int32) error {
	e := newEncoder()
	e.putInt32(scale)
	msg, err := e.build(s.id, surfaceSetBufferScale)
	if err != nil {
		return err
	}
	return s.c.send(msg)
}

// Frame requests a one-shot callback fired once the compositor is
// ready for the next frame, the pacing signal the draw loop waits on
// (spec.md §4.L "gated on the frame callback").
func (s *Surface) Frame() (*FrameCallback, error) {
	id := s.c.allocID()
	e := newEncoder()
	e.putObject(id)
	msg, err := e.build(s.id, surfaceFrame)
	if err != nil {
		return nil, err
	}
	if err := s.c.send(msg); err != nil {
		return nil, err
	}
	fc := &FrameCallback{c: s.c, id: id}
	s.c.register(id, fc.dispatch)
	return fc, nil
}

// Commit applies every pending Attach/Damage/SetBufferScale request.
func (s *Surface) Commit() error {
	e := newEncoder()
	msg, err := e.build(s.id, surfaceCommit)
	if err != nil {
		return err
	}
	return s.c.send(msg)
}

// OnPreferredBufferScale installs a handler for the compositor's
// preferred integer scale hint (wl_surface version >= 6). Unused
// outputs leave this nil; wp_fractional_scale_v1 is the primary path.
func (s *Surface) OnPreferredBufferScale(fn func(int32)) { s.onPreferredScale = fn }

func (s *Surface) dispatch(m *wireMessage) error {
	switch m.Op {
	case surfaceEventPreferredBufferScale:
		d := newDecoder(m.Args, nil)
		scale, err := d.int32()
		if err != nil {
			return err
		}
		if s.onPreferredScale != nil {
			s.onPreferredScale(scale)
		}
		return nil
	default:
		return nil // enter/leave: output tracking handled at the daemon layer
	}
}

// FrameCallback is a one-shot wl_callback created by Surface.Frame.
type FrameCallback struct {
	c    *Client
	id   objectID
	done func(uint32)
}

// OnDone installs the handler invoked when the compositor signals it
// is ready for the next frame. The callback object is consumed after
// firing once, matching the Wayland protocol.
func (fc *FrameCallback) OnDone(fn func(uint32)) { fc.done = fn }

func (fc *FrameCallback) dispatch(m *wireMessage) error {
	if m.Op != callbackDone {
		return nil
	}
	d := newDecoder(m.Args, nil)
	t, _ := d.uint32()
	fc.c.unregister(fc.id)
	if fc.done != nil {
		fc.done(t)
	}
	return nil
}
