package waylandclient

const (
	viewporterGetViewport opcode = 0

	viewportSetSource      opcode = 0
	viewportSetDestination opcode = 1
	viewportDestroy        opcode = 2

	fractionalScaleManagerGetFractionalScale opcode = 0

	fractionalScaleEventPreferredScale opcode = 0
)

// Viewporter binds wp_viewporter, used to scale a buffer drawn at one
// pixel size to a different logical surface size under fractional
// scale (spec.md §9 "fractional scale rounds via ceil on both axes").
type Viewporter struct {
	c  *Client
	id objectID
}

// BindViewporter binds wp_viewporter. Returns ok=false, not an error,
// if the compositor doesn't advertise it: fractional scaling is then
// simply unavailable and outputs fall back to integer scale.
func BindViewporter(c *Client, r *Registry) (*Viewporter, bool, error) {
	g, ok := r.Find(ifaceViewporter)
	if !ok {
		return nil, false, nil
	}
	id, err := r.bind(g, 1)
	if err != nil {
		return nil, false, err
	}
	return &Viewporter{c: c, id: id}, true, nil
}

// GetViewport creates a viewport controlling surf's destination size.
func (v *Viewporter) GetViewport(surf *Surface) (*Viewport, error) {
	id := v.c.allocID()
	e := newEncoder()
	e.putObject(id)
	e.putObject(surf.id)
	msg, err := e.build(v.id, viewporterGetViewport)
	if err != nil {
		return nil, err
	}
	if err := v.c.send(msg); err != nil {
		return nil, err
	}
	return &Viewport{c: v.c, id: id}, nil
}

// Viewport is a wp_viewport: it rescales a surface's buffer to a
// chosen logical destination size.
type Viewport struct {
	c  *Client
	id objectID
}

// SetDestination sets the surface's logical size in surface-local
// coordinates, independent of the attached buffer's pixel size.
func (vp *Viewport) SetDestination(w, h int32) error {
	e := newEncoder()
	e.putInt32(w)
	e.putInt32(h)
	msg, err := e.build(vp.id, viewportSetDestination)
	if err != nil {
		return err
	}
	return vp.c.send(msg)
}

// Destroy destroys the viewport; the surface reverts to 1:1 buffer
// scaling.
func (vp *Viewport) Destroy() error {
	e := newEncoder()
	msg, err := e.build(vp.id, viewportDestroy)
	if err != nil {
		return err
	}
	return vp.c.send(msg)
}

// FractionalScaleManager binds wp_fractional_scale_manager_v1, the
// protocol that reports non-integer output scale factors (e.g. 1.5x)
// so a surface can render at the exact physical pixel density instead
// of rounding up to 2x and downscaling (spec.md §4.L, §9).
type FractionalScaleManager struct {
	c  *Client
	id objectID
}

// BindFractionalScaleManager binds the manager global. ok=false means
// the compositor doesn't support fractional scale; callers fall back
// to Output.Scale() (spec.md §9).
func BindFractionalScaleManager(c *Client, r *Registry) (*FractionalScaleManager, bool, error) {
	g, ok := r.Find(ifaceFractionalScale)
	if !ok {
		return nil, false, nil
	}
	id, err := r.bind(g, 1)
	if err != nil {
		return nil, false, err
	}
	return &FractionalScaleManager{c: c, id: id}, true, nil
}

// GetFractionalScale subscribes surf to preferred-scale updates.
func (m *FractionalScaleManager) GetFractionalScale(surf *Surface) (*FractionalScale, error) {
	id := m.c.allocID()
	e := newEncoder()
	e.putObject(id)
	e.putObject(surf.id)
	msg, err := e.build(m.id, fractionalScaleManagerGetFractionalScale)
	if err != nil {
		return nil, err
	}
	if err := m.c.send(msg); err != nil {
		return nil, err
	}
	fs := &FractionalScale{c: m.c, id: id}
	m.c.register(id, fs.dispatch)
	return fs, nil
}

// FractionalScale is a wp_fractional_scale_v1: it reports the
// compositor's preferred scale in 120ths, e.g. 180 means 1.5x.
type FractionalScale struct {
	c  *Client
	id objectID

	onPreferred func(scale120 uint32)
}

// OnPreferredScale installs the handler for preferred_scale events.
func (fs *FractionalScale) OnPreferredScale(fn func(scale120 uint32)) { fs.onPreferred = fn }

func (fs *FractionalScale) dispatch(m *wireMessage) error {
	if m.Op != fractionalScaleEventPreferredScale {
		return nil
	}
	d := newDecoder(m.Args, nil)
	scale, err := d.uint32()
	if err != nil {
		return err
	}
	if fs.onPreferred != nil {
		fs.onPreferred(scale)
	}
	return nil
}

// ScaleFromFixed120 converts a wp_fractional_scale_v1 scale (120ths of
// an integer) to a float64, e.g. 180 -> 1.5.
func ScaleFromFixed120(scale120 uint32) float64 {
	return float64(scale120) / 120.0
}
