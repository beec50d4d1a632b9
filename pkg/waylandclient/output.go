package waylandclient

import "sync"

const (
	outputEventGeometry opcode = 0
	outputEventMode     opcode = 1
	outputEventDone     opcode = 2
	outputEventScale    opcode = 3
	outputEventName     opcode = 4
)

// Output mirrors one wl_output global: the physical monitor a layer
// surface targets (spec.md §4.D "per-output routing").
type Output struct {
	c  *Client
	id objectID

	mu    sync.Mutex
	name  string
	scale int32

	onDone func()
}

// BindOutput binds one wl_output global by its registry entry. The
// daemon calls this once per advertised wl_output (spec.md §4.D).
func BindOutput(c *Client, r *Registry, g Global) (*Output, error) {
	id, err := r.bind(g, 4)
	if err != nil {
		return nil, err
	}
	o := &Output{c: c, id: id, scale: 1}
	c.register(id, o.dispatch)
	return o, nil
}

// Name returns the output's compositor-assigned name (e.g. "DP-1"),
// matching the name `swww`/driftwall's `-o` flag selects by.
func (o *Output) Name() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.name
}

// Scale returns the output's last-advertised integer scale. Used as a
// fallback when wp_fractional_scale_manager_v1 is unavailable
// (spec.md §4.L, §9).
func (o *Output) Scale() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.scale
}

// OnDone installs a callback fired once the initial burst of output
// property events (geometry/mode/scale/name) has been delivered.
func (o *Output) OnDone(fn func()) { o.onDone = fn }

// ID exposes the bound object ID for zwlr_layer_surface_v1.GetLayerSurface,
// which targets an output by wl_output proxy.
func (o *Output) objectID() objectID { return o.id }

func (o *Output) dispatch(m *wireMessage) error {
	switch m.Op {
	case outputEventScale:
		d := newDecoder(m.Args, nil)
		scale, err := d.int32()
		if err != nil {
			return err
		}
		o.mu.Lock()
		o.scale = scale
		o.mu.Unlock()
		return nil
	case outputEventName:
		d := newDecoder(m.Args, nil)
		name, err := d.string()
		if err != nil {
			return err
		}
		o.mu.Lock()
		o.name = name
		o.mu.Unlock()
		return nil
	case outputEventDone:
		if o.onDone != nil {
			o.onDone()
		}
		return nil
	default:
		return nil // geometry/mode: position/physical size not needed by driftwall
	}
}
