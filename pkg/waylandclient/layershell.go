package waylandclient

// Layer mirrors zwlr_layer_shell_v1's layer enum. driftwall always
// runs at LayerBackground or LayerBottom (spec.md §6 `--layer`).
type Layer uint32

const (
	LayerBackground Layer = 0
	LayerBottom     Layer = 1
	LayerTop        Layer = 2
	LayerOverlay    Layer = 3
)

// Anchor bits mirror zwlr_layer_surface_v1's anchor bitmask. A
// wallpaper anchors to all four edges to fill the output.
type Anchor uint32

const (
	AnchorTop    Anchor = 1
	AnchorBottom Anchor = 2
	AnchorLeft   Anchor = 4
	AnchorRight  Anchor = 8
	AnchorFill   Anchor = AnchorTop | AnchorBottom | AnchorLeft | AnchorRight
)

const (
	layerShellGetLayerSurface opcode = 0

	layerSurfaceSetSize                opcode = 0
	layerSurfaceSetAnchor              opcode = 1
	layerSurfaceSetExclusiveZone       opcode = 2
	layerSurfaceSetKeyboardInteractivity opcode = 4
	layerSurfaceAckConfigure           opcode = 6
	layerSurfaceDestroy                opcode = 7

	layerSurfaceEventConfigure opcode = 0
	layerSurfaceEventClosed    opcode = 1
)

// LayerShell binds zwlr_layer_shell_v1, the protocol that lets a
// client surface itself as a desktop-background layer rather than a
// regular toplevel window (spec.md §4.L).
type LayerShell struct {
	c  *Client
	id objectID
}

// BindLayerShell binds the zwlr_layer_shell_v1 global.
func BindLayerShell(c *Client, r *Registry) (*LayerShell, error) {
	g, ok := r.Find(ifaceLayerShell)
	if !ok {
		return nil, errMissingGlobals([]string{ifaceLayerShell})
	}
	id, err := r.bind(g, 4)
	if err != nil {
		return nil, err
	}
	return &LayerShell{c: c, id: id}, nil
}

// GetLayerSurface promotes surf to a layer surface anchored to output,
// in the given layer, tagged with namespace (driftwall uses this for
// the `-n/--namespace` IPC addressing rule, spec.md §4.D).
func (ls *LayerShell) GetLayerSurface(surf *Surface, out *Output, layer Layer, namespace string) (*LayerSurface, error) {
	id := ls.c.allocID()
	e := newEncoder()
	e.putObject(id)
	e.putObject(surf.id)
	e.putObject(out.objectID())
	e.putUint32(uint32(layer))
	e.putString(namespace)
	msg, err := e.build(ls.id, layerShellGetLayerSurface)
	if err != nil {
		return nil, err
	}
	if err := ls.c.send(msg); err != nil {
		return nil, err
	}
	lsurf := &LayerSurface{c: ls.c, id: id, surface: surf}
	ls.c.register(id, lsurf.dispatch)
	return lsurf, nil
}

// LayerSurface is a zwlr_layer_surface_v1: the per-output handle whose
// Configure events drive pkg/surface's state machine.
type LayerSurface struct {
	c       *Client
	id      objectID
	surface *Surface

	onConfigure func(serial uint32, w, h uint32)
	onClosed    func()
}

// SetSize requests the surface's logical size; 0x0 means "let the
// compositor decide" and is what a fullscreen-anchored background
// layer normally sends.
func (ls *LayerSurface) SetSize(w, h uint32) error {
	e := newEncoder()
	e.putUint32(w)
	e.putUint32(h)
	msg, err := e.build(ls.id, layerSurfaceSetSize)
	if err != nil {
		return err
	}
	return ls.c.send(msg)
}

// SetAnchor pins the surface to the given output edges.
func (ls *LayerSurface) SetAnchor(a Anchor) error {
	e := newEncoder()
	e.putUint32(uint32(a))
	msg, err := e.build(ls.id, layerSurfaceSetAnchor)
	if err != nil {
		return err
	}
	return ls.c.send(msg)
}

// SetExclusiveZone reserves no screen space (-1 disables exclusivity
// entirely, which a wallpaper always wants since it must never push
// panels or other surfaces around).
func (ls *LayerSurface) SetExclusiveZone(zone int32) error {
	e := newEncoder()
	e.putInt32(zone)
	msg, err := e.build(ls.id, layerSurfaceSetExclusiveZone)
	if err != nil {
		return err
	}
	return ls.c.send(msg)
}

// SetKeyboardInteractivity declares whether this surface ever wants
// keyboard focus; a wallpaper always sets none (0).
func (ls *LayerSurface) SetKeyboardInteractivity(v uint32) error {
	e := newEncoder()
	e.putUint32(v)
	msg, err := e.build(ls.id, layerSurfaceSetKeyboardInteractivity)
	if err != nil {
		return err
	}
	return ls.c.send(msg)
}

// AckConfigure acknowledges a configure event by serial, required
// before the next Commit takes effect (spec.md §4.L surface state
// machine "Unconfigured -> Configured").
func (ls *LayerSurface) AckConfigure(serial uint32) error {
	e := newEncoder()
	e.putUint32(serial)
	msg, err := e.build(ls.id, layerSurfaceAckConfigure)
	if err != nil {
		return err
	}
	return ls.c.send(msg)
}

// Destroy tears down the layer surface.
func (ls *LayerSurface) Destroy() error {
	e := newEncoder()
	msg, err := e.build(ls.id, layerSurfaceDestroy)
	if err != nil {
		return err
	}
	return ls.c.send(msg)
}

// Surface returns the underlying wl_surface this layer surface wraps.
func (ls *LayerSurface) Surface() *Surface { return ls.surface }

// OnConfigure installs the handler for configure events (new
// width/height, or 0/0 if the compositor left it to SetSize).
func (ls *LayerSurface) OnConfigure(fn func(serial uint32, w, h uint32)) { ls.onConfigure = fn }

// OnClosed installs the handler fired when the compositor destroys
// the output or otherwise revokes this surface (spec.md §4.D "output
// removal").
func (ls *LayerSurface) OnClosed(fn func()) { ls.onClosed = fn }

func (ls *LayerSurface) dispatch(m *wireMessage) error {
	switch m.Op {
	case layerSurfaceEventConfigure:
		d := newDecoder(m.Args, nil)
		serial, err := d.uint32()
		if err != nil {
			return err
		}
		w, err := d.uint32()
		if err != nil {
			return err
		}
		h, err := d.uint32()
		if err != nil {
			return err
		}
		if ls.onConfigure != nil {
			ls.onConfigure(serial, w, h)
		}
		return nil
	case layerSurfaceEventClosed:
		if ls.onClosed != nil {
			ls.onClosed()
		}
		return nil
	default:
		return nil
	}
}
