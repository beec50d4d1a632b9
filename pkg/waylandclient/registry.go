package waylandclient

import (
	"fmt"
	"sync"
)

// Well-known interface names this client cares about.
const (
	ifaceCompositor       = "wl_compositor"
	ifaceShm              = "wl_shm"
	ifaceOutput           = "wl_output"
	ifaceLayerShell       = "zwlr_layer_shell_v1"
	ifaceViewporter       = "wp_viewporter"
	ifaceFractionalScale  = "wp_fractional_scale_manager_v1"
)

const (
	registryBind opcode = 0

	registryEventGlobal       opcode = 0
	registryEventGlobalRemove opcode = 1
)

// Global is one compositor-advertised interface the client can bind.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Registry tracks the compositor's global objects and lets callers
// bind the ones driftwall needs (spec.md §4.L).
type Registry struct {
	c  *Client
	id objectID

	mu      sync.Mutex
	globals map[uint32]Global

	onGlobal func(Global)
}

func newRegistry(c *Client, id objectID) *Registry {
	return &Registry{c: c, id: id, globals: make(map[uint32]Global)}
}

// OnGlobal installs a callback invoked for every global already known
// and every one announced afterward. Intended to be set immediately
// after GetRegistry, before the first Roundtrip.
func (r *Registry) OnGlobal(fn func(Global)) {
	r.mu.Lock()
	r.onGlobal = fn
	existing := make([]Global, 0, len(r.globals))
	for _, g := range r.globals {
		existing = append(existing, g)
	}
	r.mu.Unlock()
	for _, g := range existing {
		fn(g)
	}
}

// Find returns the global advertising iface, or ok=false.
func (r *Registry) Find(iface string) (Global, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, g := range r.globals {
		if g.Interface == iface {
			return g, true
		}
	}
	return Global{}, false
}

// bind requests a new client-side proxy for global g at version,
// returning the freshly allocated object ID.
func (r *Registry) bind(g Global, version uint32) (objectID, error) {
	id := r.c.allocID()
	e := newEncoder()
	e.putUint32(g.Name)
	e.putNewIDBound(g.Interface, version, id)
	msg, err := e.build(r.id, registryBind)
	if err != nil {
		return 0, err
	}
	if err := r.c.send(msg); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Registry) dispatch(m *wireMessage) error {
	switch m.Op {
	case registryEventGlobal:
		d := newDecoder(m.Args, nil)
		name, err := d.uint32()
		if err != nil {
			return err
		}
		iface, err := d.string()
		if err != nil {
			return err
		}
		version, err := d.uint32()
		if err != nil {
			return err
		}
		g := Global{Name: name, Interface: iface, Version: version}
		r.mu.Lock()
		r.globals[name] = g
		handler := r.onGlobal
		r.mu.Unlock()
		if handler != nil {
			handler(g)
		}
		return nil
	case registryEventGlobalRemove:
		d := newDecoder(m.Args, nil)
		name, err := d.uint32()
		if err != nil {
			return err
		}
		r.mu.Lock()
		delete(r.globals, name)
		r.mu.Unlock()
		return nil
	default:
		return nil
	}
}

// missingGlobals reports which of the required interfaces were never
// advertised, for a clear startup error instead of a later nil-bind panic.
func (r *Registry) missingGlobals(required ...string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var missing []string
	for _, iface := range required {
		found := false
		for _, g := range r.globals {
			if g.Interface == iface {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, iface)
		}
	}
	return missing
}

func errMissingGlobals(missing []string) error {
	return fmt.Errorf("waylandclient: compositor is missing required globals: %v", missing)
}
