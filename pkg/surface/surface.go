// Package surface owns one output's layer-shell lifecycle: the
// compositor handshake, the buffer pool, and whichever of a
// transition or an animation is currently pushing pixels into it
// (spec.md §4.F).
package surface

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/driftwall/driftwall/pkg/bufferpool"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/pixel"
	"github.com/driftwall/driftwall/pkg/player"
	"github.com/driftwall/driftwall/pkg/transition"
	"github.com/driftwall/driftwall/pkg/waylandclient"
)

// boundBuffer pairs a bufferpool slab with the wl_shm_pool/wl_buffer
// proxies built from it, created once per slab and reused across
// redraws (spec.md §4.B "the pool owns 1-N buffers").
type boundBuffer struct {
	raw     *bufferpool.Buffer
	wlPool  *waylandclient.ShmPool
	wlBuf   *waylandclient.Buffer
	attached bool
}

// Surface drives one output's background layer: it owns the
// layer-shell object, the shm buffer pool, and the active content
// (still/transition/animation), gated by frame callbacks
// (spec.md §4.F "Draw loop").
type Surface struct {
	mu sync.Mutex

	Name   string
	ls     *waylandclient.LayerSurface
	wls    *waylandclient.Surface
	shm    *waylandclient.Shm
	vp     *waylandclient.Viewport          // nil if wp_viewporter unavailable
	frac   *waylandclient.FractionalScale   // nil if wp_fractional_scale unavailable
	format pixel.Format

	state State

	logicalW, logicalH int32
	scale120           uint32

	pool  *bufferpool.Pool
	bound map[*bufferpool.Buffer]*boundBuffer

	anchor *pixel.Frame
	drv    driver

	frameReady bool

	// OnGeometryChanged lets the daemon re-decode the active
	// animation's source at the new size (spec.md §4.F
	// "if an animation was running, its resize re-decodes from
	// source"); nil is fine, it just means nothing re-decodes.
	OnGeometryChanged func(w, h int32)

	// OnFirstConfigure fires once, the moment this surface leaves
	// StateUnconfigured, so the daemon can show restored or default
	// content (spec.md §4.F "Unconfigured -> Configured"). Unlike
	// OnGeometryChanged it never fires again afterward.
	OnFirstConfigure func()
}

// New constructs a Surface around an already-bound layer surface. vp
// and frac may be nil when the compositor lacks those protocols.
func New(name string, wls *waylandclient.Surface, ls *waylandclient.LayerSurface, shm *waylandclient.Shm, vp *waylandclient.Viewport, frac *waylandclient.FractionalScale, format pixel.Format) *Surface {
	s := &Surface{
		Name:     name,
		wls:      wls,
		ls:       ls,
		shm:      shm,
		vp:       vp,
		frac:     frac,
		format:   format,
		state:    StateUnconfigured,
		scale120: oneToOneScale120,
		bound:    make(map[*bufferpool.Buffer]*boundBuffer),
	}

	ls.OnConfigure(func(serial uint32, w, h uint32) { s.handleConfigure(serial, w, h) })
	if frac != nil {
		frac.OnPreferredScale(func(scale120 uint32) { s.handlePreferredScale(scale120) })
	}
	return s
}

// State reports the surface's current lifecycle state.
func (s *Surface) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Geometry reports the physical pixel size the next buffer must be
// (scale already applied, spec.md §4.F) and the negotiated pixel
// format, so a caller building a target frame (for `img`/`clear`)
// sizes it to match this surface exactly. Zero width/height means no
// `configure` has arrived yet.
func (s *Surface) Geometry() (w, h int32, format pixel.Format) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bw, bh := bufferSize(s.logicalW, s.logicalH, s.scale120)
	return bw, bh, s.format
}

func (s *Surface) handleConfigure(serial uint32, w, h uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logicalW, logicalH := int32(w), int32(h)
	first := s.state == StateUnconfigured
	geometryChanged := logicalW != s.logicalW || logicalH != s.logicalH

	s.logicalW, s.logicalH = logicalW, logicalH
	_ = s.ls.AckConfigure(serial)

	if first {
		s.state = StateConfigured
	}
	if geometryChanged && !first {
		s.onGeometryChangedLocked()
	}
	if s.vp != nil && s.logicalW > 0 && s.logicalH > 0 {
		_ = s.vp.SetDestination(s.logicalW, s.logicalH)
	}
	s.rebuildPoolLocked()
	if first && s.OnFirstConfigure != nil {
		s.OnFirstConfigure()
	}
}

func (s *Surface) handlePreferredScale(scale120 uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if scale120 == s.scale120 {
		return
	}
	s.scale120 = scale120
	s.onGeometryChangedLocked()
	s.rebuildPoolLocked()
}

// onGeometryChangedLocked stops the active driver, drains the pool's
// bound wl objects and notifies the daemon through OnGeometryChanged.
// The current anchor is not resized here, and a running animation is
// not re-decoded: the surface keeps its last frame at the old size.
func (s *Surface) onGeometryChangedLocked() {
	if s.drv != nil {
		s.drv.close()
		s.drv = nil
	}
	s.state = StateConfigured
	if s.pool != nil {
		s.pool.Drain()
	}
	s.bound = make(map[*bufferpool.Buffer]*boundBuffer)
	if s.OnGeometryChanged != nil {
		s.OnGeometryChanged(s.logicalW, s.logicalH)
	}
}

func (s *Surface) rebuildPoolLocked() {
	bw, bh := bufferSize(s.logicalW, s.logicalH, s.scale120)
	if bw <= 0 || bh <= 0 {
		return
	}
	stride := strideFor(bw, s.format.BytesPerPixel())
	size := int(stride) * int(bh)
	if s.pool != nil && s.pool.Size() == size {
		return
	}
	if s.pool != nil {
		s.pool.Drain()
	}
	s.pool = bufferpool.New(size)
	s.bound = make(map[*bufferpool.Buffer]*boundBuffer)
}

// SetStill sets the surface's content directly with no transition
// (used for the initial image, `clear`, and `restore`).
func (s *Surface) SetStill(frame *pixel.Frame) error {
	s.mu.Lock()
	if s.drv != nil {
		s.drv.close()
		s.drv = nil
	}
	s.anchor = frame
	s.state = StateConfigured
	s.mu.Unlock()
	return s.present(frame)
}

// StartTransition begins a transition from the currently visible
// pixels to target, cancelling any transition or animation already in
// flight (spec.md §4.F "Reentrancy").
func (s *Surface) StartTransition(target *pixel.Frame, desc transition.Descriptor, rnd *rand.Rand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.anchor
	if old == nil || !old.SameGeometry(target) {
		old = pixel.NewFrame(target.W, target.H, target.Format)
	}
	if s.drv != nil {
		s.drv.close()
	}
	seq := transition.NewSequence(old, target, desc, rnd)
	s.drv = newTransitionDriver(seq, desc.FPS, time.Now())
	s.state = StateTransitioning
	return nil
}

// StartAnimation begins playback of anim starting at start,
// cancelling any transition or animation already in flight.
func (s *Surface) StartAnimation(anim *imaging.Animation, start time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drv != nil {
		s.drv.close()
	}
	s.drv = newPlayerDriver(player.New(anim, start))
	s.state = StateAnimating
	return nil
}

// RequestFrameCallback arms the one-shot frame callback that gates
// the next draw (spec.md §4.F "Draw loop").
func (s *Surface) RequestFrameCallback() error {
	cb, err := s.wls.Frame()
	if err != nil {
		return err
	}
	cb.OnDone(func(uint32) {
		s.mu.Lock()
		s.frameReady = true
		s.mu.Unlock()
	})
	return nil
}

// Tick is called from the daemon event loop on every pass; it draws
// the next frame only once both the frame callback has fired and the
// active driver's wall-clock deadline has arrived (spec.md §4.F
// "next draw is only scheduled when both... the frame callback fires
// and... the scheduled deadline arrives").
func (s *Surface) Tick(now time.Time) error {
	s.mu.Lock()
	if !s.frameReady || s.drv == nil || !s.drv.due(now) {
		s.mu.Unlock()
		return nil
	}
	frame, done, err := s.drv.step(now)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("surface %s: %w", s.Name, err)
	}
	if done {
		s.drv.close()
		s.drv = nil
		s.state = StateConfigured
		s.mu.Unlock()
		return nil
	}
	s.anchor = frame
	s.mu.Unlock()

	if err := s.present(frame); err != nil {
		if errors.Is(err, bufferpool.ErrBusy) {
			// Nothing was attached or committed, so the compositor
			// owes us no new frame callback; leave frameReady set so
			// playback keeps retrying on the next Tick instead of
			// stalling until an unrelated img/restore request happens
			// to re-arm the callback (spec.md §7 Busy "resolved by
			// waiting").
			return nil
		}
		return fmt.Errorf("surface %s: %w", s.Name, err)
	}

	s.mu.Lock()
	s.frameReady = false
	s.mu.Unlock()
	return s.RequestFrameCallback()
}

// present acquires a buffer, copies frame's pixels in, and commits
// it (spec.md §4.F "acquire buffer from B, write pixels, attach,
// damage full surface, commit").
func (s *Surface) present(frame *pixel.Frame) error {
	s.mu.Lock()
	pool := s.pool
	s.mu.Unlock()
	if pool == nil {
		return fmt.Errorf("surface %s: no buffer pool (not configured yet)", s.Name)
	}

	raw, err := pool.Acquire()
	if err != nil {
		return err // spec.md §7 Busy: internal, caller retries next tick
	}
	copy(raw.Data, frame.Pix)

	bb, err := s.boundBufferFor(raw, frame)
	if err != nil {
		raw.Release()
		return err
	}

	if err := s.wls.Attach(bb.wlBuf, 0, 0); err != nil {
		return err
	}
	if err := s.wls.DamageBuffer(0, 0, int32(frame.W), int32(frame.H)); err != nil {
		return err
	}
	return s.wls.Commit()
}

func (s *Surface) boundBufferFor(raw *bufferpool.Buffer, frame *pixel.Frame) (*boundBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bb, ok := s.bound[raw]; ok {
		return bb, nil
	}

	wlPool, err := s.shm.CreatePool(raw.Fd, int32(raw.Size))
	if err != nil {
		return nil, err
	}
	stride := strideFor(int32(frame.W), s.format.BytesPerPixel())
	wlBuf, err := wlPool.CreateBuffer(0, int32(frame.W), int32(frame.H), stride, shmFormatFor(s.format))
	if err != nil {
		return nil, err
	}
	wlBuf.OnRelease(func() { raw.Release() })

	bb := &boundBuffer{raw: raw, wlPool: wlPool, wlBuf: wlBuf}
	s.bound[raw] = bb
	return bb, nil
}

func shmFormatFor(f pixel.Format) waylandclient.ShmFormat {
	switch f {
	case pixel.XRGB:
		return waylandclient.ShmFormatXRGB8888
	case pixel.XBGR:
		return waylandclient.ShmFormatXBGR8888
	case pixel.BGR:
		return waylandclient.ShmFormatBGR888
	default:
		return waylandclient.ShmFormatRGB888
	}
}

// Close tears down the surface's buffer pool and layer-shell object.
func (s *Surface) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drv != nil {
		s.drv.close()
		s.drv = nil
	}
	if s.pool != nil {
		s.pool.Drain()
	}
	_ = s.ls.Destroy()
}
