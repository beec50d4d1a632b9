package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/driftwall/driftwall/pkg/apperror"
	"github.com/driftwall/driftwall/pkg/cache"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/ipc"
	"github.com/driftwall/driftwall/pkg/pixel"
	"github.com/driftwall/driftwall/pkg/transition"
)

// inflightJob lets concurrent `img` requests for the same output and
// the same fingerprint share one decode instead of racing two
// (spec.md §3 "Request fingerprint").
type inflightJob struct {
	done chan struct{}
	err  error
}

// handleConn owns one client connection end to end: it never touches
// a Surface directly, only through submitCmd (spec.md §5). Grounded
// on the teacher's cursor socket connection handler: one goroutine
// per accepted connection, closed when its single request/reply
// round-trip finishes (pkg/_teacher_desktop/cursor_socket.go
// handleConnection).
func (d *Daemon) handleConn(conn *ipc.Conn) {
	defer conn.Close()

	kind, payload, fd, err := conn.ReadRequest()
	if fd >= 0 && kind != ipc.ReqImg {
		defer unix.Close(fd)
	}
	if err != nil {
		if !errors.Is(err, io.EOF) {
			log.Debug().Err(err).Msg("[Daemon] reading request failed")
		}
		return
	}

	switch kind {
	case ipc.ReqPing:
		_ = conn.SendPong()

	case ipc.ReqKill:
		_ = conn.SendOk()
		d.submitCmd(d.requestShutdown)

	case ipc.ReqQuery:
		req, _ := payload.(ipc.OutputsRequest)
		result := make(chan ipc.InfoReply, 1)
		d.submitCmd(func() { result <- d.doQuery(req.Outputs) })
		_ = conn.SendInfo(<-result)

	case ipc.ReqRestore:
		req, _ := payload.(ipc.OutputsRequest)
		d.replyErrOrOk(conn, func() error { return d.doRestore(req.Outputs) })

	case ipc.ReqClear:
		req, _ := payload.(ipc.ClearRequest)
		d.replyErrOrOk(conn, func() error { return d.doClear(req) })

	case ipc.ReqClearCache:
		d.replyErrOrOk(conn, d.doClearCache)

	case ipc.ReqImg:
		req, _ := payload.(ipc.ImgRequest)
		d.handleImg(conn, req, fd)

	default:
		_ = conn.SendErr(fmt.Sprintf("unknown request kind %d", kind))
	}
}

// replyErrOrOk runs fn on the event-loop goroutine (via submitCmd) and
// turns its result into the matching reply, for every request whose
// work is cheap enough to never leave the event loop.
func (d *Daemon) replyErrOrOk(conn *ipc.Conn, fn func() error) {
	result := make(chan error, 1)
	d.submitCmd(func() { result <- fn() })
	if err := <-result; err != nil {
		_ = conn.SendErr(err.Error())
	} else {
		_ = conn.SendOk()
	}
}

// Restore re-applies every named output's last content (or every
// output when names is nil), the same path the `restore` IPC request
// drives. Exported so a SIGUSR2 handler can trigger it in-process
// without round-tripping through the daemon's own socket.
func (d *Daemon) Restore(names []string) error {
	result := make(chan error, 1)
	d.submitCmd(func() { result <- d.doRestore(names) })
	return <-result
}

// doQuery runs on the event-loop goroutine.
func (d *Daemon) doQuery(names []string) ipc.InfoReply {
	targets, _ := d.resolveOutputs(names)
	out := make([]ipc.OutputInfo, 0, len(targets))
	for _, e := range targets {
		w, h, _ := e.surf.Geometry()
		scale := 1.0
		if e.wlOutput != nil && e.wlOutput.Scale() > 0 {
			scale = float64(e.wlOutput.Scale())
		}
		out = append(out, ipc.OutputInfo{
			Name:    e.name,
			Width:   w,
			Height:  h,
			Scale:   scale,
			Content: e.contentDesc,
		})
	}
	return ipc.InfoReply{Outputs: out}
}

// doRestore runs on the event-loop goroutine.
func (d *Daemon) doRestore(names []string) error {
	targets, missing := d.resolveOutputs(names)
	if len(missing) > 0 {
		return apperror.New(apperror.KindNoOutput, strings.Join(missing, ","), apperror.ErrNoOutput)
	}
	for _, e := range targets {
		switch {
		case e.lastAnim != nil:
			start := time.Now()
			if err := e.surf.StartAnimation(e.lastAnim, start); err != nil {
				return err
			}
			_ = e.surf.RequestFrameCallback()
		case e.lastStill != nil:
			if err := e.surf.SetStill(e.lastStill); err != nil {
				return err
			}
		default:
			w, h, format := e.surf.Geometry()
			if w <= 0 || h <= 0 || !d.restoreFromCache(e, w, h, format) {
				return fmt.Errorf("output %s has no prior content to restore", e.name)
			}
		}
	}
	return nil
}

// doClear runs on the event-loop goroutine.
func (d *Daemon) doClear(req ipc.ClearRequest) error {
	targets, missing := d.resolveOutputs(req.Outputs)
	if len(missing) > 0 {
		return apperror.New(apperror.KindNoOutput, strings.Join(missing, ","), apperror.ErrNoOutput)
	}
	for _, e := range targets {
		w, h, format := e.surf.Geometry()
		if w <= 0 || h <= 0 {
			return apperror.New(apperror.KindIOError, e.name, fmt.Errorf("output not configured yet"))
		}
		frame := pixel.NewFrame(int(w), int(h), format)
		frame.Fill(req.Color.R, req.Color.G, req.Color.B)
		if err := e.surf.SetStill(frame); err != nil {
			return err
		}
		e.lastStill = frame
		e.lastAnim = nil
		e.contentDesc = fmt.Sprintf("color: %02x%02x%02x", req.Color.R, req.Color.G, req.Color.B)
	}
	return nil
}

// doClearCache runs on the event-loop goroutine, but cache.Clear is
// the one disk operation this daemon lets the event-loop goroutine
// perform directly: it touches only the cache directory, never a
// Wayland fd, so it can't stall the compositor connection, and
// routing it through a worker would gain nothing but complexity.
func (d *Daemon) doClearCache() error {
	if d.cfg.NoCache || d.cfg.CacheDir == "" {
		return nil
	}
	return cache.Clear(d.cfg.CacheDir)
}

func (d *Daemon) resolveOutputs(names []string) (targets []*outputEntry, missing []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(names) == 0 {
		for _, e := range d.outputs {
			targets = append(targets, e)
		}
		return targets, nil
	}
	for _, n := range names {
		if e, ok := d.outputs[n]; ok {
			targets = append(targets, e)
		} else {
			missing = append(missing, n)
		}
	}
	return targets, missing
}

// handleImg decodes req's image once per target output (concurrent
// identical requests on the same output share one decode) and hands
// each result to the event loop through submitCmd (spec.md §5).
func (d *Daemon) handleImg(conn *ipc.Conn, req ipc.ImgRequest, fd int) {
	data, err := readImgSource(req, fd)
	if err != nil {
		_ = conn.SendErr(err.Error())
		return
	}
	src := &imaging.Source{Data: data}

	targets, missing := d.resolveOutputs(req.Outputs)
	if len(missing) > 0 {
		_ = conn.SendErr(fmt.Sprintf("no such output(s): %s", strings.Join(missing, ",")))
		return
	}
	if len(targets) == 0 {
		_ = conn.SendErr("no outputs attached yet")
		return
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []string

	for _, target := range targets {
		target := target
		w, h, format := target.surf.Geometry()
		if w <= 0 || h <= 0 {
			mu.Lock()
			errs = append(errs, fmt.Sprintf("%s: not configured yet", target.name))
			mu.Unlock()
			continue
		}

		key := target.name + "|" + fingerprint(req.ContentHash, w, h, req.Fit, req.Fill, format)

		d.mu.Lock()
		job, inflight := d.lookupInflight(key)
		if !inflight {
			job = &inflightJob{done: make(chan struct{})}
			d.setInflight(key, job)
		}
		d.mu.Unlock()

		wg.Add(1)
		if inflight {
			go func() {
				defer wg.Done()
				<-job.done
				if job.err != nil {
					mu.Lock()
					errs = append(errs, fmt.Sprintf("%s: %v", target.name, job.err))
					mu.Unlock()
				}
			}()
			continue
		}

		d.workers.Go(func() {
			defer wg.Done()
			jobErr := d.decodeAndApply(target, req, src, w, h, format)
			d.mu.Lock()
			d.clearInflight(key)
			d.mu.Unlock()
			job.err = jobErr
			close(job.done)
			if jobErr != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("%s: %v", target.name, jobErr))
				mu.Unlock()
			}
		})
	}

	wg.Wait()
	if len(errs) > 0 {
		_ = conn.SendErr(strings.Join(errs, "; "))
		return
	}
	_ = conn.SendOk()
}

// decodeAndApply runs on a worker goroutine: it may block on CPU work
// and, for a cache write, on disk I/O, but never touches a Surface
// directly.
func (d *Daemon) decodeAndApply(target *outputEntry, req ipc.ImgRequest, src *imaging.Source, w, h int32, format pixel.Format) error {
	result, err := imaging.Decode(context.Background(), src, int(w), int(h), req.Fit, req.Fill, req.Filter, format)
	if err != nil {
		return err
	}

	if result.Animation != nil {
		if !d.cfg.NoCache && d.cfg.CacheDir != "" {
			if err := cache.WriteAnimation(cache.Path(d.cfg.CacheDir, target.name), result.Animation, format); err != nil {
				log.Warn().Err(err).Str("output", target.name).Msg("[Daemon] cache write failed")
			}
		}
	}

	// The shared decode cache is consulted on the event loop, keyed
	// without the output name, so outputs of equal geometry showing the
	// same content get one Animation and one start time.
	d.submitCmd(func() {
		var anim *imaging.Animation
		var start time.Time
		if result.Animation != nil {
			key := "content:" + fingerprint(req.ContentHash, w, h, req.Fit, req.Fill, format)
			anim, start = d.decodeCache.GetOrStart(key, result.Animation, time.Now())
		}
		d.applyResult(target.name, result.Still, anim, start, req)
	})
	return nil
}

func (d *Daemon) applyResult(name string, still *pixel.Frame, anim *imaging.Animation, start time.Time, req ipc.ImgRequest) {
	d.mu.Lock()
	entry, ok := d.outputs[name]
	d.mu.Unlock()
	if !ok {
		return
	}

	target := still
	if target == nil && anim != nil {
		target = anim.Anchor
	}
	if target == nil {
		return
	}

	desc := describeContent(req)

	if req.Transition.Type != transition.None {
		if err := entry.surf.StartTransition(target, req.Transition, d.rnd); err != nil {
			log.Error().Err(err).Str("output", name).Msg("[Daemon] start transition failed")
			return
		}
		_ = entry.surf.RequestFrameCallback()
		entry.lastStill, entry.lastAnim = target, nil
		entry.contentDesc = desc
		return
	}

	if anim != nil {
		if err := entry.surf.StartAnimation(anim, start); err != nil {
			log.Error().Err(err).Str("output", name).Msg("[Daemon] start animation failed")
			return
		}
		_ = entry.surf.RequestFrameCallback()
		entry.lastAnim, entry.lastStill = anim, nil
	} else {
		if err := entry.surf.SetStill(still); err != nil {
			log.Error().Err(err).Str("output", name).Msg("[Daemon] set still failed")
			return
		}
		entry.lastStill, entry.lastAnim = still, nil
	}
	entry.contentDesc = desc
}

func describeContent(req ipc.ImgRequest) string {
	if req.Path != "" {
		return "image: " + req.Path
	}
	return "image: <stdin>"
}

func readImgSource(req ipc.ImgRequest, fd int) ([]byte, error) {
	if req.HasFD {
		if fd < 0 {
			return nil, fmt.Errorf("img request declared a memfd but none was attached")
		}
		f := os.NewFile(uintptr(fd), "img-src")
		defer f.Close()
		return io.ReadAll(f)
	}
	if req.Path != "" {
		return os.ReadFile(req.Path)
	}
	return nil, fmt.Errorf("img request carries neither a path nor pixel data")
}

func (d *Daemon) lookupInflight(key string) (*inflightJob, bool) {
	j, ok := d.inflight[key]
	return j, ok
}

func (d *Daemon) setInflight(key string, job *inflightJob) {
	d.inflight[key] = job
}

func (d *Daemon) clearInflight(key string) {
	delete(d.inflight, key)
}
