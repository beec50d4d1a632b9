package daemon

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"

	"github.com/driftwall/driftwall/pkg/apperror"
	"github.com/driftwall/driftwall/pkg/cache"
	"github.com/driftwall/driftwall/pkg/pixel"
)

// Run is the event loop: it blocks in poll() over exactly four fd
// classes (spec.md §5 "Suspension points") until ctx is cancelled or
// the compositor connection is lost. No Surface method is ever called
// from any other goroutine while Run is executing.
func (d *Daemon) Run(ctx context.Context) error {
	wakeFd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("daemon: create eventfd: %w", err)
	}
	defer unix.Close(wakeFd)
	d.wakeFd = wakeFd

	timerFd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_NONBLOCK|unix.TFD_CLOEXEC)
	if err != nil {
		return fmt.Errorf("daemon: create timerfd: %w", err)
	}
	defer unix.Close(timerFd)
	d.timerFd = timerFd

	interval := unix.NsecToTimespec(tickInterval.Nanoseconds())
	spec := &unix.ItimerSpec{Interval: interval, Value: interval}
	if err := unix.TimerfdSettime(timerFd, 0, spec, nil); err != nil {
		return fmt.Errorf("daemon: arm timerfd: %w", err)
	}

	go func() {
		<-ctx.Done()
		d.wake()
	}()

	pollfds := []unix.PollFd{
		{Fd: int32(d.client.Fd()), Events: unix.POLLIN},
		{Fd: int32(d.listenerFd), Events: unix.POLLIN},
		{Fd: int32(d.wakeFd), Events: unix.POLLIN},
		{Fd: int32(d.timerFd), Events: unix.POLLIN},
	}

	for {
		_, err := unix.Poll(pollfds, -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("daemon: poll: %w", err)
		}

		if ctx.Err() != nil || d.killRequested {
			log.Info().Msg("[Daemon] shutting down")
			return d.shutdown()
		}

		if pollfds[0].Revents&unix.POLLIN != 0 {
			if err := d.client.DispatchPending(); err != nil {
				kind := apperror.Classify(err)
				log.Error().Err(err).Str("kind", kind.String()).Msg("[Daemon] wayland dispatch failed")
				if kind.Fatal() {
					d.shutdown()
					return err
				}
			}
		}

		if pollfds[1].Revents&unix.POLLIN != 0 {
			d.acceptOne()
		}

		if pollfds[2].Revents&unix.POLLIN != 0 {
			d.drainWake()
			d.drainCommands()
		}

		if pollfds[3].Revents&unix.POLLIN != 0 {
			d.drainTimer()
			if err := d.tickAll(time.Now()); err != nil {
				kind := apperror.Classify(err)
				log.Error().Err(err).Str("kind", kind.String()).Msg("[Daemon] tick failed")
				if kind.Fatal() {
					d.shutdown()
					return err
				}
			}
		}
	}
}

// acceptOne accepts exactly one pending connection (poll is
// level-triggered, so a second pending connection simply leaves the
// listener fd readable for the next iteration) and hands it to its
// own goroutine: reading the request body and any decode work must
// never block this loop (spec.md §5 "No operation on surface state
// may block on I/O").
func (d *Daemon) acceptOne() {
	conn, err := d.ipcLn.Accept()
	if err != nil {
		log.Debug().Err(err).Msg("[Daemon] accept failed")
		return
	}
	go d.handleConn(conn)
}

func (d *Daemon) wake() {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, _ = unix.Write(d.wakeFd, buf[:])
}

func (d *Daemon) drainWake() {
	var buf [8]byte
	for {
		_, err := unix.Read(d.wakeFd, buf[:])
		if err != nil {
			return
		}
	}
}

func (d *Daemon) drainTimer() {
	var buf [8]byte
	for {
		_, err := unix.Read(d.timerFd, buf[:])
		if err != nil {
			return
		}
	}
}

// drainCommands runs every queued closure on this goroutine, which is
// the only place a Surface is ever mutated (spec.md §5).
func (d *Daemon) drainCommands() {
	for {
		select {
		case fn := <-d.cmdCh:
			fn()
		default:
			return
		}
	}
}

func (d *Daemon) tickAll(now time.Time) error {
	d.mu.Lock()
	entries := make([]*outputEntry, 0, len(d.outputs))
	for _, e := range d.outputs {
		entries = append(entries, e)
	}
	d.mu.Unlock()

	for _, e := range entries {
		if err := e.surf.Tick(now); err != nil {
			if apperror.Classify(err).Fatal() {
				return err
			}
			log.Error().Err(err).Str("output", e.name).Msg("[Daemon] present failed")
		}
	}
	return nil
}

// requestShutdown is called from a connection handler (via submitCmd)
// in response to a Kill request.
func (d *Daemon) requestShutdown() {
	d.killRequested = true
}

func (d *Daemon) shutdown() error {
	d.mu.Lock()
	entries := make([]*outputEntry, 0, len(d.outputs))
	for _, e := range d.outputs {
		entries = append(entries, e)
	}
	d.mu.Unlock()
	for _, e := range entries {
		e.surf.Close()
	}
	return nil
}

// Close releases every resource New acquired. Safe to call after Run
// returns, or instead of Run if New succeeded but Run was never
// started.
func (d *Daemon) Close() {
	if d.ipcLn != nil {
		_ = d.ipcLn.Close()
	}
	if d.decodeCache != nil {
		d.decodeCache.Close()
	}
	if d.client != nil {
		_ = d.client.Close()
	}
}

// restoreFromCache loads output's on-disk cached animation (spec.md
// §6 "cached animation file format") and presents it, if caching is
// enabled and a cache file exists matching this geometry/format.
func (d *Daemon) restoreFromCache(entry *outputEntry, w, h int32, format pixel.Format) bool {
	if d.cfg.NoCache || d.cfg.CacheDir == "" {
		return false
	}
	path := cache.Path(d.cfg.CacheDir, entry.name)
	anim, gotFormat, err := cache.ReadAnimation(path)
	if err != nil {
		return false
	}
	if gotFormat != format || anim.Anchor.W != int(w) || anim.Anchor.H != int(h) {
		log.Debug().Str("output", entry.name).Msg("[Daemon] cached animation geometry stale, discarding")
		return false
	}
	shared, start := d.decodeCache.GetOrStart("restore:"+entry.name, anim, time.Now())
	if len(shared.Frames) == 0 {
		if err := entry.surf.SetStill(shared.Anchor); err != nil {
			log.Error().Err(err).Str("output", entry.name).Msg("[Daemon] restore present failed")
			return false
		}
		entry.lastStill = shared.Anchor
	} else {
		if err := entry.surf.StartAnimation(shared, start); err != nil {
			log.Error().Err(err).Str("output", entry.name).Msg("[Daemon] restore present failed")
			return false
		}
		entry.lastAnim = shared
		if err := entry.surf.RequestFrameCallback(); err != nil {
			log.Error().Err(err).Str("output", entry.name).Msg("[Daemon] restore frame callback failed")
		}
	}
	entry.contentDesc = fmt.Sprintf("image: %s (restored from cache)", path)
	log.Info().Str("output", entry.name).Msg("[Daemon] restored cached content")
	return true
}
