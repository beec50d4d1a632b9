// Package player drives an Animation's frames into a surface at
// wall-clock cadence derived from per-frame durations (spec.md §4.E).
package player

import (
	"fmt"
	"time"

	"github.com/driftwall/driftwall/pkg/codec"
	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/pixel"
)

// maxDropCycles bounds how far a lagging player will fast-forward
// through missed deadlines before giving up and presenting whatever
// frame it lands on — "it may drop up to N frames (default: advance
// through delays <= one full cycle)" (spec.md §4.E).
const maxDropCycles = 1

// Player consumes a shared, read-only *imaging.Animation and produces
// the frame that should be visible at a given wall-clock time,
// decompressing each frame's delta against a scratch buffer it owns
// exclusively. Multiple Players may share one Animation value as long
// as each has its own scratch buffer (spec.md §3 "Ownership").
type Player struct {
	anim     *imaging.Animation
	scratch  *pixel.Frame
	nextIdx  int // index into anim.Frames for the *next* delta to apply
	deadline time.Time
	looped   uint64
}

// New starts a player anchored at a shared monotonic start time, so
// multiple outputs showing the same animation stay in sync
// (spec.md §4.C "Synchronization across outputs").
func New(anim *imaging.Animation, start time.Time) *Player {
	return &Player{
		anim:     anim,
		scratch:  anim.Anchor.Clone(),
		deadline: start.Add(anim.AnchorDuration),
	}
}

// Due reports whether a new frame should be presented at `now`.
func (p *Player) Due(now time.Time) bool {
	return !now.Before(p.deadline)
}

// Advance produces the frame that should be visible at `now`,
// decompressing forward from the current scratch buffer and dropping
// at most one full loop's worth of missed deadlines so a long stall
// (e.g. the compositor withholding frame callbacks) can never pin the
// event loop in a catch-up spin (spec.md §4.E, §5 "never stalls the
// event loop").
func (p *Player) Advance(now time.Time) (*pixel.Frame, error) {
	if len(p.anim.Frames) == 0 {
		return p.scratch, nil
	}

	drops := 0
	for p.Due(now) {
		if err := p.stepOnce(); err != nil {
			return nil, err
		}
		if drops++; drops > len(p.anim.Frames)*maxDropCycles {
			break // a whole cycle behind; stop catching up, present what we have
		}
	}
	return p.scratch, nil
}

func (p *Player) stepOnce() error {
	if p.nextIdx >= len(p.anim.Frames) {
		// Frames[0] is a delta against the anchor, so a new cycle
		// starts by showing the anchor again for its own duration.
		copy(p.scratch.Pix, p.anim.Anchor.Pix)
		p.deadline = p.deadline.Add(p.anim.AnchorDuration)
		p.nextIdx = 0
		p.looped++
		return nil
	}
	frame := p.anim.Frames[p.nextIdx]
	decoded, err := codec.Decompress(p.scratch.Pix, frame.Delta, p.anim.Channels)
	if err != nil {
		return fmt.Errorf("player: decoding frame %d: %w", p.nextIdx, err)
	}
	p.scratch.Pix = decoded
	p.deadline = p.deadline.Add(frame.Duration)

	p.nextIdx++
	return nil
}

// Loops reports how many full cycles of the animation have played,
// for tests/metrics that want to assert on steady-state looping.
func (p *Player) Loops() uint64 { return p.looped }

// Close releases the scratch buffer. Safe to call once, on
// cancellation or when the surface moves to a different content
// (spec.md §4.E "on cancellation releases the scratch buffer").
func (p *Player) Close() {
	p.scratch = nil
}
