package surface

import (
	"time"

	"github.com/driftwall/driftwall/pkg/pixel"
	"github.com/driftwall/driftwall/pkg/player"
	"github.com/driftwall/driftwall/pkg/transition"
)

// driver is whatever is currently pushing frames into the surface: a
// transition sequence or an animation player. Both are exhaustible
// iterators over time; the surface doesn't care which, only that it
// can ask "is it time for the next frame" and "give me the next
// frame" (spec.md §9 "the interface between player and surface is
// 'next frame on demand'").
type driver interface {
	due(now time.Time) bool
	step(now time.Time) (frame *pixel.Frame, done bool, err error)
	close()
}

// transitionDriver paces a transition.Sequence at its descriptor's
// fps, since Sequence itself is a pure value with no notion of wall
// time (spec.md §9 "Dynamic dispatch... a function of
// (descriptor, t) -> frame, not a polymorphic object").
type transitionDriver struct {
	seq      *transition.Sequence
	interval time.Duration
	next     time.Time
}

func newTransitionDriver(seq *transition.Sequence, fps uint8, start time.Time) *transitionDriver {
	if fps == 0 {
		fps = 1
	}
	return &transitionDriver{
		seq:      seq,
		interval: time.Second / time.Duration(fps),
		next:     start,
	}
}

func (t *transitionDriver) due(now time.Time) bool { return !now.Before(t.next) }

func (t *transitionDriver) step(now time.Time) (*pixel.Frame, bool, error) {
	f, ok := t.seq.Next()
	if !ok {
		return nil, true, nil
	}
	t.next = t.next.Add(t.interval)
	return f, false, nil
}

func (t *transitionDriver) close() {}

// playerDriver adapts pkg/player.Player, which already tracks its own
// wall-clock deadline, to the driver interface. It never reports
// "done": animations loop indefinitely until superseded (spec.md
// §4.E "loops indefinitely").
type playerDriver struct {
	p *player.Player
}

func newPlayerDriver(p *player.Player) *playerDriver { return &playerDriver{p: p} }

func (p *playerDriver) due(now time.Time) bool { return p.p.Due(now) }

func (p *playerDriver) step(now time.Time) (*pixel.Frame, bool, error) {
	f, err := p.p.Advance(now)
	if err != nil {
		return nil, true, err
	}
	return f, false, nil
}

func (p *playerDriver) close() { p.p.Close() }
