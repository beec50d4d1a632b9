package transition

import (
	"math/rand"

	"github.com/driftwall/driftwall/pkg/pixel"
)

// Sequence is the lazy finite sequence of intermediate frames from
// old to new (spec.md §4.D). It is cancellable at any tick boundary:
// callers simply stop calling Next.
type Sequence struct {
	old, new_ *pixel.Frame
	desc      Descriptor
	resolved  Type
	total     int
	tick      int
}

// NewSequence resolves Any/Random once (via rnd, nil uses a default
// source) and precomputes the frame-count bound spec.md §4.D requires.
// old and new must share geometry and format.
func NewSequence(old, new_ *pixel.Frame, d Descriptor, rnd *rand.Rand) *Sequence {
	return &Sequence{
		old:      old,
		new_:     new_,
		desc:     d,
		resolved: Resolve(d.Type, rnd),
		total:    TotalTicks(d),
	}
}

// Resolved returns the concrete effect Any/Random resolved to (or the
// descriptor's own type, if it was already concrete).
func (s *Sequence) Resolved() Type { return s.resolved }

// Len is the exact number of frames this sequence will produce.
func (s *Sequence) Len() int { return s.total }

// Next produces the next frame, or ok=false once the sequence is
// exhausted. The final frame returned is always pixel-identical to
// new (spec.md §4.D, §8).
func (s *Sequence) Next() (frame *pixel.Frame, ok bool) {
	if s.tick >= s.total {
		return nil, false
	}
	s.tick++
	if s.tick == s.total {
		return s.new_, true
	}

	progress := float64(s.tick) / float64(s.total)

	switch s.resolved {
	case None:
		return s.new_, true
	case Simple:
		t := float64(s.tick) * float64(s.desc.Step) / 255.0
		if t > 1 {
			t = 1
		}
		return blendUniform(s.old, s.new_, t), true
	case Fade:
		t := s.desc.Bezier.ease(progress)
		return blendUniform(s.old, s.new_, t), true
	default:
		t := s.desc.Bezier.ease(progress)
		return blendGeometric(s.old, s.new_, s.desc, s.resolved, t), true
	}
}

// Drain runs the sequence to completion, collecting every frame. Used
// by tests and by callers (e.g. the cache warmer) that want the whole
// sequence eagerly rather than frame-by-frame.
func Drain(s *Sequence) []*pixel.Frame {
	var out []*pixel.Frame
	for {
		f, ok := s.Next()
		if !ok {
			break
		}
		out = append(out, f)
	}
	return out
}
