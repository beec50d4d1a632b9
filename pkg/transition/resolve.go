package transition

import (
	"math"
	"math/rand"
)

// Resolve expands Any/Random into a concrete geometric type using rnd
// (nil uses the package-level default source). The resolution happens
// once per transition instance, not per frame, so a running transition
// has one stable effect.
func Resolve(t Type, rnd *rand.Rand) Type {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}
	switch t {
	case Any:
		return anyPool[rnd.Intn(len(anyPool))]
	case Random:
		return concretePool[rnd.Intn(len(concretePool))]
	default:
		return t
	}
}

// TotalTicks computes the bound spec.md §4.D requires: "at most
// ceil(fps * duration_ms / 1000) frames", with Simple's own
// step-based count folded under the same cap, and None collapsing to
// a single instant frame.
func TotalTicks(d Descriptor) int {
	if d.Type == None {
		return 1
	}
	byTime := int(math.Ceil(float64(d.FPS) * float64(d.DurationMS) / 1000.0))
	if byTime < 1 {
		byTime = 1
	}
	if d.Type == Simple {
		step := int(d.Step)
		if step < 1 {
			step = 1
		}
		byStep := int(math.Ceil(255.0 / float64(step)))
		if byStep < byTime {
			return byStep
		}
	}
	return byTime
}
