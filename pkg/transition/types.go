// Package transition implements the pure transition animator of
// spec.md §4.D: given an anchor frame, a target frame, and a
// transition descriptor, it produces a lazy finite sequence of
// intermediate frames ending exactly at the target.
package transition

import "fmt"

// Type is the transition geometry/shape (spec.md §4.D).
type Type int

const (
	None Type = iota
	Simple
	Fade
	Wipe
	Wave
	Grow
	Outer
	Center
	Any
	Random
	Left
	Right
	Top
	Bottom
)

func (t Type) String() string {
	names := [...]string{"none", "simple", "fade", "wipe", "wave", "grow", "outer", "center", "any", "random", "left", "right", "top", "bottom"}
	if int(t) < len(names) {
		return names[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType accepts the --transition-type CLI flag values.
func ParseType(s string) (Type, error) {
	m := map[string]Type{
		"none": None, "simple": Simple, "fade": Fade, "wipe": Wipe, "wave": Wave,
		"grow": Grow, "outer": Outer, "center": Center, "any": Any, "random": Random,
		"left": Left, "right": Right, "top": Top, "bottom": Bottom,
	}
	t, ok := m[s]
	if !ok {
		return 0, fmt.Errorf("unknown transition type %q", s)
	}
	return t, nil
}

// concretePool is the set random resolves across. any and random
// aren't in it: any is its own two-way pool (center, outer), and
// random choosing any again would just be one more layer of
// indirection onto the same pool (SPEC_FULL.md §9, resolved open
// question).
var concretePool = []Type{Simple, Fade, Wipe, Wave, Grow, Outer, Center, Left, Right, Top, Bottom}

var anyPool = []Type{Center, Outer}

// Bezier is a cubic easing curve's two interior control points; the
// endpoints are implicitly (0,0) and (1,1).
type Bezier struct {
	X1, Y1, X2, Y2 float64
}

// DefaultBezier matches a linear ease (no-op cubic).
var DefaultBezier = Bezier{X1: 0, Y1: 0, X2: 1, Y2: 1}

// Point is a transition origin in either percentage (0-100) or
// absolute pixel coordinates; Pos in the CLI is parsed to one of
// these before the descriptor is built.
type Point struct {
	X, Y float64
	// Percent, when true, means X/Y are 0-100 percentages of the
	// frame's size rather than absolute pixels.
	Percent bool
}

// WaveSize is the wipe-boundary sinusoid's (width, height) for Wave
// transitions (spec.md §4.D).
type WaveSize struct {
	Width, Height float64
}

// Descriptor is the full set of parameters describing one transition
// (spec.md §4.D, §GLOSSARY).
type Descriptor struct {
	Type       Type
	Step       uint8 // [1, 255]
	FPS        uint8 // [1, 255]
	DurationMS uint32
	Bezier     Bezier
	AngleDeg   float64
	Pos        Point
	InvertY    bool
	WaveSize   WaveSize
}
