package imaging

import (
	"fmt"
	"math"

	"golang.org/x/image/draw"
)

// Filter is one of the resize filters spec.md §4.C allows a request to
// select; the default is Lanczos3.
type Filter int

const (
	Nearest Filter = iota
	Bilinear
	CatmullRom
	Mitchell
	Lanczos3
)

func (f Filter) String() string {
	switch f {
	case Nearest:
		return "Nearest"
	case Bilinear:
		return "Bilinear"
	case CatmullRom:
		return "CatmullRom"
	case Mitchell:
		return "Mitchell"
	case Lanczos3:
		return "Lanczos3"
	default:
		return fmt.Sprintf("Filter(%d)", int(f))
	}
}

// ParseFilter accepts the --filter CLI flag values.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "Nearest":
		return Nearest, nil
	case "Bilinear":
		return Bilinear, nil
	case "CatmullRom":
		return CatmullRom, nil
	case "Mitchell":
		return Mitchell, nil
	case "Lanczos3":
		return Lanczos3, nil
	default:
		return 0, fmt.Errorf("unknown resize filter %q", s)
	}
}

// mitchellKernel is the Mitchell-Netravali cubic (B=C=1/3), expressed
// the same way golang.org/x/image/draw expresses CatmullRom (B=0,C=1/2)
// and BiLinear: a piecewise cubic polynomial over [-2, 2].
func mitchellKernel(t float64) float64 {
	const b = 1.0 / 3.0
	const c = 1.0 / 3.0
	if t < 0 {
		t = -t
	}
	if t < 1 {
		return ((12-9*b-6*c)*t*t*t + (-18+12*b+6*c)*t*t + (6 - 2*b)) / 6
	}
	if t < 2 {
		return ((-b-6*c)*t*t*t + (6*b+30*c)*t*t + (-12*b-48*c)*t + (8*b + 24*c)) / 6
	}
	return 0
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// lanczos3Kernel windows sinc with a 3-lobe sinc window, the standard
// Lanczos-3 resampling kernel.
func lanczos3Kernel(t float64) float64 {
	if t < 0 {
		t = -t
	}
	if t >= 3 {
		return 0
	}
	return sinc(t) * sinc(t/3)
}

// scaler returns the golang.org/x/image/draw scaler for this filter.
// Nearest and Bilinear reuse x/image/draw's own ready-made values;
// CatmullRom likewise; Mitchell and Lanczos3 are expressed as two
// additional draw.Kernel values sharing the same dispatch (spec.md
// §4.C "Resizing uses a selectable filter").
func (f Filter) scaler() draw.Scaler {
	switch f {
	case Nearest:
		return draw.NearestNeighbor
	case Bilinear:
		return draw.BiLinear
	case CatmullRom:
		return draw.CatmullRom
	case Mitchell:
		return &draw.Kernel{Support: 2, At: mitchellKernel}
	case Lanczos3:
		return &draw.Kernel{Support: 3, At: lanczos3Kernel}
	default:
		return draw.CatmullRom
	}
}
