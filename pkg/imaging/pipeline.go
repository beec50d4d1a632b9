package imaging

import (
	"context"
	"fmt"
	"image"

	"github.com/driftwall/driftwall/pkg/pixel"
)

// Result is the outcome of decoding one request's image: exactly one
// of Still or Animation is set. Single-frame inputs and animated
// inputs that decode to exactly one frame always collapse to Still
// (spec.md §4.C).
type Result struct {
	Still     *pixel.Frame
	Animation *Animation
}

// Decode sniffs src by content, decodes it, and produces either a
// still frame or an animation fitted to (dstW, dstH).
func Decode(ctx context.Context, src *Source, dstW, dstH int, mode FitMode, fill Color, filter Filter, format pixel.Format) (*Result, error) {
	if dstW <= 0 || dstH <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", ErrUnsupportedGeometry, dstW, dstH)
	}

	kind, err := src.sniffFormat()
	if err != nil {
		return nil, err
	}

	if kind == "gif" {
		anim, err := DecodeAnimation(ctx, src, dstW, dstH, mode, fill, filter, format)
		if err != nil {
			return nil, err
		}
		if len(anim.Frames) == 0 {
			return &Result{Still: anim.Anchor}, nil
		}
		return &Result{Animation: anim}, nil
	}

	img, _, err := image.Decode(bytesReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	fitted := FitTo(img, dstW, dstH, mode, fill, filter)
	return &Result{Still: pixel.PackNRGBA(fitted, format)}, nil
}

// ErrUnsupportedGeometry marks a spec.md §7 UnsupportedGeometry failure.
var ErrUnsupportedGeometry = fmt.Errorf("target size must be positive")
