package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"time"

	"github.com/driftwall/driftwall/pkg/codec"
	"github.com/driftwall/driftwall/pkg/pixel"
)

func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

// minFrameDuration is the 1ms floor spec.md §3/§4.C requires on every
// animation frame duration.
const minFrameDuration = time.Millisecond

// AnimFrame is one (compressed-frame, duration) pair (spec.md §3).
type AnimFrame struct {
	Duration time.Duration
	Delta    []byte
}

// Animation is the pure, output-independent value spec.md §3
// describes: an anchor frame plus an ordered sequence of deltas
// against the previous decoded frame. It is shared read-only between
// the decode worker and every player showing it.
type Animation struct {
	Anchor         *pixel.Frame
	AnchorDuration time.Duration
	Frames         []AnimFrame
	Channels       codec.Channels
}

// DecodeAnimation decodes every frame of an animated GIF, composites
// per-frame GIF disposal against a running canvas, resizes/pads/packs
// each composited frame to (dstW, dstH) in format, and compresses it
// against the previous packed frame (spec.md §4.C "Animations").
// Single-frame GIFs collapse to a still by returning a one-entry
// Animation whose caller can treat len(Frames)==0 as "not animated".
//
// Cancellation is checked once per source frame, bounding worst-case
// response to one frame's worth of decode work (spec.md §5).
func DecodeAnimation(ctx context.Context, src *Source, dstW, dstH int, mode FitMode, fill Color, filter Filter, format pixel.Format) (*Animation, error) {
	g, err := gif.DecodeAll(bytesReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("%w: animation has no frames", ErrDecode)
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, g.Config.Width, g.Config.Height))
	anim := &Animation{Channels: channelsFor(format)}

	var prevPacked *pixel.Frame
	var prevDisposal *image.NRGBA // snapshot before the frame that needs restoring

	for i, frame := range g.Image {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		disposal := g.Disposal[i]
		if disposal == gif.DisposalPrevious {
			snap := image.NewNRGBA(canvas.Bounds())
			copy(snap.Pix, canvas.Pix)
			prevDisposal = snap
		}

		compositeGIFFrame(canvas, frame)

		composed := image.NewNRGBA(canvas.Bounds())
		copy(composed.Pix, canvas.Pix)

		if disposal == gif.DisposalBackground {
			clearRect(canvas, frame.Bounds())
		} else if disposal == gif.DisposalPrevious && prevDisposal != nil {
			copy(canvas.Pix, prevDisposal.Pix)
		}

		fitted := FitTo(composed, dstW, dstH, mode, fill, filter)
		packed := pixel.PackNRGBA(fitted, format)

		duration := time.Duration(g.Delay[i]) * 10 * time.Millisecond
		if duration < minFrameDuration {
			duration = minFrameDuration
		}

		if i == 0 {
			anim.Anchor = packed
			anim.AnchorDuration = duration
		} else {
			delta := codec.Compress(prevPacked.Pix, packed.Pix, anim.Channels)
			anim.Frames = append(anim.Frames, AnimFrame{Duration: duration, Delta: delta})
		}
		prevPacked = packed

		if i == 0 && len(g.Image) == 1 {
			// Single-frame GIF: still, not an animation. Duration is
			// meaningless; leave anim.Frames empty.
			_ = duration
		}
	}

	return anim, nil
}

func channelsFor(f pixel.Format) codec.Channels {
	if f.HasPadding() {
		return codec.Channels4
	}
	return codec.Channels3
}

func compositeGIFFrame(canvas *image.NRGBA, frame *image.Paletted) {
	b := frame.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := frame.At(x, y)
			_, _, _, a := c.RGBA()
			if a == 0 {
				continue // transparent: leave the running canvas pixel alone
			}
			canvas.Set(x, y, c)
		}
	}
}

func clearRect(canvas *image.NRGBA, r image.Rectangle) {
	r = r.Intersect(canvas.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := canvas.Pix[(y-canvas.Rect.Min.Y)*canvas.Stride : (y-canvas.Rect.Min.Y+1)*canvas.Stride]
		for x := r.Min.X; x < r.Max.X; x++ {
			off := (x - canvas.Rect.Min.X) * 4
			row[off], row[off+1], row[off+2], row[off+3] = 0, 0, 0, 0
		}
	}
}
