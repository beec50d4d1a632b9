package pixel

import "fmt"

// Frame is a rectangular packed-pixel image in one Format. It is the
// uncompressed anchor representation used as the decode/diff base
// throughout the codec, imaging, transition and player packages.
type Frame struct {
	W, H   int
	Format Format
	// Pix holds W*H*Format.BytesPerPixel() bytes, row-major, no
	// stride padding beyond what the format itself defines per pixel.
	Pix []byte
}

// NewFrame allocates a zeroed frame of the given geometry and format.
func NewFrame(w, h int, format Format) *Frame {
	return &Frame{
		W:      w,
		H:      h,
		Format: format,
		Pix:    make([]byte, w*h*format.BytesPerPixel()),
	}
}

// Stride is the row size in bytes, rounded up to a 4 byte boundary as
// required when this frame backs a wl_shm buffer (spec.md §4.F).
func (f *Frame) Stride() int {
	raw := f.W * f.Format.BytesPerPixel()
	return (raw + 3) &^ 3
}

// Clone returns an independent copy of the frame's pixels.
func (f *Frame) Clone() *Frame {
	cp := &Frame{W: f.W, H: f.H, Format: f.Format, Pix: make([]byte, len(f.Pix))}
	copy(cp.Pix, f.Pix)
	return cp
}

// SameGeometry reports whether two frames share width, height and format.
func (f *Frame) SameGeometry(o *Frame) bool {
	return f.W == o.W && f.H == o.H && f.Format == o.Format
}

// Fill paints every pixel with a solid RGB color (the alpha/padding
// channel of 4-byte formats is always written as zero).
func (f *Frame) Fill(r, g, b byte) {
	bpp := f.Format.BytesPerPixel()
	ro, go_, bo := f.Format.channelOrder()
	for i := 0; i < len(f.Pix); i += bpp {
		px := f.Pix[i : i+bpp]
		if f.Format.HasPadding() {
			px[0] = 0
		}
		px[ro] = r
		px[go_] = g
		px[bo] = b
	}
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame(%dx%d %s)", f.W, f.H, f.Format)
}
