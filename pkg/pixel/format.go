// Package pixel defines the packed pixel formats and frame value type
// shared by every output surface in a session.
package pixel

import "fmt"

// Format is one of the four packed pixel layouts a surface negotiates
// with the compositor. All frames within one surface session share a
// single format.
type Format int

const (
	XRGB Format = iota
	XBGR
	RGB
	BGR
)

func (f Format) String() string {
	switch f {
	case XRGB:
		return "xrgb"
	case XBGR:
		return "xbgr"
	case RGB:
		return "rgb"
	case BGR:
		return "bgr"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts the daemon --format flag values.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "xrgb":
		return XRGB, nil
	case "xbgr":
		return XBGR, nil
	case "rgb":
		return RGB, nil
	case "bgr":
		return BGR, nil
	default:
		return 0, fmt.Errorf("unknown pixel format %q", s)
	}
}

// BytesPerPixel is 4 for the padded formats and 3 for the tight ones.
func (f Format) BytesPerPixel() int {
	switch f {
	case XRGB, XBGR:
		return 4
	default:
		return 3
	}
}

// HasPadding reports whether the format carries an unused fourth byte.
func (f Format) HasPadding() bool {
	return f == XRGB || f == XBGR
}

// channelOrder returns the byte offsets of (R, G, B) within one packed
// pixel, so callers can convert between formats without a type switch
// at every call site.
func (f Format) channelOrder() (r, g, b int) {
	switch f {
	case XRGB:
		return 1, 2, 3
	case XBGR:
		return 3, 2, 1
	case RGB:
		return 0, 1, 2
	case BGR:
		return 2, 1, 0
	default:
		return 0, 1, 2
	}
}
