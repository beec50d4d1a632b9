package daemon

import (
	"fmt"

	"github.com/driftwall/driftwall/pkg/imaging"
	"github.com/driftwall/driftwall/pkg/pixel"
)

// fingerprint builds the request-fingerprint key spec.md §3 defines
// ("path-or-stdin-hash, target_size, fit_mode, fill_color, format"),
// scoped to one output's current geometry, so two `img` requests for
// the same content landing on the same output while the first is
// still decoding collapse into one decode (spec.md §3 "Ownership").
func fingerprint(contentHash string, w, h int32, fit imaging.FitMode, fill imaging.Color, format pixel.Format) string {
	return fmt.Sprintf("%s|%dx%d|%d|%02x%02x%02x|%d", contentHash, w, h, fit, fill.R, fill.G, fill.B, format)
}
