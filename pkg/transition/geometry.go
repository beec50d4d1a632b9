package transition

import "math"

// antialiasBand is the half-width, in pixels, of the blended boundary
// band for geometric transitions (spec.md §4.D "on the boundary,
// linearly blended").
const antialiasBand = 1.5

func smoothstep(center, half, value float64) float64 {
	return clamp01(0.5 + (value-center)/(2*half))
}

// resolvedPos converts a Point (percentage or absolute) into pixel
// coordinates within a w x h frame. Y counts up from the bottom edge,
// or down from the top edge when invertY is set.
func resolvedPos(p Point, w, h int, invertY bool) (x, y float64) {
	x, y = p.X, p.Y
	if p.Percent {
		x = x / 100 * float64(w)
		y = y / 100 * float64(h)
	}
	if !invertY {
		y = float64(h) - y
	}
	return x, y
}

// wipeAngleFor resolves a preset directional type (Left/Right/Top/Bottom)
// to the sweep angle Wipe uses; other types pass their own AngleDeg
// through unchanged.
func wipeAngleFor(d Descriptor) float64 {
	switch d.Type {
	case Left:
		return 0
	case Right:
		return 180
	case Top:
		return 90
	case Bottom:
		return 270
	default:
		return d.AngleDeg
	}
}

// mask returns the [0,1] blend factor toward `new` at pixel (x, y) in
// a w x h frame, for a geometric transition at progress t (already
// eased). 0 is fully old, 1 is fully new, values in between are the
// antialiased boundary band.
func mask(d Descriptor, resolved Type, t float64, x, y, w, h int) float64 {
	switch resolved {
	case Wipe, Wave, Left, Right, Top, Bottom:
		return wipeMask(d, resolved, t, x, y, w, h)
	case Grow, Center:
		return circleMask(d, t, x, y, w, h, true)
	case Outer:
		return circleMask(d, t, x, y, w, h, false)
	default:
		return t
	}
}

func wipeMask(d Descriptor, resolved Type, t float64, x, y, w, h int) float64 {
	angle := wipeAngleFor(Descriptor{Type: resolved, AngleDeg: d.AngleDeg})
	rad := angle * math.Pi / 180
	dirX, dirY := math.Cos(rad), math.Sin(rad)
	perpX, perpY := -dirY, dirX

	proj := func(px, py float64) float64 { return px*dirX + py*dirY }
	perp := func(px, py float64) float64 { return px*perpX + py*perpY }

	corners := [4][2]float64{{0, 0}, {float64(w), 0}, {0, float64(h)}, {float64(w), float64(h)}}
	projMin, projMax := math.Inf(1), math.Inf(-1)
	for _, c := range corners {
		p := proj(c[0], c[1])
		projMin = math.Min(projMin, p)
		projMax = math.Max(projMax, p)
	}

	threshold := projMin + t*(projMax-projMin)
	if resolved == Wave {
		wavelen := d.WaveSize.Width
		amp := d.WaveSize.Height
		if wavelen <= 0 {
			wavelen = 1
		}
		threshold += amp * math.Sin(2*math.Pi*perp(float64(x), float64(y))/wavelen)
	}

	p := proj(float64(x), float64(y))
	return 1 - smoothstep(threshold, antialiasBand, p)
}

func circleMask(d Descriptor, t float64, x, y, w, h int, growing bool) float64 {
	px, py := resolvedPos(d.Pos, w, h, d.InvertY)
	maxRadius := 0.0
	for _, c := range [4][2]float64{{0, 0}, {float64(w), 0}, {0, float64(h)}, {float64(w), float64(h)}} {
		dx, dy := c[0]-px, c[1]-py
		maxRadius = math.Max(maxRadius, math.Hypot(dx, dy))
	}

	dist := math.Hypot(float64(x)-px, float64(y)-py)
	if growing {
		radius := t * maxRadius
		return 1 - smoothstep(radius, antialiasBand, dist)
	}
	radius := (1 - t) * maxRadius
	return smoothstep(radius, antialiasBand, dist)
}
