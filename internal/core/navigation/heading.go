package navigation

import (
	"math"

	"github.com/samirrijal/stepwise/internal/pkg/geospatial"
)

// NormalizeHeading converts a raw 2-axis magnetometer vector into a compass
// heading in [0, 360).
func NormalizeHeading(magX, magY float64) float64 {
	h := math.Atan2(magY, magX) * 180 / math.Pi
	return geospatial.NormalizeDegrees(h + 360)
}

// HeadingTracker holds the latest heading. With a window larger than one it
// reports the circular mean of the last window headings, so that 359° and 1°
// average to 0° rather than 180°.
type HeadingTracker struct {
	window int
	recent []float64
	latest float64
	known  bool
}

// NewHeadingTracker returns a tracker; window <= 1 disables smoothing.
func NewHeadingTracker(window int) *HeadingTracker {
	if window < 1 {
		window = 1
	}
	return &HeadingTracker{window: window}
}

// Update records a pre-normalized heading in degrees and returns the
// tracked value.
func (t *HeadingTracker) Update(deg float64) float64 {
	deg = geospatial.NormalizeDegrees(deg)
	t.known = true

	if t.window == 1 {
		t.latest = deg
		return t.latest
	}

	t.recent = append(t.recent, deg)
	if len(t.recent) > t.window {
		t.recent = t.recent[len(t.recent)-t.window:]
	}

	var sx, sy float64
	for _, h := range t.recent {
		r := h * math.Pi / 180
		sx += math.Cos(r)
		sy += math.Sin(r)
	}
	if math.Abs(sx) < 1e-12 && math.Abs(sy) < 1e-12 {
		// opposite headings cancel; keep the newest
		t.latest = deg
	} else {
		t.latest = geospatial.NormalizeDegrees(math.Atan2(sy, sx) * 180 / math.Pi)
	}
	return t.latest
}

// UpdateMagnetic records a raw magnetometer vector.
func (t *HeadingTracker) UpdateMagnetic(magX, magY float64) float64 {
	return t.Update(NormalizeHeading(magX, magY))
}

// Heading returns the tracked heading and whether any value has been seen.
func (t *HeadingTracker) Heading() (float64, bool) {
	return t.latest, t.known
}

// Reset clears all history.
func (t *HeadingTracker) Reset() {
	t.recent = t.recent[:0]
	t.latest = 0
	t.known = false
}
