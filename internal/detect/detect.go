// Package detect validates and reshapes the free-form detection replies
// returned by vision models into per-page bounding boxes with known
// invariants.
package detect

// Candidate is one raw bounding box from a model reply. All fields are
// pointers so missing keys can be told apart from zero values; nothing in
// a Candidate is trusted until it passes Normalize.
type Candidate struct {
	X1         *float64 `json:"x1"`
	Y1         *float64 `json:"y1"`
	X2         *float64 `json:"x2"`
	Y2         *float64 `json:"y2"`
	Confidence *float64 `json:"confidence"`
}

// Detection is a validated bounding box attached to a page. Coordinates
// are in page-image pixel space and satisfy 0 <= x1 < x2 <= width,
// 0 <= y1 < y2 <= height, 0 <= confidence <= 1.
type Detection struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
}

// Reply is the parsed shape of a model response for one page.
type Reply struct {
	Candidates []Candidate `json:"detections"`
	Summary    string      `json:"summary,omitempty"`
}

// DefaultClampTolerance is the fraction of a page dimension by which a
// coordinate may overflow the page and still be clamped instead of the
// candidate being discarded.
const DefaultClampTolerance = 0.02

// Normalizer turns untrusted candidates into validated detections.
type Normalizer struct {
	tolerance float64
}

// NewNormalizer returns a Normalizer with the given clamp tolerance.
// Tolerances outside [0,1] fall back to DefaultClampTolerance.
func NewNormalizer(tolerance float64) *Normalizer {
	if tolerance < 0 || tolerance > 1 {
		tolerance = DefaultClampTolerance
	}
	return &Normalizer{tolerance: tolerance}
}

// Normalize validates candidates against the page's pixel dimensions.
// Invalid candidates are discarded, never fatal; the returned slice
// preserves the order in which candidates were seen.
func (n *Normalizer) Normalize(candidates []Candidate, width, height int) []Detection {
	detections := make([]Detection, 0, len(candidates))
	if width <= 0 || height <= 0 {
		return detections
	}

	w := float64(width)
	h := float64(height)
	tolX := n.tolerance * w
	tolY := n.tolerance * h

	for _, c := range candidates {
		if c.X1 == nil || c.Y1 == nil || c.X2 == nil || c.Y2 == nil || c.Confidence == nil {
			continue
		}

		conf := *c.Confidence
		if conf < 0 || conf > 1 {
			continue
		}

		x1, ok1 := clamp(*c.X1, 0, w, tolX)
		y1, ok2 := clamp(*c.Y1, 0, h, tolY)
		x2, ok3 := clamp(*c.X2, 0, w, tolX)
		y2, ok4 := clamp(*c.Y2, 0, h, tolY)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}

		if x1 >= x2 || y1 >= y2 {
			continue
		}

		detections = append(detections, Detection{
			X1:         x1,
			Y1:         y1,
			X2:         x2,
			Y2:         y2,
			Confidence: conf,
		})
	}

	return detections
}

// clamp pulls v into [lo,hi] when the overflow is within tol. The second
// return value is false when v is too far outside the range to trust.
func clamp(v, lo, hi, tol float64) (float64, bool) {
	if v < lo-tol || v > hi+tol {
		return 0, false
	}
	if v < lo {
		return lo, true
	}
	if v > hi {
		return hi, true
	}
	return v, true
}
