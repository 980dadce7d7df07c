// Package highlight places pseudo-random marks on page images. It stands
// in for real detection when no target pattern is supplied and carries no
// contract beyond mark count and placement bounds.
package highlight

import (
	"image"
	"math/rand"
)

const (
	minMarks = 1
	maxMarks = 5
)

// Placer generates random highlight points within a page interior.
type Placer struct {
	margin int
	rng    *rand.Rand
}

// NewPlacer returns a Placer that keeps marks at least margin pixels away
// from every page edge. rng may be seeded by tests; a nil rng uses the
// shared source.
func NewPlacer(margin int, rng *rand.Rand) *Placer {
	if margin < 0 {
		margin = 0
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Placer{margin: margin, rng: rng}
}

// Place returns between 1 and 5 points, each strictly inside the
// margin-inset interior of a width x height page. Pages too small for the
// inset fall back to the full interior.
func (p *Placer) Place(width, height int) []image.Point {
	if width <= 0 || height <= 0 {
		return nil
	}

	margin := p.margin
	if width <= 2*margin || height <= 2*margin {
		margin = 0
	}

	innerW := width - 2*margin
	innerH := height - 2*margin

	n := minMarks + p.rng.Intn(maxMarks-minMarks+1)
	points := make([]image.Point, 0, n)
	for i := 0; i < n; i++ {
		points = append(points, image.Point{
			X: margin + p.rng.Intn(innerW),
			Y: margin + p.rng.Intn(innerH),
		})
	}
	return points
}
