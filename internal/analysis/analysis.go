// Package analysis orchestrates the per-document pipeline: render each
// page, ask a vision provider for bounding boxes, normalize the reply,
// and draw annotations on matching pages.
package analysis

import (
	"github.com/em0-omg/pdf-highlight-api/internal/detect"
	"github.com/em0-omg/pdf-highlight-api/internal/imgenc"
)

// Options control one analysis run.
type Options struct {
	Filename string
	DPI      int
	Provider string
	Model    string
	// Target is an optional encoded reference image of the pattern to
	// locate; when empty the prompt describes the pattern generically.
	Target []byte
	// Annotate draws boxes on pages that have detections.
	Annotate bool
	// IncludeImages keeps the encoded original page images in the result.
	IncludeImages bool
	Format        imgenc.Format
	Quality       int
}

// PageResult holds the outcome for a single page. Pages that failed to
// render or whose model reply was unusable carry a Warning and an empty
// detection list.
type PageResult struct {
	Page       int                `json:"page"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Detections []detect.Detection `json:"detections"`
	Summary    string             `json:"summary,omitempty"`
	Warning    string             `json:"warning,omitempty"`

	// Image and Annotated are encoded page images; Annotated is nil for
	// pages without detections.
	Image     []byte `json:"-"`
	Annotated []byte `json:"-"`
}

// Result aggregates a whole document. TotalDetections always equals the
// sum of per-page detection counts.
type Result struct {
	Filename        string       `json:"filename"`
	PageCount       int          `json:"total_pages"`
	TotalDetections int          `json:"total_detections"`
	Pages           []PageResult `json:"pages"`
}
