// Package annotate draws detection overlays and highlight marks onto
// rendered page images and assembles annotated pages back into a PDF.
package annotate

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/em0-omg/pdf-highlight-api/internal/detect"
)

// Style is the fixed visual style for overlays.
type Style struct {
	Color       color.NRGBA
	StrokeWidth int
	ShowLabels  bool
}

// DefaultStyle matches the service defaults: red boxes, 3px stroke,
// confidence labels on.
func DefaultStyle() Style {
	return Style{
		Color:       color.NRGBA{R: 255, A: 255},
		StrokeWidth: 3,
		ShowLabels:  true,
	}
}

// Drawer paints overlays onto copies of page images.
type Drawer struct {
	style Style
}

// NewDrawer returns a Drawer using the given style.
func NewDrawer(style Style) *Drawer {
	if style.StrokeWidth < 1 {
		style.StrokeWidth = 1
	}
	return &Drawer{style: style}
}

// DrawDetections returns a copy of img with one box per detection.
// The input image is never modified.
func (d *Drawer) DrawDetections(img image.Image, detections []detect.Detection) *image.NRGBA {
	nrgba := imaging.Clone(img)
	for _, det := range detections {
		d.drawBox(nrgba, det)
		if d.style.ShowLabels {
			d.drawLabel(nrgba, det)
		}
	}
	return nrgba
}

// DrawMarks returns a copy of img with a filled circle at each point.
func (d *Drawer) DrawMarks(img image.Image, points []image.Point, radius int, c color.NRGBA) *image.NRGBA {
	nrgba := imaging.Clone(img)
	for _, p := range points {
		drawCircle(nrgba, p.X, p.Y, radius, c)
	}
	return nrgba
}

func (d *Drawer) drawBox(img *image.NRGBA, det detect.Detection) {
	x0 := int(det.X1 + 0.5)
	y0 := int(det.Y1 + 0.5)
	x1 := int(det.X2 + 0.5)
	y1 := int(det.Y2 + 0.5)

	for s := 0; s < d.style.StrokeWidth; s++ {
		drawHLine(img, y0+s, x0, x1, d.style.Color)
		drawHLine(img, y1-1-s, x0, x1, d.style.Color)
		drawVLine(img, x0+s, y0, y1, d.style.Color)
		drawVLine(img, x1-1-s, y0, y1, d.style.Color)
	}
}

func (d *Drawer) drawLabel(img *image.NRGBA, det detect.Detection) {
	label := fmt.Sprintf("%.2f", det.Confidence)

	x := int(det.X1) + d.style.StrokeWidth + 2
	y := int(det.Y1) + basicfont.Face7x13.Ascent + d.style.StrokeWidth + 2
	if y >= img.Bounds().Dy() {
		y = img.Bounds().Dy() - 1
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(d.style.Color),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	drawer.DrawString(label)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > img.Bounds().Dx() {
		x1 = img.Bounds().Dx()
	}
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	if y0 < 0 {
		y0 = 0
	}
	if y1 > img.Bounds().Dy() {
		y1 = img.Bounds().Dy()
	}
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}

func drawCircle(img *image.NRGBA, cx, cy, radius int, c color.NRGBA) {
	r2 := radius * radius
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy > r2 {
				continue
			}
			x, y := cx+dx, cy+dy
			if x < 0 || x >= img.Bounds().Dx() || y < 0 || y >= img.Bounds().Dy() {
				continue
			}
			i := y*img.Stride + x*4
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
		}
	}
}

// ParseHexColor parses #RRGGBB into an opaque NRGBA.
func ParseHexColor(s string) (color.NRGBA, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}
