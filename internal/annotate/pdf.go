package annotate

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"codeberg.org/go-pdf/fpdf"
)

// AssemblePDF builds a PDF from encoded page images, one page per image.
// Page dimensions in points are derived from the pixel dimensions and the
// DPI the pages were rendered at (px * 72 / dpi).
func AssemblePDF(pages [][]byte, dpi int) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page images provided")
	}
	if dpi < 1 {
		return nil, fmt.Errorf("dpi must be positive, got %d", dpi)
	}

	pdf := fpdf.New("P", "pt", "A4", "")

	for i, data := range pages {
		if len(data) == 0 {
			return nil, fmt.Errorf("page image %d is empty", i+1)
		}

		cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode page image %d: %w", i+1, err)
		}

		w := float64(cfg.Width) * 72.0 / float64(dpi)
		h := float64(cfg.Height) * 72.0 / float64(dpi)

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		imageName := fmt.Sprintf("page%d", i+1)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: strings.ToUpper(format)}
		pdf.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(data))
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
