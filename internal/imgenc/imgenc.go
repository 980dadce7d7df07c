// Package imgenc encodes rendered pages to wire formats and packs
// multi-page results into ZIP archives.
package imgenc

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	_ "golang.org/x/image/webp"
)

// Format is an output image format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpg"
	WebP Format = "webp"
)

// ParseFormat maps a user-supplied format string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpg", "jpeg":
		return JPEG, nil
	case "webp":
		return WebP, nil
	default:
		return "", fmt.Errorf("unsupported image format: %q", s)
	}
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// MIME returns the media type for the format.
func (f Format) MIME() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case WebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Encode serializes img in the given format. quality applies to JPEG and
// WebP and is ignored for PNG.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		quality = 90
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case JPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case WebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	case PNG:
		err = png.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("unsupported image format: %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return buf.Bytes(), nil
}

// ToBase64 returns the standard-encoding base64 form of data.
func ToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// ZipPages packs encoded page images into a ZIP archive as
// page_1.<ext>, page_2.<ext>, ...
func ZipPages(pages [][]byte, format Format) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to archive")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, data := range pages {
		w, err := zw.Create(fmt.Sprintf("page_%d.%s", i+1, format.Ext()))
		if err != nil {
			return nil, fmt.Errorf("failed to create archive entry: %w", err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("failed to write archive entry: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
