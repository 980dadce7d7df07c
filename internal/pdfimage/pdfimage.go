// Package pdfimage rasterizes PDF pages to images. The MuPDF-backed
// implementation sits behind a small interface so the HTTP layer and its
// tests do not depend on cgo.
package pdfimage

import (
	"bytes"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// Document is an opened PDF whose pages can be rendered independently.
type Document interface {
	// PageCount returns the number of pages.
	PageCount() int
	// RenderPage rasterizes the 0-based page at the given DPI.
	RenderPage(page int, dpi int) (image.Image, error)
	// Close releases the underlying document resources.
	Close() error
}

// Opener opens an in-memory PDF. Handlers take an Opener so tests can
// substitute fakes for the MuPDF renderer.
type Opener func(data []byte) (Document, error)

var pdfMagic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF file header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// Open opens a PDF from memory using MuPDF.
func Open(data []byte) (Document, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("data is not a PDF")
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

func (d *fitzDocument) RenderPage(page int, dpi int) (image.Image, error) {
	if page < 0 || page >= d.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range [0,%d)", page, d.doc.NumPage())
	}
	if dpi < 1 {
		return nil, fmt.Errorf("dpi must be positive, got %d", dpi)
	}

	img, err := d.doc.ImageDPI(page, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
