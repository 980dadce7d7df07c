package imgenc

import (
	"archive/zip"
	"bytes"
	"image"
	"testing"
)

func testImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 16, 16))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "png", want: PNG},
		{in: "", want: PNG},
		{in: "jpg", want: JPEG},
		{in: "JPEG", want: JPEG},
		{in: "webp", want: WebP},
		{in: "tiff", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEncodeFormats(t *testing.T) {
	for _, format := range []Format{PNG, JPEG, WebP} {
		t.Run(string(format), func(t *testing.T) {
			data, err := Encode(testImage(), format, 90)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(data) == 0 {
				t.Error("Expected non-empty encoded image")
			}
		})
	}
}

func TestZipPages(t *testing.T) {
	p1, err := Encode(testImage(), PNG, 90)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Encode(testImage(), PNG, 90)
	if err != nil {
		t.Fatal(err)
	}

	data, err := ZipPages([][]byte{p1, p2}, PNG)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to read archive: %v", err)
	}

	if len(zr.File) != 2 {
		t.Fatalf("Expected 2 archive entries, got %d", len(zr.File))
	}
	if zr.File[0].Name != "page_1.png" {
		t.Errorf("Expected page_1.png, got %s", zr.File[0].Name)
	}
	if zr.File[1].Name != "page_2.png" {
		t.Errorf("Expected page_2.png, got %s", zr.File[1].Name)
	}
}

func TestZipPagesEmpty(t *testing.T) {
	if _, err := ZipPages(nil, PNG); err == nil {
		t.Error("Expected error for empty page list")
	}
}
