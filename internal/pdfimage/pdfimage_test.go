package pdfimage

import "testing"

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want bool
	}{
		{name: "pdf header", data: []byte("%PDF-1.7\n..."), want: true},
		{name: "png header", data: []byte("\x89PNG\r\n"), want: false},
		{name: "empty", data: nil, want: false},
		{name: "truncated header", data: []byte("%PD"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPDF(tt.data); got != tt.want {
				t.Errorf("Expected IsPDF=%v, got %v", tt.want, got)
			}
		})
	}
}

func TestOpenRejectsNonPDF(t *testing.T) {
	if _, err := Open([]byte("not a pdf")); err == nil {
		t.Error("Expected error for non-PDF data")
	}
}
