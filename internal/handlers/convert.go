package handlers

import (
	"log/slog"
	"net/http"

	"github.com/em0-omg/pdf-highlight-api/internal/analysis"
	"github.com/em0-omg/pdf-highlight-api/internal/imgenc"
)

// HandleConvert converts an uploaded PDF to page images. Multi-page
// documents come back as a ZIP archive, single pages as one image.
func (h *Handler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, baseName, err := h.readPDFUpload(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	dpi, err := h.dpiParam(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	format, err := h.formatParam(r)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := h.open(data)
	if err != nil {
		h.writeError(w, "Error converting PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer doc.Close()

	result, err := h.service.Convert(doc, analysis.Options{
		Filename: baseName,
		DPI:      dpi,
		Format:   format,
		Quality:  h.cfg.Render.Quality,
	})
	if err != nil {
		h.writeError(w, "Error converting PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}

	pages := make([][]byte, 0, len(result.Pages))
	for _, pr := range result.Pages {
		if len(pr.Image) == 0 {
			h.writeError(w, "Error converting PDF: "+pr.Warning, http.StatusInternalServerError)
			return
		}
		pages = append(pages, pr.Image)
	}

	slog.Info("PDF converted", "filename", baseName, "pages", len(pages), "dpi", dpi)
	h.writePages(w, pages, baseName, format)
}

// writePages sends one image directly or several as a ZIP archive.
func (h *Handler) writePages(w http.ResponseWriter, pages [][]byte, baseName string, format imgenc.Format) {
	if len(pages) == 1 {
		h.writeBinary(w, pages[0], baseName+"."+format.Ext(), format.MIME())
		return
	}

	archive, err := imgenc.ZipPages(pages, format)
	if err != nil {
		h.writeError(w, "Error building archive: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeBinary(w, archive, baseName+"_images.zip", "application/zip")
}
